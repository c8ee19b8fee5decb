package draft

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mbolis/alumni-survey/model"
)

func fullDraft(t *testing.T) *Draft {
	d := New()
	d.Title = "Alumni 2026"
	d.Description = "<p>Tell us <b>how</b> you are doing</p>"
	expiry := time.Date(2026, 12, 31, 23, 59, 0, 0, time.Local)
	d.Expiry = &expiry

	newSection(t, d, "About you")
	insert(t, d, 0, shortAnswer("Full name", MatchName))
	insert(t, d, 0, &Question{Type: Paragraph, Text: "What are you up to?", Required: true})
	insert(t, d, 0, &Question{Type: DatePicker, Text: "Graduated on"})
	newSection(t, d, "Opinions")
	insert(t, d, 1, &Question{Type: MultipleChoice, Text: "Employed?", Body: Choice{Options: []string{"yes", "no"}}})
	insert(t, d, 1, &Question{Type: Checkbox, Text: "Sectors", Body: Choice{Options: []string{"IT", "Health", "Public"}}})
	insert(t, d, 1, &Question{Type: Dropdown, Text: "Country", Body: Choice{Options: []string{"IT"}}})
	insert(t, d, 1, &Question{Type: LinearScale, Text: "Satisfaction", Body: Scale{Max: 7, LabelLeft: "low", LabelRight: "high"}})
	return d
}

func sameDraft(t *testing.T, got, want *Draft) {
	t.Helper()
	if got.Title != want.Title || got.Description != want.Description {
		t.Errorf("title/description = %q/%q, want %q/%q", got.Title, got.Description, want.Title, want.Description)
	}
	switch {
	case (got.Expiry == nil) != (want.Expiry == nil):
		t.Errorf("Expiry = %v, want %v", got.Expiry, want.Expiry)
	case got.Expiry != nil && !got.Expiry.Equal(*want.Expiry):
		t.Errorf("Expiry = %v, want %v", got.Expiry, want.Expiry)
	}
	if !reflect.DeepEqual(got.Courses(), want.Courses()) || !reflect.DeepEqual(got.GraduationDates(), want.GraduationDates()) {
		t.Errorf("restrictions = %q %q, want %q %q", got.Courses(), got.GraduationDates(), want.Courses(), want.GraduationDates())
	}
	if !reflect.DeepEqual(got.Sections(), want.Sections()) {
		t.Errorf("sections differ:\n got %s\nwant %s", dump(got), dump(want))
	}
}

func dump(d *Draft) string {
	b, _ := json.Marshal(ToWire(d))
	return string(b)
}

func TestWireRoundTrip(t *testing.T) {
	d := fullDraft(t)
	d.Expiry = nil

	back, err := FromWire(ToWire(d))
	if err != nil {
		t.Fatal(err)
	}
	sameDraft(t, back, d)
}

func TestSubmissionRoundTrip(t *testing.T) {
	d := fullDraft(t)
	d.SetRestrictions(Restriction{"cs", "math"}, Restriction{"2020-07"})

	sub, err := d.Submission()
	if err != nil {
		t.Fatal(err)
	}
	if sub.Expiry != "2026-12-31 23:59:00" {
		t.Errorf("Expiry = %q", sub.Expiry)
	}
	if sub.AllowedCourses != "cs,math" || sub.AllowedGraduationDates != "2020-07" {
		t.Errorf("restrictions = %q / %q", sub.AllowedCourses, sub.AllowedGraduationDates)
	}

	back, err := FromSubmission(sub)
	if err != nil {
		t.Fatal(err)
	}
	sameDraft(t, back, d)
}

func TestSubmissionFormEncoding(t *testing.T) {
	d := fullDraft(t)
	d.Expiry = nil

	sub, err := d.Submission()
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := sub.Encode()
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := model.DecodeSubmission(strings.NewReader(encoded))
	if err != nil {
		t.Fatal(err)
	}
	if decoded != sub {
		t.Errorf("decoded = %+v, want %+v", decoded, sub)
	}
	if decoded.AllowedCourses != "" || decoded.Expiry != "" {
		t.Errorf("unrestricted draft submitted restrictions %q / expiry %q", decoded.AllowedCourses, decoded.Expiry)
	}
}

func TestSubmissionRejectsInvalidDraft(t *testing.T) {
	d := New()
	newSection(t, d, "Empty")
	if _, err := d.Submission(); err == nil {
		t.Fatal("Submission() of an empty survey succeeded")
	}
}

func TestWireLabels(t *testing.T) {
	d := fullDraft(t)
	w := ToWire(d)

	var got []string
	for _, s := range w.Sections {
		for _, q := range s.Questions {
			got = append(got, q.Type)
		}
	}
	want := []string{"Short Answer", "Paragraph", "Date", "Multiple Choice", "Checkboxes", "Dropdown", "Linear Scale"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %q, want %q", got, want)
	}

	for _, label := range want {
		typ, err := ParseType(label)
		if err != nil || typ.String() != label {
			t.Errorf("ParseType(%q) = %v, %v", label, typ, err)
		}
	}
	if _, err := ParseType("Essay"); err == nil {
		t.Error("ParseType accepted an unknown label")
	}
}

func TestWireOmitsIrrelevantFields(t *testing.T) {
	w := ToWire(fullDraft(t))

	short := w.Sections[0].Questions[0]
	if short.Options != nil || short.ScaleMax != nil || short.ScaleLabelLeft != nil {
		t.Errorf("short answer carries body fields: %+v", short)
	}
	if short.MatchStudent != "name" || !short.Required {
		t.Errorf("short answer = %+v", short)
	}
	choice := w.Sections[1].Questions[0]
	if !reflect.DeepEqual(choice.Options, []string{"yes", "no"}) || choice.ScaleMin != nil {
		t.Errorf("multiple choice = %+v", choice)
	}
	b, err := json.Marshal(w.Sections[0].Questions[1])
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "scale") || strings.Contains(string(b), "options") {
		t.Errorf("paragraph JSON = %s", b)
	}
}

func TestWireScaleDefaults(t *testing.T) {
	w := toWireQuestion(&Question{Type: LinearScale, Text: "Rate", Body: Scale{}})
	if w.ScaleMin == nil || *w.ScaleMin != 1 {
		t.Errorf("ScaleMin = %v, want 1", w.ScaleMin)
	}
	if w.ScaleMax == nil || *w.ScaleMax != 5 {
		t.Errorf("ScaleMax = %v, want 5", w.ScaleMax)
	}
	if w.ScaleLabelLeft == nil || *w.ScaleLabelLeft != "" || w.ScaleLabelRight == nil || *w.ScaleLabelRight != "" {
		t.Errorf("labels = %v / %v, want empty strings", w.ScaleLabelLeft, w.ScaleLabelRight)
	}
}

func TestFromWireDefaults(t *testing.T) {
	var s model.Survey
	err := json.Unmarshal([]byte(`{
		"title": "t",
		"sections": [{"secTitle": "s", "questions": [
			{"type": "Linear Scale", "text": "rate"},
			{"type": "Short Answer", "text": "name", "matchStudent": "student_id"},
			{"type": "Paragraph", "text": "why", "matchStudent": "name"}
		]}]
	}`), &s)
	if err != nil {
		t.Fatal(err)
	}

	d, err := FromWire(s)
	if err != nil {
		t.Fatal(err)
	}
	scale := mustQuestion(t, d, 0, 0)
	if sc, ok := scale.Scale(); !ok || sc.Max != 5 || scale.Required || scale.MatchStudent != MatchNone {
		t.Errorf("linear scale = %+v", scale)
	}
	if q := mustQuestion(t, d, 0, 1); q.MatchStudent != MatchStudentID || !q.Required {
		t.Errorf("matching question = %+v, want required", q)
	}
	if q := mustQuestion(t, d, 0, 2); q.MatchStudent != MatchNone {
		t.Errorf("paragraph kept MatchStudent %s", q.MatchStudent)
	}
	if d.RestrictionsActive() {
		t.Error("hydrated draft is restricted")
	}
	checkInvariants(t, d)
}

func TestFromWireUnknownType(t *testing.T) {
	_, err := FromWire(model.Survey{Sections: []model.Section{{SecTitle: "s", Questions: []model.Question{{Type: "Essay"}}}}})
	if err == nil {
		t.Fatal("FromWire accepted an unknown type")
	}
}

func TestFromWireScaleOutOfRange(t *testing.T) {
	scaleMax := 50
	s := model.Survey{Sections: []model.Section{{SecTitle: "s", Questions: []model.Question{
		{Type: "Linear Scale", Text: "rate", ScaleMax: &scaleMax},
	}}}}
	if _, err := FromWire(s); !errors.Is(err, ErrValidation) {
		t.Errorf("FromWire() = %v, want ErrValidation", err)
	}
}

func TestSnapshotRestore(t *testing.T) {
	d := fullDraft(t)
	d.SetRestrictions(Restriction{"cs"}, nil)
	d.RenameSection(1, "")
	d.SetActiveSection(1)

	back, err := Restore(d.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	sameDraft(t, back, d)
	if back.ActiveSection() != 1 {
		t.Errorf("ActiveSection() = %d, want 1", back.ActiveSection())
	}
}

func TestFromSubmissionEnforcesRestrictions(t *testing.T) {
	d := New()
	d.Title = "legacy"
	newSection(t, d, "S")
	insert(t, d, 0, &Question{Type: Paragraph, Text: "Comments"})
	sub, err := d.Submission()
	if err != nil {
		t.Fatal(err)
	}
	sub.AllowedCourses = "cs"

	back, err := FromSubmission(sub)
	if err != nil {
		t.Fatal(err)
	}
	if q := mustQuestion(t, back, 0, 0); q.Text != DefaultMatchingText {
		t.Errorf("question (0,0) = %q, want the default matching question", q.Text)
	}
	checkInvariants(t, back)
}
