package draft

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mbolis/alumni-survey/model"
)

// ToWire maps the tree to the wire format. It never fails and does not
// validate; use Submission for that.
func ToWire(d *Draft) model.Survey {
	s := model.Survey{
		Title:       d.Title,
		Description: d.Description,
		Sections:    make([]model.Section, len(d.sections)),
	}
	for i, sec := range d.sections {
		ws := model.Section{SecTitle: sec.Title, Questions: make([]model.Question, len(sec.Questions))}
		for j, q := range sec.Questions {
			ws.Questions[j] = toWireQuestion(q)
		}
		s.Sections[i] = ws
	}
	return s
}

func toWireQuestion(q *Question) model.Question {
	w := model.Question{
		Type:                  q.Type.String(),
		Text:                  q.Text,
		Required:              q.Required,
		MatchStudent:          q.MatchStudent.String(),
		IsRestrictionRequired: q.RestrictionRequired,
	}
	switch b := q.Body.(type) {
	case Choice:
		w.Options = append([]string(nil), b.Options...)
	case Scale:
		lo, hi := ScaleMin, b.EffectiveMax()
		left, right := b.LabelLeft, b.LabelRight
		w.ScaleMin, w.ScaleMax = &lo, &hi
		w.ScaleLabelLeft, w.ScaleLabelRight = &left, &right
	}
	return w
}

// QuestionFromWire converts a wire question, filling defaults for the
// fields its type needs.
func QuestionFromWire(w model.Question) (*Question, error) {
	t, err := ParseType(w.Type)
	if err != nil {
		return nil, err
	}
	m, err := ParseMatchStudent(w.MatchStudent)
	if err != nil {
		return nil, err
	}
	q := &Question{
		Type:                t,
		Text:                w.Text,
		Required:            w.Required,
		MatchStudent:        m,
		RestrictionRequired: w.IsRestrictionRequired,
	}
	switch {
	case t.HasOptions():
		q.Body = Choice{Options: append([]string(nil), w.Options...)}
	case t == LinearScale:
		s := Scale{Max: DefaultScaleMax}
		if w.ScaleMax != nil {
			s.Max = *w.ScaleMax
		}
		if w.ScaleLabelLeft != nil {
			s.LabelLeft = *w.ScaleLabelLeft
		}
		if w.ScaleLabelRight != nil {
			s.LabelRight = *w.ScaleLabelRight
		}
		if !s.InRange() {
			return nil, invalid(errScaleRange)
		}
		q.Body = s
	}
	q.normalize()
	return q, nil
}

func build(s model.Survey) (*Draft, error) {
	d := New()
	d.Title = s.Title
	d.Description = s.Description
	for i, ws := range s.Sections {
		sec := &Section{Title: ws.SecTitle, Questions: make([]*Question, len(ws.Questions))}
		for j, wq := range ws.Questions {
			q, err := QuestionFromWire(wq)
			if err != nil {
				return nil, fmt.Errorf("section %d question %d: %w", i+1, j+1, err)
			}
			sec.Questions[j] = q
		}
		d.sections = append(d.sections, sec)
	}
	if len(d.sections) > 0 {
		d.active = 0
	}
	return d, nil
}

// FromWire hydrates an unrestricted draft from a wire snapshot.
func FromWire(s model.Survey) (*Draft, error) {
	d, err := build(s)
	if err != nil {
		return nil, err
	}
	d.refresh()
	return d, nil
}

// ParseExpiry reads the submission expiry format. Blank means no expiry.
func ParseExpiry(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(model.ExpiryLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("expiry: %w", err)
	}
	return &t, nil
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(model.ExpiryLayout)
}

// Snapshot captures the whole editing state, valid or not.
func (d *Draft) Snapshot() model.Draft {
	return model.Draft{
		Survey:                 ToWire(d),
		Expiry:                 formatExpiry(d.Expiry),
		AllowedCourses:         append([]string(nil), d.courses...),
		AllowedGraduationDates: append([]string(nil), d.dates...),
		ActiveSection:          d.active,
	}
}

// Restore rebuilds a draft from a Snapshot. Highlights are not kept.
func Restore(s model.Draft) (*Draft, error) {
	d, err := build(s.Survey)
	if err != nil {
		return nil, err
	}
	if d.Expiry, err = ParseExpiry(s.Expiry); err != nil {
		return nil, err
	}
	d.courses = NewRestriction(s.AllowedCourses...)
	d.dates = NewRestriction(s.AllowedGraduationDates...)
	d.active = -1
	if s.ActiveSection >= 0 && s.ActiveSection < len(d.sections) {
		d.active = s.ActiveSection
	}
	d.refresh()
	return d, nil
}

// Submission validates the draft and produces the form post payload.
func (d *Draft) Submission() (model.Submission, error) {
	if err := d.Validate(); err != nil {
		return model.Submission{}, err
	}
	body, err := json.Marshal(ToWire(d))
	if err != nil {
		return model.Submission{}, err
	}
	return model.Submission{
		Title:                  d.Title,
		Expiry:                 formatExpiry(d.Expiry),
		AllowedCourses:         d.courses.Join(),
		AllowedGraduationDates: d.dates.Join(),
		Survey:                 string(body),
	}, nil
}

// FromSubmission hydrates the edit flow from a stored submission.
func FromSubmission(sub model.Submission) (*Draft, error) {
	var s model.Survey
	if err := json.Unmarshal([]byte(sub.Survey), &s); err != nil {
		return nil, fmt.Errorf("survey: %w", err)
	}
	d, err := build(s)
	if err != nil {
		return nil, err
	}
	if sub.Title != "" {
		d.Title = sub.Title
	}
	if d.Expiry, err = ParseExpiry(sub.Expiry); err != nil {
		return nil, err
	}
	d.courses = ParseRestriction(sub.AllowedCourses)
	d.dates = ParseRestriction(sub.AllowedGraduationDates)
	d.refresh()
	return d, nil
}
