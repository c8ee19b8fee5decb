package draft

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"<p><br></p>", ""},
		{"  <p>&nbsp;</p> ", ""},
		{"<b>bold</b> text", "bold  text"},
		{"a &amp; b", "a & b"},
	}
	for _, tt := range tests {
		if got := StripMarkup(tt.in); got != tt.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateValidDraft(t *testing.T) {
	if err := fullDraft(t).Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestValidateReportsEverything(t *testing.T) {
	d := New()
	newSection(t, d, "S")
	insert(t, d, 0, &Question{Type: Paragraph, Text: "ok"})
	insert(t, d, 0, &Question{Type: Dropdown, Text: "pick", Body: Choice{Options: []string{"a"}}})
	newSection(t, d, "Empty")
	if err := d.RenameSection(1, " "); err != nil {
		t.Fatal(err)
	}
	if err := d.SetQuestionText(0, 0, "<p></p>"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddOption(0, 1); err != nil {
		t.Fatal(err)
	}

	err := d.Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() = %v, want a validation error", err)
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("Validate() returned %T", err)
	}

	want := []string{
		"survey title is empty",
		"section 1, question 1: question text is empty",
		"section 1, question 2: option 2 is empty",
		"section 2: section title is empty",
		"section 2: section has no questions",
	}
	if len(merr.Errors) != len(want) {
		t.Fatalf("got %d problems, want %d: %v", len(merr.Errors), len(want), err)
	}
	for _, w := range want {
		if !strings.Contains(err.Error(), w) {
			t.Errorf("Validate() = %q, missing %q", err, w)
		}
	}
}

func TestValidateNoSections(t *testing.T) {
	d := New()
	d.Title = "t"
	err := d.Validate()
	if err == nil || !strings.Contains(err.Error(), "add at least one section") {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidateRestrictedWithoutMatchingQuestion(t *testing.T) {
	d := New()
	d.Title = "t"
	newSection(t, d, "S")
	insert(t, d, 0, &Question{Type: Paragraph, Text: "x"})
	d.courses = Restriction{"cs"}

	err := d.Validate()
	if err == nil || !strings.Contains(err.Error(), "restricted surveys need a question") {
		t.Errorf("Validate() = %v", err)
	}
}

func TestValidateScale(t *testing.T) {
	d := New()
	d.Title = "t"
	newSection(t, d, "S")
	insert(t, d, 0, &Question{Type: LinearScale, Text: "x"})
	d.sections[0].Questions[0].Body = Scale{Max: 12}

	var verr *ValidationError
	if err := d.Validate(); !errors.As(err, &verr) || verr.Question != 0 {
		t.Errorf("Validate() = %v", err)
	}
}
