package draft

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var reTag = regexp.MustCompile(`<[^>]*>`)

const errScaleRange = "scale must end between 2 and 10"

// StripMarkup returns the visible text of a rich-text fragment.
func StripMarkup(s string) string {
	s = reTag.ReplaceAllLiteralString(s, " ")
	return strings.TrimSpace(html.UnescapeString(s))
}

// Validate checks everything that is tolerated while editing but not on
// submit. All problems are reported together in a *multierror.Error whose
// entries are *ValidationError.
func (d *Draft) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(d.Title) == "" {
		result = multierror.Append(result, invalid("survey title is empty"))
	}
	if len(d.sections) == 0 {
		result = multierror.Append(result, invalid("add at least one section"))
	}
	if d.RestrictionsActive() && !d.HasMatchingQuestion() {
		result = multierror.Append(result, invalid("restricted surveys need a question matching students by name or id"))
	}

	for s, sec := range d.sections {
		if strings.TrimSpace(sec.Title) == "" {
			result = multierror.Append(result, invalidAt(s, -1, "section title is empty"))
		}
		if len(sec.Questions) == 0 {
			result = multierror.Append(result, invalidAt(s, -1, "section has no questions"))
		}
		for i, q := range sec.Questions {
			for _, msg := range questionProblems(q) {
				result = multierror.Append(result, invalidAt(s, i, msg))
			}
		}
	}

	if result != nil {
		result.ErrorFormat = listFormat
	}
	return result.ErrorOrNil()
}

func questionProblems(q *Question) (problems []string) {
	if StripMarkup(q.Text) == "" {
		problems = append(problems, "question text is empty")
	}
	switch b := q.Body.(type) {
	case Choice:
		if !hasNonEmpty(b.Options) {
			problems = append(problems, "add at least one option")
			break
		}
		for k, o := range b.Options {
			if strings.TrimSpace(o) == "" {
				problems = append(problems, fmt.Sprintf("option %d is empty", k+1))
			}
		}
	case Scale:
		if !b.InRange() {
			problems = append(problems, errScaleRange)
		}
	}
	return
}

func listFormat(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
