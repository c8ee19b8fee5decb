package draft

import (
	"errors"
)

// HasMatchingQuestion reports whether any question correlates answers
// with a student name or id.
func HasMatchingQuestion(sections []*Section) bool {
	for _, s := range sections {
		for _, q := range s.Questions {
			if q.Matching() {
				return true
			}
		}
	}
	return false
}

func RestrictionsActive(courses, dates Restriction) bool {
	return courses.Active() || dates.Active()
}

type Enforcement int

const (
	// EnforceKeep: restrictions are active and satisfied.
	EnforceKeep Enforcement = iota
	// EnforceInsert: insert the default matching question at section 0, index 0.
	EnforceInsert
	// EnforceClear: no restriction is active, clear every RestrictionRequired flag.
	EnforceClear
)

func (e Enforcement) String() string {
	switch e {
	case EnforceKeep:
		return "keep"
	case EnforceInsert:
		return "insert"
	case EnforceClear:
		return "clear"
	}
	return "unknown"
}

// Enforce decides what the tree needs to satisfy the restriction invariant.
// It does not modify anything.
func Enforce(sections []*Section, courses, dates Restriction) Enforcement {
	if !RestrictionsActive(courses, dates) {
		return EnforceClear
	}
	if !HasMatchingQuestion(sections) {
		return EnforceInsert
	}
	return EnforceKeep
}

// DefaultSectionTitle names the section created when the default matching
// question has nowhere to go.
const DefaultSectionTitle = "Section 1"

// refresh applies Enforce and recomputes the RestrictionRequired view.
// It reports whether the default matching question was inserted.
func (d *Draft) refresh() bool {
	inserted := false
	switch Enforce(d.sections, d.courses, d.dates) {
	case EnforceClear:
		for _, s := range d.sections {
			for _, q := range s.Questions {
				q.RestrictionRequired = false
			}
		}
		return false
	case EnforceInsert:
		if len(d.sections) == 0 {
			d.sections = append(d.sections, &Section{Title: DefaultSectionTitle})
			d.active = 0
		}
		q := NewMatchingQuestion()
		first := d.sections[0]
		first.Questions = append([]*Question{q}, first.Questions...)
		d.marks.MarkChanged(q)
		inserted = true
	}

	// The flagged question keeps its flag while it still matches.
	var keep *Question
	for _, s := range d.sections {
		for _, q := range s.Questions {
			if keep == nil && q.RestrictionRequired && q.Matching() {
				keep = q
			}
		}
	}
	for _, s := range d.sections {
		for _, q := range s.Questions {
			if keep == nil && q.Matching() {
				keep = q
			}
			q.RestrictionRequired = q == keep
		}
	}
	return inserted
}

// guard refuses an unconfirmed mutation that would leave no matching
// question while restrictions are active. gone reports the questions the
// mutation removes or demotes.
func (d *Draft) guard(op string, s, i int, confirmed bool, gone func(*Question) bool) error {
	if confirmed || !d.RestrictionsActive() {
		return nil
	}
	for _, sec := range d.sections {
		for _, q := range sec.Questions {
			if q.Matching() && !gone(q) {
				return nil
			}
		}
	}
	return &GuardError{Op: op, Section: s, Question: i}
}

// WithConfirmation runs op unconfirmed and, when the guard refuses it,
// asks once and re-runs it confirmed. A nil ask, or a declined one,
// returns the guard error with the draft untouched.
func WithConfirmation(ask func(*GuardError) bool, op func(confirmed bool) (Result, error)) (Result, error) {
	res, err := op(false)
	var ge *GuardError
	if !errors.As(err, &ge) || ask == nil || !ask(ge) {
		return res, err
	}
	return op(true)
}
