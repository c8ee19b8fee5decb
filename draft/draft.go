// Package draft holds the in-memory survey being edited: an ordered tree of
// sections and questions that keeps the matching-student invariants true
// after every mutation.
//
// A Draft is not safe for concurrent use.
package draft

import (
	"strings"
	"time"
)

type Draft struct {
	Title       string
	Description string
	Expiry      *time.Time

	courses  Restriction
	dates    Restriction
	sections []*Section
	active   int
	marks    *Highlights
}

type Position struct {
	Section  int
	Question int
}

// Result describes side effects of a mutation.
type Result struct {
	// AutoInserted is set when the default matching question was added
	// at section 0, index 0.
	AutoInserted bool
}

// New returns an empty, unrestricted draft.
func New() *Draft {
	return &Draft{
		courses: Restriction{NoRestriction},
		dates:   Restriction{NoRestriction},
		active:  -1,
		marks:   NewHighlights(),
	}
}

func (d *Draft) Courses() Restriction         { return append(Restriction(nil), d.courses...) }
func (d *Draft) GraduationDates() Restriction { return append(Restriction(nil), d.dates...) }

func (d *Draft) RestrictionsActive() bool {
	return RestrictionsActive(d.courses, d.dates)
}

func (d *Draft) HasMatchingQuestion() bool {
	return HasMatchingQuestion(d.sections)
}

// Sections returns a deep copy of the tree.
func (d *Draft) Sections() []*Section {
	out := make([]*Section, len(d.sections))
	for i, s := range d.sections {
		out[i] = s.clone()
	}
	return out
}

func (d *Draft) Len() int { return len(d.sections) }

func (d *Draft) Section(index int) (*Section, error) {
	s, err := d.section(index)
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

func (d *Draft) Question(s, i int) (*Question, error) {
	q, err := d.question(s, i)
	if err != nil {
		return nil, err
	}
	return q.Clone(), nil
}

// ActiveSection returns the index of the section being edited, or -1.
func (d *Draft) ActiveSection() int { return d.active }

func (d *Draft) SetActiveSection(index int) error {
	if _, err := d.section(index); err != nil {
		return err
	}
	d.active = index
	return nil
}

func (d *Draft) Highlights() *Highlights { return d.marks }

// IsMarked reports whether the question at (s, i) changed since the last save.
func (d *Draft) IsMarked(s, i int) bool {
	q, err := d.question(s, i)
	return err == nil && d.marks.IsMarked(q)
}

func (d *Draft) section(index int) (*Section, error) {
	if index < 0 || index >= len(d.sections) {
		return nil, &IndexError{Section: index, Question: -1}
	}
	return d.sections[index], nil
}

func (d *Draft) question(s, i int) (*Question, error) {
	sec, err := d.section(s)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(sec.Questions) {
		return nil, &IndexError{Section: s, Question: i}
	}
	return sec.Questions[i], nil
}

func (d *Draft) AddSection(title string) (int, error) {
	if strings.TrimSpace(title) == "" {
		return -1, invalid("section title is empty")
	}
	d.sections = append(d.sections, &Section{Title: title})
	d.active = len(d.sections) - 1
	return d.active, nil
}

// RenameSection accepts any title; blank ones are rejected on submit.
func (d *Draft) RenameSection(index int, title string) error {
	s, err := d.section(index)
	if err != nil {
		return err
	}
	s.Title = title
	return nil
}

func (d *Draft) DeleteSection(index int, confirmed bool) (Result, error) {
	sec, err := d.section(index)
	if err != nil {
		return Result{}, err
	}
	removed := make(map[*Question]bool, len(sec.Questions))
	for _, q := range sec.Questions {
		removed[q] = true
	}
	err = d.guard("delete section", index, -1, confirmed, func(q *Question) bool { return removed[q] })
	if err != nil {
		return Result{}, err
	}

	d.sections = append(d.sections[:index], d.sections[index+1:]...)
	switch {
	case d.active == index:
		d.active = index
		if d.active > len(d.sections)-1 {
			d.active = len(d.sections) - 1
		}
	case d.active > index:
		d.active--
	}
	return Result{AutoInserted: d.refresh()}, nil
}

// MoveQuestion relocates a question. toIndex is the position in the target
// section after the question has left its origin.
func (d *Draft) MoveQuestion(fromSection, fromIndex, toSection, toIndex int) (Position, error) {
	q, err := d.question(fromSection, fromIndex)
	if err != nil {
		return Position{}, err
	}
	dst, err := d.section(toSection)
	if err != nil {
		return Position{}, err
	}
	limit := len(dst.Questions)
	if fromSection == toSection {
		limit--
	}
	if toIndex < 0 || toIndex > limit {
		return Position{}, &IndexError{Section: toSection, Question: toIndex}
	}
	if fromSection == toSection && fromIndex == toIndex {
		return Position{Section: toSection, Question: toIndex}, nil
	}

	src := d.sections[fromSection]
	src.Questions = append(src.Questions[:fromIndex], src.Questions[fromIndex+1:]...)
	dst.Questions = insertAt(dst.Questions, toIndex, q)
	d.refresh()
	return Position{Section: toSection, Question: toIndex}, nil
}

// ReorderQuestion moves a question within its own section.
func (d *Draft) ReorderQuestion(section, fromIndex, toIndex int) (Position, error) {
	return d.MoveQuestion(section, fromIndex, section, toIndex)
}

// InsertQuestion stores a copy of q at (section, at); at may equal the
// section length to append.
func (d *Draft) InsertQuestion(section, at int, q *Question) (Position, error) {
	sec, err := d.section(section)
	if err != nil {
		return Position{}, err
	}
	if at < 0 || at > len(sec.Questions) {
		return Position{}, &IndexError{Section: section, Question: at}
	}
	if q == nil {
		return Position{}, invalidAt(section, at, "question is empty")
	}
	if !q.Type.Valid() {
		return Position{}, invalidAt(section, at, "unknown question type")
	}
	if q.MatchStudent < MatchNone || q.MatchStudent > MatchStudentID {
		return Position{}, invalidAt(section, at, "unknown match student value")
	}
	if q.MatchStudent != MatchNone && q.Type != ShortAnswer {
		return Position{}, invalidAt(section, at, "only short answer questions can match students")
	}
	if StripMarkup(q.Text) == "" {
		return Position{}, invalidAt(section, at, "question text is empty")
	}
	if q.Type.HasOptions() && !hasNonEmpty(q.Options()) {
		return Position{}, invalidAt(section, at, "add at least one option")
	}
	if sc, ok := q.Scale(); ok && q.Type == LinearScale && !sc.InRange() {
		return Position{}, invalidAt(section, at, errScaleRange)
	}

	c := q.Clone()
	c.RestrictionRequired = false
	c.normalize()
	sec.Questions = insertAt(sec.Questions, at, c)
	d.marks.MarkChanged(c)
	d.refresh()
	return Position{Section: section, Question: at}, nil
}

func (d *Draft) DeleteQuestion(section, index int, confirmed bool) (Result, error) {
	q, err := d.question(section, index)
	if err != nil {
		return Result{}, err
	}
	err = d.guard("delete question", section, index, confirmed, func(x *Question) bool { return x == q })
	if err != nil {
		return Result{}, err
	}

	sec := d.sections[section]
	sec.Questions = append(sec.Questions[:index], sec.Questions[index+1:]...)
	return Result{AutoInserted: d.refresh()}, nil
}

func bodyKind(t QuestionType) int {
	switch {
	case t.HasOptions():
		return 1
	case t == LinearScale:
		return 2
	}
	return 0
}

// SetQuestionType keeps the body when moving between option types and
// resets it otherwise. Leaving ShortAnswer drops the student matching.
func (d *Draft) SetQuestionType(section, index int, t QuestionType, confirmed bool) (Result, error) {
	if !t.Valid() {
		return Result{}, invalidAt(section, index, "unknown question type")
	}
	q, err := d.question(section, index)
	if err != nil {
		return Result{}, err
	}
	if q.Type == t {
		return Result{}, nil
	}
	if q.Matching() && t != ShortAnswer {
		err = d.guard("change question type", section, index, confirmed, func(x *Question) bool { return x == q })
		if err != nil {
			return Result{}, err
		}
	}

	if bodyKind(q.Type) != bodyKind(t) {
		q.Body = nil
	}
	q.Type = t
	q.normalize()
	d.marks.MarkChanged(q)
	return Result{AutoInserted: d.refresh()}, nil
}

func (d *Draft) SetMatchStudent(section, index int, v MatchStudent, confirmed bool) (Result, error) {
	if v < MatchNone || v > MatchStudentID {
		return Result{}, invalidAt(section, index, "unknown match student value")
	}
	q, err := d.question(section, index)
	if err != nil {
		return Result{}, err
	}
	if v != MatchNone && q.Type != ShortAnswer {
		return Result{}, invalidAt(section, index, "only short answer questions can match students")
	}
	if q.MatchStudent == v {
		return Result{}, nil
	}
	if v == MatchNone && q.Matching() {
		err = d.guard("stop matching students", section, index, confirmed, func(x *Question) bool { return x == q })
		if err != nil {
			return Result{}, err
		}
	}

	q.MatchStudent = v
	q.normalize()
	d.marks.MarkChanged(q)
	return Result{AutoInserted: d.refresh()}, nil
}

// SetRestrictions never asks for confirmation: tightening restrictions
// only ever adds a question.
func (d *Draft) SetRestrictions(courses, dates Restriction) Result {
	d.courses = NewRestriction(courses...)
	d.dates = NewRestriction(dates...)
	return Result{AutoInserted: d.refresh()}
}

// SetQuestionText takes the editor's HTML as is; empty text is reported on submit.
func (d *Draft) SetQuestionText(section, index int, text string) error {
	q, err := d.question(section, index)
	if err != nil {
		return err
	}
	q.Text = text
	d.marks.MarkChanged(q)
	return nil
}

func (d *Draft) SetRequired(section, index int, required bool) error {
	q, err := d.question(section, index)
	if err != nil {
		return err
	}
	if !required && q.MatchStudent != MatchNone {
		return invalidAt(section, index, "a question matching students must stay required")
	}
	q.Required = required
	return nil
}

func (d *Draft) choice(section, index int) (*Question, Choice, error) {
	q, err := d.question(section, index)
	if err != nil {
		return nil, Choice{}, err
	}
	c, ok := q.Body.(Choice)
	if !ok {
		return nil, Choice{}, invalidAt(section, index, q.Type.String()+" questions have no options")
	}
	return q, c, nil
}

// SetOptions replaces the option rows; blank rows are kept until submit.
func (d *Draft) SetOptions(section, index int, options []string) error {
	q, _, err := d.choice(section, index)
	if err != nil {
		return err
	}
	q.Body = Choice{Options: append([]string(nil), options...)}
	q.normalize()
	d.marks.MarkChanged(q)
	return nil
}

// AddOption appends a blank option row and returns its index.
func (d *Draft) AddOption(section, index int) (int, error) {
	q, c, err := d.choice(section, index)
	if err != nil {
		return -1, err
	}
	c.Options = append(c.Options, "")
	q.Body = c
	d.marks.MarkChanged(q)
	return len(c.Options) - 1, nil
}

// RemoveOption deletes one row; the last row is blanked instead.
func (d *Draft) RemoveOption(section, index, option int) error {
	q, c, err := d.choice(section, index)
	if err != nil {
		return err
	}
	if option < 0 || option >= len(c.Options) {
		return &IndexError{Section: section, Question: index}
	}
	opts := append([]string(nil), c.Options[:option]...)
	opts = append(opts, c.Options[option+1:]...)
	q.Body = Choice{Options: opts}
	q.normalize()
	d.marks.MarkChanged(q)
	return nil
}

func (d *Draft) SetScale(section, index, scaleMax int, labelLeft, labelRight string) error {
	q, err := d.question(section, index)
	if err != nil {
		return err
	}
	if _, ok := q.Body.(Scale); !ok {
		return invalidAt(section, index, q.Type.String()+" questions have no scale")
	}
	sc := Scale{Max: scaleMax, LabelLeft: labelLeft, LabelRight: labelRight}
	if scaleMax == 0 || !sc.InRange() {
		return invalidAt(section, index, errScaleRange)
	}
	q.Body = sc
	d.marks.MarkChanged(q)
	return nil
}

func insertAt(qs []*Question, at int, q *Question) []*Question {
	qs = append(qs, nil)
	copy(qs[at+1:], qs[at:])
	qs[at] = q
	return qs
}

func hasNonEmpty(opts []string) bool {
	for _, o := range opts {
		if strings.TrimSpace(o) != "" {
			return true
		}
	}
	return false
}
