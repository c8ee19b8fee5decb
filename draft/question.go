package draft

import (
	"fmt"
	"strings"
)

type QuestionType int

const (
	ShortAnswer QuestionType = iota
	Paragraph
	MultipleChoice
	Checkbox
	Dropdown
	DatePicker
	LinearScale
)

// Server-facing labels. The table is fixed: stored surveys depend on it.
var typeLabels = [...]string{
	ShortAnswer:    "Short Answer",
	Paragraph:      "Paragraph",
	MultipleChoice: "Multiple Choice",
	Checkbox:       "Checkboxes",
	Dropdown:       "Dropdown",
	DatePicker:     "Date",
	LinearScale:    "Linear Scale",
}

func (t QuestionType) Valid() bool {
	return t >= ShortAnswer && t <= LinearScale
}

func (t QuestionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("QuestionType(%d)", int(t))
	}
	return typeLabels[t]
}

// HasOptions reports whether questions of this type carry a Choice body.
func (t QuestionType) HasOptions() bool {
	return t == MultipleChoice || t == Checkbox || t == Dropdown
}

// ParseType maps a server label back to its QuestionType.
func ParseType(label string) (QuestionType, error) {
	for t, l := range typeLabels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return QuestionType(t), nil
		}
	}
	return 0, fmt.Errorf("unknown question type %q", label)
}

type MatchStudent int

const (
	MatchNone MatchStudent = iota
	MatchName
	MatchStudentID
)

var matchLabels = [...]string{
	MatchNone:      "none",
	MatchName:      "name",
	MatchStudentID: "student_id",
}

func (m MatchStudent) String() string {
	if m < MatchNone || m > MatchStudentID {
		return fmt.Sprintf("MatchStudent(%d)", int(m))
	}
	return matchLabels[m]
}

// ParseMatchStudent accepts the wire labels; the empty string means none.
func ParseMatchStudent(s string) (MatchStudent, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return MatchNone, nil
	}
	for m, l := range matchLabels {
		if strings.EqualFold(l, s) {
			return MatchStudent(m), nil
		}
	}
	return MatchNone, fmt.Errorf("unknown match student value %q", s)
}

// Body holds the fields that only exist for some question types.
// ShortAnswer, Paragraph and DatePicker questions have a nil Body.
type Body interface {
	clone() Body
}

// Choice is the body of MultipleChoice, Checkbox and Dropdown questions.
type Choice struct {
	Options []string
}

func (c Choice) clone() Body {
	return Choice{Options: append([]string(nil), c.Options...)}
}

const (
	ScaleMin        = 1
	DefaultScaleMax = 5
	MaxScaleMax     = 10
)

// Scale is the body of LinearScale questions. A zero Max means unset.
type Scale struct {
	Max        int
	LabelLeft  string
	LabelRight string
}

func (s Scale) clone() Body {
	return s
}

// EffectiveMax returns Max, or the default when it was never set.
func (s Scale) EffectiveMax() int {
	if s.Max == 0 {
		return DefaultScaleMax
	}
	return s.Max
}

// InRange reports whether the scale ends between 2 and 10.
func (s Scale) InRange() bool {
	m := s.EffectiveMax()
	return m >= ScaleMin+1 && m <= MaxScaleMax
}

type Question struct {
	Type         QuestionType
	Text         string
	Required     bool
	MatchStudent MatchStudent
	Body         Body

	// RestrictionRequired is derived by the draft after every mutation.
	RestrictionRequired bool
}

// Options returns the option list of a Choice question, nil otherwise.
func (q *Question) Options() []string {
	if c, ok := q.Body.(Choice); ok {
		return c.Options
	}
	return nil
}

// Scale returns the scale body and whether the question has one.
func (q *Question) Scale() (Scale, bool) {
	s, ok := q.Body.(Scale)
	return s, ok
}

// Matching reports whether q correlates answers with a student record.
func (q *Question) Matching() bool {
	return q.Type == ShortAnswer && q.MatchStudent != MatchNone
}

func (q *Question) Clone() *Question {
	c := *q
	if q.Body != nil {
		c.Body = q.Body.clone()
	}
	return &c
}

// normalize fits the body to the type. Only short answers match students,
// and a matching question is always required.
func (q *Question) normalize() {
	switch {
	case q.Type.HasOptions():
		c, _ := q.Body.(Choice)
		if len(c.Options) == 0 {
			c.Options = []string{""}
		}
		q.Body = c
	case q.Type == LinearScale:
		s, _ := q.Body.(Scale)
		if s.Max == 0 {
			s.Max = DefaultScaleMax
		}
		q.Body = s
	default:
		q.Body = nil
	}
	if q.Type != ShortAnswer {
		q.MatchStudent = MatchNone
	}
	if q.MatchStudent != MatchNone {
		q.Required = true
	}
}

const DefaultMatchingText = "Please enter your full name"

// NewMatchingQuestion returns the question inserted when restrictions
// require a matching question and none exists.
func NewMatchingQuestion() *Question {
	return &Question{
		Type:                ShortAnswer,
		Text:                DefaultMatchingText,
		Required:            true,
		MatchStudent:        MatchName,
		RestrictionRequired: true,
	}
}

type Section struct {
	Title     string
	Questions []*Question
}

func (s *Section) clone() *Section {
	c := &Section{Title: s.Title, Questions: make([]*Question, len(s.Questions))}
	for i, q := range s.Questions {
		c.Questions[i] = q.Clone()
	}
	return c
}
