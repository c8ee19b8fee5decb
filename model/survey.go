package model

// Survey is the wire format exchanged with the editor: the survey body
// without scheduling or eligibility.
type Survey struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Sections    []Section `json:"sections"`
}

type Section struct {
	SecTitle  string     `json:"secTitle"`
	Questions []Question `json:"questions"`
}

// Question carries Options only for option-based types and the Scale*
// fields only for linear scales.
type Question struct {
	Type                  string   `json:"type"`
	Text                  string   `json:"text"`
	Required              bool     `json:"required"`
	MatchStudent          string   `json:"matchStudent"`
	Options               []string `json:"options,omitempty"`
	ScaleMin              *int     `json:"scaleMin,omitempty"`
	ScaleMax              *int     `json:"scaleMax,omitempty"`
	ScaleLabelLeft        *string  `json:"scaleLabelLeft,omitempty"`
	ScaleLabelRight       *string  `json:"scaleLabelRight,omitempty"`
	IsRestrictionRequired bool     `json:"isRestrictionRequired"`
}

// Draft is the state of an editing session. Unlike a Submission it may be
// incomplete.
type Draft struct {
	Survey
	Expiry                 string   `json:"expiry,omitempty"`
	AllowedCourses         []string `json:"allowedCourses"`
	AllowedGraduationDates []string `json:"allowedGraduationDates"`
	ActiveSection          int      `json:"activeSection"`
}

// SurveyInfo is a row of the survey list.
type SurveyInfo struct {
	ID      int    `json:"id"`
	Version int    `json:"version"`
	Title   string `json:"title"`
	Expiry  string `json:"expiry,omitempty"`
}
