package model

// Course is a selectable course restriction.
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GraduationDate is a selectable graduation cohort restriction.
type GraduationDate struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}
