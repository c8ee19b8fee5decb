package model

import (
	"io"
	"net/url"

	"github.com/ajg/form"
)

// ExpiryLayout is the submission format of the expiry timestamp.
const ExpiryLayout = "2006-01-02 15:04:05"

// Submission is the form post produced when a draft is submitted. Restriction
// lists are comma-joined; an empty string means unrestricted. Survey holds the
// JSON encoded Survey.
type Submission struct {
	Version                int    `form:"version,omitempty" json:"version,omitempty"`
	Title                  string `form:"title" json:"title"`
	Expiry                 string `form:"expiry" json:"expiry"`
	AllowedCourses         string `form:"allowed_courses" json:"allowedCourses"`
	AllowedGraduationDates string `form:"allowed_graduation_dates" json:"allowedGraduationDates"`
	Survey                 string `form:"survey" json:"survey"`
}

func (s Submission) Values() (url.Values, error) {
	return form.EncodeToValues(s)
}

func (s Submission) Encode() (string, error) {
	return form.EncodeToString(s)
}

func DecodeSubmission(r io.Reader) (sub Submission, err error) {
	err = form.NewDecoder(r).Decode(&sub)
	return
}
