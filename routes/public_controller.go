package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	json "github.com/goccy/go-json"
	"github.com/mbolis/alumni-survey/app"
	"github.com/mbolis/alumni-survey/database"
	"github.com/mbolis/alumni-survey/draft"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/log"
	"github.com/mbolis/alumni-survey/model"
)

// publicSurvey is what respondents see of a stored survey.
type publicSurvey struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Expiry      string          `json:"expiry,omitempty"`
	Sections    []publicSection `json:"sections"`
}

type publicSection struct {
	SecTitle  string           `json:"secTitle"`
	Questions []publicQuestion `json:"questions"`
}

type publicQuestion struct {
	Type            string   `json:"type"`
	Text            string   `json:"text"`
	Required        bool     `json:"required"`
	MatchStudent    string   `json:"matchStudent"`
	Options         []string `json:"options,omitempty"`
	ScaleMin        *int     `json:"scaleMin,omitempty"`
	ScaleMax        *int     `json:"scaleMax,omitempty"`
	ScaleLabelLeft  *string  `json:"scaleLabelLeft,omitempty"`
	ScaleLabelRight *string  `json:"scaleLabelRight,omitempty"`
}

func publicView(s model.Survey, expiry string) publicSurvey {
	view := publicSurvey{
		Title:       s.Title,
		Description: s.Description,
		Expiry:      expiry,
		Sections:    make([]publicSection, len(s.Sections)),
	}
	for i, sec := range s.Sections {
		qs := make([]publicQuestion, len(sec.Questions))
		for j, q := range sec.Questions {
			qs[j] = publicQuestion{
				Type:            q.Type,
				Text:            q.Text,
				Required:        q.Required,
				MatchStudent:    q.MatchStudent,
				Options:         q.Options,
				ScaleMin:        q.ScaleMin,
				ScaleMax:        q.ScaleMax,
				ScaleLabelLeft:  q.ScaleLabelLeft,
				ScaleLabelRight: q.ScaleLabelRight,
			}
		}
		view.Sections[i] = publicSection{SecTitle: sec.SecTitle, Questions: qs}
	}
	return view
}

// PublicGetSurveyById serves a stored survey to respondents, without the
// editor-only fields. Expired surveys are gone.
func PublicGetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		sub, err := database.GetSurvey(r.Context(), app.DB, surveyId)
		if err != nil {
			draftError(w, r, "db.get_survey", err)
			return
		}

		expiry, err := draft.ParseExpiry(sub.Expiry)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey.expiry", err)
			return
		}
		if expiry != nil && expiry.Before(time.Now()) {
			httpx.LogStatus(w, http.StatusGone, log.DebugLevel, "get_survey.expired")
			return
		}

		var survey model.Survey
		if err = json.Unmarshal([]byte(sub.Survey), &survey); err != nil {
			httpx.LogInternalError(w, "db.get_survey.parse", err)
			return
		}
		if survey.Title == "" {
			survey.Title = sub.Title
		}

		render.JSON(w, r, publicView(survey, sub.Expiry))
	}
}
