package routes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/alumni-survey/app"
	"github.com/mbolis/alumni-survey/database"
	"github.com/mbolis/alumni-survey/draft"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/log"
	"github.com/mbolis/alumni-survey/model"
)

// readSubmission decodes a form-posted submission and runs it through the
// draft model, so stored surveys always hold the invariants and pass
// validation.
func readSubmission(r *http.Request) (model.Submission, error) {
	posted, err := model.DecodeSubmission(r.Body)
	if err != nil {
		return posted, &badRequest{err}
	}
	d, err := draft.FromSubmission(posted)
	if err != nil {
		return posted, &draft.ValidationError{Section: -1, Question: -1, Msg: err.Error()}
	}
	sub, err := d.Submission()
	if err != nil {
		return posted, err
	}
	sub.Version = posted.Version
	return sub, nil
}

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := readSubmission(r)
		if err != nil {
			draftError(w, r, "survey.create", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		surveyId, err := database.InsertSurvey(r.Context(), tx, sub)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey.commit", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":      surveyId,
			"version": 1,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := database.ListSurveys(r.Context(), app.DB)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
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

		render.JSON(w, r, sub)
	}
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		sub, err := readSubmission(r)
		if err != nil {
			draftError(w, r, "survey.update", err)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		version, err := database.UpdateSurvey(r.Context(), tx, surveyId, sub)
		if err != nil {
			draftError(w, r, "db.update_survey", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.commit", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":      surveyId,
			"version": version,
		})
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		err = database.DeleteSurvey(r.Context(), app.DB, surveyId)
		if err != nil {
			draftError(w, r, "db.delete_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
