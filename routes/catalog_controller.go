package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/mbolis/alumni-survey/app"
	"github.com/mbolis/alumni-survey/database"
	"github.com/mbolis/alumni-survey/draft"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/log"
	"github.com/mbolis/alumni-survey/model"
)

// catalog ids are stored comma-joined on surveys
func validCatalogID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != draft.NoRestriction && !strings.Contains(id, ",")
}

func ListCourses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := database.ListCourses(r.Context(), app.DB)
		if err != nil {
			httpx.LogInternalError(w, "db.get_courses", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"courses": courses,
		})
	}
}

func CreateCourse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		course := model.Course{}
		err := render.DecodeJSON(r.Body, &course)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if !validCatalogID(course.ID) || strings.TrimSpace(course.Name) == "" {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "course.invalid", "invalid course %q", course.ID)
			return
		}
		course.ID = strings.TrimSpace(course.ID)

		err = database.InsertCourse(r.Context(), app.DB, course)
		if errors.Is(err, database.ErrDuplicate) {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.insert_course.duplicate")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_course", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, course)
	}
}

func ListGraduationDates(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := database.ListGraduationDates(r.Context(), app.DB)
		if err != nil {
			httpx.LogInternalError(w, "db.get_graduation_dates", err)
			return
		}
		render.JSON(w, r, map[string]any{
			"graduationDates": dates,
		})
	}
}

func CreateGraduationDate(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := model.GraduationDate{}
		err := render.DecodeJSON(r.Body, &date)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if !validCatalogID(date.ID) || strings.TrimSpace(date.Label) == "" {
			httpx.LogStatusMsg(w, http.StatusUnprocessableEntity, log.DebugLevel, "graduation_date.invalid", "invalid graduation date %q", date.ID)
			return
		}
		date.ID = strings.TrimSpace(date.ID)

		err = database.InsertGraduationDate(r.Context(), app.DB, date)
		if errors.Is(err, database.ErrDuplicate) {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.insert_graduation_date.duplicate")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.insert_graduation_date", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, date)
	}
}
