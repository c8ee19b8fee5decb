package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/alumni-survey/app"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, httpx.RequestLogger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	root.
		With(middlewares.CookieAuth(app.BearerServer), middlewares.Admin(app.TokenSecret)).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Get(`/surveys/{id:^\d+$}`, PublicGetSurveyById(app))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(app.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(app))
		r.Get("/surveys", ListSurveys(app))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(app))
		r.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(app))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(app))

		// restriction options
		r.Get("/courses", ListCourses(app))
		r.Post("/courses", CreateCourse(app))
		r.Get("/graduation-dates", ListGraduationDates(app))
		r.Post("/graduation-dates", CreateGraduationDate(app))

		r.Mount("/drafts", draftRouter(app))
	})

	api.Post("/login", Login(app))
	api.Post("/refresh", Refresh(app))

	return api
}

func draftRouter(app app.App) http.Handler {
	r := chi.NewRouter()

	r.Post("/", CreateDraft(app))
	r.Route("/{draft}", func(r chi.Router) {
		r.Get("/", GetDraft(app))
		r.Delete("/", DeleteDraft(app))
		r.Put("/", EditDraft(app, "draft.update", UpdateDraftDetails))
		r.Put("/restrictions", EditDraft(app, "draft.restrictions", SetDraftRestrictions))
		r.Post("/moves", EditDraft(app, "draft.move_question", MoveDraftQuestion))
		r.Post("/submit", SubmitDraft(app))

		r.Post("/sections", EditDraft(app, "draft.add_section", AddDraftSection))
		r.Route(`/sections/{section:^\d+$}`, func(r chi.Router) {
			r.Put("/", EditDraft(app, "draft.rename_section", RenameDraftSection))
			r.Delete("/", EditDraft(app, "draft.delete_section", DeleteDraftSection))

			r.Post("/questions", EditDraft(app, "draft.insert_question", InsertDraftQuestion))
			r.Route(`/questions/{question:^\d+$}`, func(r chi.Router) {
				r.Delete("/", EditDraft(app, "draft.delete_question", DeleteDraftQuestion))
				r.Put("/type", EditDraft(app, "draft.set_type", SetDraftQuestionType))
				r.Put("/match", EditDraft(app, "draft.set_match_student", SetDraftMatchStudent))
				r.Put("/text", EditDraft(app, "draft.set_text", SetDraftQuestionText))
				r.Put("/required", EditDraft(app, "draft.set_required", SetDraftRequired))
				r.Put("/options", EditDraft(app, "draft.set_options", SetDraftOptions))
				r.Post("/options", EditDraft(app, "draft.add_option", AddDraftOption))
				r.Delete(`/options/{option:^\d+$}`, EditDraft(app, "draft.remove_option", RemoveDraftOption))
				r.Put("/scale", EditDraft(app, "draft.set_scale", SetDraftScale))
			})
		})
	})

	return r
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
