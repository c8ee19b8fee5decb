package routes

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/alumni-survey/app"
	"github.com/mbolis/alumni-survey/database"
	"github.com/mbolis/alumni-survey/draft"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/log"
	"github.com/mbolis/alumni-survey/model"
	"github.com/mbolis/alumni-survey/session"
)

type position struct {
	Section  int `json:"section"`
	Question int `json:"question"`
}

// draftView is what every draft endpoint answers with.
type draftView struct {
	ID       string `json:"id"`
	SurveyID int    `json:"surveyId,omitempty"`
	Version  int    `json:"version,omitempty"`
	model.Draft
	Marked       []position `json:"marked"`
	AutoInserted bool       `json:"autoInserted,omitempty"`
	Position     *position  `json:"position,omitempty"`
}

func viewOf(s *session.Session) draftView {
	v := draftView{
		ID:       s.ID,
		SurveyID: s.SurveyID,
		Version:  s.Version,
		Draft:    s.Draft.Snapshot(),
		Marked:   []position{},
	}
	for i := 0; i < s.Draft.Len(); i++ {
		sec, _ := s.Draft.Section(i)
		for j := range sec.Questions {
			if s.Draft.IsMarked(i, j) {
				v.Marked = append(v.Marked, position{i, j})
			}
		}
	}
	return v
}

type outcome struct {
	draft.Result
	Position *position
}

func at(p draft.Position) outcome {
	return outcome{Position: &position{p.Section, p.Question}}
}

type editFunc func(r *http.Request, s *session.Session) (outcome, error)

// badRequest marks errors caused by an unreadable request.
type badRequest struct{ err error }

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

func decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return &badRequest{err}
	}
	return nil
}

func intParam(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, &badRequest{err}
	}
	return n, nil
}

func sectionParams(r *http.Request) (s int, err error) {
	return intParam(r, "section")
}

func questionParams(r *http.Request) (s, q int, err error) {
	if s, err = intParam(r, "section"); err != nil {
		return
	}
	q, err = intParam(r, "question")
	return
}

func confirmed(r *http.Request) bool {
	ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	return ok
}

// draftError answers with the status matching err.
func draftError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var guard *draft.GuardError
	var bad *badRequest
	switch {
	case errors.As(err, &bad):
		httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, code+".request", "%s", bad)
	case errors.Is(err, session.ErrNotFound):
		httpx.LogNotFound(w, code+".session", chi.URLParam(r, "draft"))
	case errors.As(err, &guard):
		httpx.LogStatusJSON(w, r, http.StatusConflict, log.DebugLevel, code+".guard", map[string]any{
			"confirm":  guard.Error(),
			"section":  guard.Section,
			"question": guard.Question,
		})
	case errors.Is(err, draft.ErrIndex):
		httpx.LogNotFound(w, code+".index", err)
	case errors.Is(err, draft.ErrValidation):
		httpx.LogStatusJSON(w, r, http.StatusUnprocessableEntity, log.DebugLevel, code+".invalid", map[string]any{
			"errors": problems(err),
		})
	case errors.Is(err, database.ErrConflict):
		httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, code+".conflict")
	case errors.Is(err, database.ErrNotFound):
		httpx.LogNotFound(w, code+".survey", err)
	default:
		httpx.LogInternalError(w, code, err)
	}
}

func problems(err error) []string {
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return []string{err.Error()}
	}
	msgs := make([]string, len(merr.Errors))
	for i, e := range merr.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// EditDraft runs edit on the draft named in the URL, holding the session
// for the whole call, and answers with the updated draft.
func EditDraft(app app.App, code string, edit editFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var view draftView
		err := app.Sessions.Update(r.Context(), chi.URLParam(r, "draft"), func(s *session.Session) error {
			out, err := edit(r, s)
			if err != nil {
				return err
			}
			view = viewOf(s)
			view.AutoInserted = out.AutoInserted
			view.Position = out.Position
			return nil
		})
		if err != nil {
			draftError(w, r, code, err)
			return
		}

		log.WithFields(log.Fields{"draft": view.ID, "autoInserted": view.AutoInserted}).Debug(code)
		render.JSON(w, r, view)
	}
}

func CreateDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			SurveyID int `json:"surveyId"`
		}
		// the body is optional
		if err := decode(r, &body); err != nil && !errors.Is(err, io.EOF) {
			draftError(w, r, "draft.create", err)
			return
		}

		d := draft.New()
		var version int
		if body.SurveyID != 0 {
			sub, err := database.GetSurvey(r.Context(), app.DB, body.SurveyID)
			if err != nil {
				draftError(w, r, "draft.create.load", err)
				return
			}
			if d, err = draft.FromSubmission(sub); err != nil {
				httpx.LogInternalError(w, "draft.create.hydrate", err)
				return
			}
			version = sub.Version
		}

		s, err := session.New(d)
		if err != nil {
			httpx.LogInternalError(w, "draft.create.session_id", err)
			return
		}
		s.SurveyID, s.Version = body.SurveyID, version
		if err = app.Sessions.Create(r.Context(), s); err != nil {
			httpx.LogInternalError(w, "draft.create.store", err)
			return
		}

		log.WithFields(log.Fields{"draft": s.ID, "survey": s.SurveyID}).Info("draft created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, viewOf(s))
	}
}

func GetDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var view draftView
		err := app.Sessions.View(r.Context(), chi.URLParam(r, "draft"), func(s *session.Session) error {
			view = viewOf(s)
			return nil
		})
		if err != nil {
			draftError(w, r, "draft.get", err)
			return
		}
		render.JSON(w, r, view)
	}
}

func DeleteDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := app.Sessions.Delete(r.Context(), chi.URLParam(r, "draft")); err != nil {
			draftError(w, r, "draft.delete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func UpdateDraftDetails(r *http.Request, s *session.Session) (outcome, error) {
	var body struct {
		Title         *string `json:"title"`
		Description   *string `json:"description"`
		Expiry        *string `json:"expiry"`
		ActiveSection *int    `json:"activeSection"`
	}
	if err := decode(r, &body); err != nil {
		return outcome{}, err
	}

	d := s.Draft
	expiry := d.Expiry
	if body.Expiry != nil {
		var err error
		if expiry, err = draft.ParseExpiry(*body.Expiry); err != nil {
			return outcome{}, &draft.ValidationError{Section: -1, Question: -1, Msg: err.Error()}
		}
	}
	if body.ActiveSection != nil {
		if err := d.SetActiveSection(*body.ActiveSection); err != nil {
			return outcome{}, err
		}
	}
	d.Expiry = expiry
	if body.Title != nil {
		d.Title = *body.Title
	}
	if body.Description != nil {
		d.Description = *body.Description
	}
	return outcome{}, nil
}

func SetDraftRestrictions(r *http.Request, s *session.Session) (outcome, error) {
	var body struct {
		Courses         []string `json:"courses"`
		GraduationDates []string `json:"graduationDates"`
	}
	if err := decode(r, &body); err != nil {
		return outcome{}, err
	}
	res := s.Draft.SetRestrictions(draft.NewRestriction(body.Courses...), draft.NewRestriction(body.GraduationDates...))
	return outcome{Result: res}, nil
}

type titleBody struct {
	Title string `json:"title"`
}

func AddDraftSection(r *http.Request, s *session.Session) (outcome, error) {
	var body titleBody
	if err := decode(r, &body); err != nil {
		return outcome{}, err
	}
	i, err := s.Draft.AddSection(body.Title)
	if err != nil {
		return outcome{}, err
	}
	return outcome{Position: &position{i, -1}}, nil
}

func RenameDraftSection(r *http.Request, s *session.Session) (outcome, error) {
	sec, err := sectionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body titleBody
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}
	return outcome{}, s.Draft.RenameSection(sec, body.Title)
}

func DeleteDraftSection(r *http.Request, s *session.Session) (outcome, error) {
	sec, err := sectionParams(r)
	if err != nil {
		return outcome{}, err
	}
	res, err := s.Draft.DeleteSection(sec, confirmed(r))
	return outcome{Result: res}, err
}

func InsertDraftQuestion(r *http.Request, s *session.Session) (outcome, error) {
	sec, err := sectionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body struct {
		// At defaults to the end of the section.
		At *int `json:"at"`
		model.Question
	}
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}

	q, err := draft.QuestionFromWire(body.Question)
	if err != nil {
		return outcome{}, &draft.ValidationError{Section: sec, Question: -1, Msg: err.Error()}
	}
	// the engine owns the flag
	q.RestrictionRequired = false

	index := -1
	if body.At != nil {
		index = *body.At
	} else if target, err := s.Draft.Section(sec); err == nil {
		index = len(target.Questions)
	}
	pos, err := s.Draft.InsertQuestion(sec, index, q)
	if err != nil {
		return outcome{}, err
	}
	return at(pos), nil
}

func DeleteDraftQuestion(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	res, err := s.Draft.DeleteQuestion(sec, q, confirmed(r))
	return outcome{Result: res}, err
}

func SetDraftQuestionType(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body struct {
		Type string `json:"type"`
	}
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}
	t, err := draft.ParseType(body.Type)
	if err != nil {
		return outcome{}, &draft.ValidationError{Section: sec, Question: q, Msg: err.Error()}
	}
	res, err := s.Draft.SetQuestionType(sec, q, t, confirmed(r))
	return outcome{Result: res}, err
}

func SetDraftMatchStudent(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body struct {
		MatchStudent string `json:"matchStudent"`
	}
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}
	m, err := draft.ParseMatchStudent(body.MatchStudent)
	if err != nil {
		return outcome{}, &draft.ValidationError{Section: sec, Question: q, Msg: err.Error()}
	}
	res, err := s.Draft.SetMatchStudent(sec, q, m, confirmed(r))
	return outcome{Result: res}, err
}

func SetDraftQuestionText(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body struct {
		Text string `json:"text"`
	}
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}
	return outcome{}, s.Draft.SetQuestionText(sec, q, body.Text)
}

func SetDraftRequired(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body struct {
		Required bool `json:"required"`
	}
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}
	return outcome{}, s.Draft.SetRequired(sec, q, body.Required)
}

func SetDraftOptions(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body struct {
		Options []string `json:"options"`
	}
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}
	return outcome{}, s.Draft.SetOptions(sec, q, body.Options)
}

func AddDraftOption(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	_, err = s.Draft.AddOption(sec, q)
	return outcome{}, err
}

func RemoveDraftOption(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	opt, err := intParam(r, "option")
	if err != nil {
		return outcome{}, err
	}
	return outcome{}, s.Draft.RemoveOption(sec, q, opt)
}

func SetDraftScale(r *http.Request, s *session.Session) (outcome, error) {
	sec, q, err := questionParams(r)
	if err != nil {
		return outcome{}, err
	}
	var body struct {
		ScaleMax        int    `json:"scaleMax"`
		ScaleLabelLeft  string `json:"scaleLabelLeft"`
		ScaleLabelRight string `json:"scaleLabelRight"`
	}
	if err = decode(r, &body); err != nil {
		return outcome{}, err
	}
	return outcome{}, s.Draft.SetScale(sec, q, body.ScaleMax, body.ScaleLabelLeft, body.ScaleLabelRight)
}

func MoveDraftQuestion(r *http.Request, s *session.Session) (outcome, error) {
	var body struct {
		FromSection int `json:"fromSection"`
		FromIndex   int `json:"fromIndex"`
		ToSection   int `json:"toSection"`
		ToIndex     int `json:"toIndex"`
	}
	if err := decode(r, &body); err != nil {
		return outcome{}, err
	}
	pos, err := s.Draft.MoveQuestion(body.FromSection, body.FromIndex, body.ToSection, body.ToIndex)
	if err != nil {
		return outcome{}, err
	}
	return at(pos), nil
}

// SubmitDraft validates the draft and stores it, as a new survey or over
// the one it was loaded from. Highlights are cleared once stored, unless the
// draft changed while it was being written.
func SubmitDraft(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		draftId := chi.URLParam(r, "draft")

		var (
			sub               model.Submission
			surveyId, version int
		)
		err := app.Sessions.View(r.Context(), draftId, func(s *session.Session) (err error) {
			sub, err = s.Draft.Submission()
			surveyId, version = s.SurveyID, s.Version
			return
		})
		if err != nil {
			draftError(w, r, "draft.submit", err)
			return
		}

		surveyId, version, err = storeDraft(r.Context(), app.DB, draftId, surveyId, version, sub)
		if err != nil {
			draftError(w, r, "draft.submit.store", err)
			return
		}

		// may run more than once: only session state is touched here
		var view draftView
		err = app.Sessions.Update(r.Context(), draftId, func(s *session.Session) error {
			s.SurveyID, s.Version = surveyId, version
			if current, err := s.Draft.Submission(); err == nil && current == sub {
				s.Draft.Highlights().ClearAllMarks()
			}
			view = viewOf(s)
			return nil
		})
		if err != nil {
			draftError(w, r, "draft.submit.record", err)
			return
		}

		log.WithFields(log.Fields{"draft": draftId, "survey": surveyId, "version": version}).Info("draft submitted")
		render.JSON(w, r, view)
	}
}

// storeDraft writes sub in one transaction. A draft that lost track of the
// survey it created updates that survey instead of inserting a second one.
func storeDraft(ctx context.Context, db *sql.DB, draftId string, surveyId, version int, sub model.Submission) (int, int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	if surveyId == 0 {
		surveyId, version, err = database.DraftSurvey(ctx, tx, draftId)
		if errors.Is(err, database.ErrNotFound) {
			if surveyId, err = database.InsertDraftSurvey(ctx, tx, draftId, sub); err != nil {
				return 0, 0, err
			}
			return surveyId, 1, tx.Commit()
		}
		if err != nil {
			return 0, 0, err
		}
	}

	sub.Version = version
	if version, err = database.UpdateSurvey(ctx, tx, surveyId, sub); err != nil {
		return 0, 0, err
	}
	return surveyId, version, tx.Commit()
}
