package database

import (
	"context"
	"database/sql"

	json "github.com/goccy/go-json"
	"github.com/mbolis/alumni-survey/model"
	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means the survey changed since the given version was read.
	ErrConflict = errors.New("version conflict")
)

// InsertSurvey stores a submission as a new survey at version 1.
func InsertSurvey(ctx context.Context, tx Querier, sub model.Submission) (surveyId int, err error) {
	survey, err := parseSurvey(sub)
	if err != nil {
		return 0, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO survey (title, description, expiry, allowed_courses, allowed_graduation_dates)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		sub.Title,
		survey.Description,
		sub.Expiry,
		sub.AllowedCourses,
		sub.AllowedGraduationDates,
	).Scan(&surveyId)
	if err != nil {
		return 0, errors.Wrap(err, "insert survey")
	}

	return surveyId, insertSections(ctx, tx, surveyId, survey.Sections)
}

// InsertDraftSurvey stores the first submission of draft session draftId.
// A draft that already created its survey gets ErrConflict and nothing is
// inserted once tx is rolled back.
func InsertDraftSurvey(ctx context.Context, tx Querier, draftId string, sub model.Submission) (surveyId int, err error) {
	surveyId, err = InsertSurvey(ctx, tx, sub)
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO survey_draft (draft_id, survey_id) VALUES (?, ?)", draftId, surveyId)
	if err = insertError(err, "insert survey draft"); errors.Is(err, ErrDuplicate) {
		return 0, ErrConflict
	}
	return surveyId, err
}

// DraftSurvey finds the survey created by draft session draftId, with its
// current version.
func DraftSurvey(ctx context.Context, q Querier, draftId string) (surveyId, version int, err error) {
	err = q.QueryRowContext(ctx, `
		SELECT s.id, s.version
		FROM survey_draft d JOIN survey s ON s.id = d.survey_id
		WHERE d.draft_id = ?`,
		draftId,
	).Scan(&surveyId, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, ErrNotFound
	}
	return surveyId, version, errors.Wrap(err, "draft survey")
}

// UpdateSurvey replaces the survey if it is still at sub.Version, and
// returns the new version.
func UpdateSurvey(ctx context.Context, tx Querier, surveyId int, sub model.Submission) (version int, err error) {
	survey, err := parseSurvey(sub)
	if err != nil {
		return 0, err
	}

	// optimistic lock
	err = tx.QueryRowContext(ctx, `
		UPDATE survey
		SET
			title = ?,
			description = ?,
			expiry = ?,
			allowed_courses = ?,
			allowed_graduation_dates = ?,
			version = version+1
		WHERE id = ?
			AND version = ?
		RETURNING version`,
		sub.Title,
		survey.Description,
		sub.Expiry,
		sub.AllowedCourses,
		sub.AllowedGraduationDates,
		surveyId,
		sub.Version,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		err = tx.QueryRowContext(ctx, "SELECT 1 FROM survey WHERE id = ?", surveyId).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		if err != nil {
			return 0, errors.Wrap(err, "update survey.verify")
		}
		return 0, ErrConflict
	}
	if err != nil {
		return 0, errors.Wrap(err, "update survey")
	}

	// sections cascade to questions
	_, err = tx.ExecContext(ctx, "DELETE FROM survey_section WHERE survey_id = ?", surveyId)
	if err != nil {
		return 0, errors.Wrap(err, "update survey.delete_sections")
	}
	return version, insertSections(ctx, tx, surveyId, survey.Sections)
}

func parseSurvey(sub model.Submission) (survey model.Survey, err error) {
	err = json.Unmarshal([]byte(sub.Survey), &survey)
	return survey, errors.Wrap(err, "parse survey")
}

func insertSections(ctx context.Context, tx Querier, surveyId int, sections []model.Section) error {
	for s, sec := range sections {
		var sectionId int
		err := tx.QueryRowContext(ctx, `
			INSERT INTO survey_section (survey_id, position, title) VALUES (?, ?, ?)
			RETURNING id`,
			surveyId,
			s,
			sec.SecTitle,
		).Scan(&sectionId)
		if err != nil {
			return errors.Wrapf(err, "insert section %d", s)
		}

		for i, q := range sec.Questions {
			var options string
			if q.Options != nil {
				b, err := json.Marshal(q.Options)
				if err != nil {
					return errors.Wrapf(err, "section %d question %d options", s, i)
				}
				options = string(b)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO survey_question (
					section_id, position, type, text, required, match_student, options,
					scale_max, scale_label_left, scale_label_right, is_restriction_required
				)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				sectionId, i, q.Type, q.Text, q.Required, q.MatchStudent, options,
				q.ScaleMax, q.ScaleLabelLeft, q.ScaleLabelRight, q.IsRestrictionRequired,
			)
			if err != nil {
				return errors.Wrapf(err, "insert section %d question %d", s, i)
			}
		}
	}
	return nil
}

// GetSurvey reads a stored survey back as the submission that produced it.
func GetSurvey(ctx context.Context, q Querier, surveyId int) (model.Submission, error) {
	sub := model.Submission{}
	var description string
	err := q.QueryRowContext(ctx, `
		SELECT version, title, description, expiry, allowed_courses, allowed_graduation_dates
		FROM survey
		WHERE id = ?`,
		surveyId,
	).Scan(&sub.Version, &sub.Title, &description, &sub.Expiry, &sub.AllowedCourses, &sub.AllowedGraduationDates)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, ErrNotFound
	}
	if err != nil {
		return sub, errors.Wrap(err, "get survey")
	}

	sections, err := getSections(ctx, q, surveyId)
	if err != nil {
		return sub, err
	}
	body, err := json.Marshal(model.Survey{Title: sub.Title, Description: description, Sections: sections})
	if err != nil {
		return sub, errors.Wrap(err, "get survey.encode")
	}
	sub.Survey = string(body)
	return sub, nil
}

func getSections(ctx context.Context, q Querier, surveyId int) ([]model.Section, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT
			s.id, s.title,
			f.type, f.text, f.required, f.match_student, f.options,
			f.scale_max, f.scale_label_left, f.scale_label_right, f.is_restriction_required
		FROM survey_section s
		LEFT OUTER JOIN survey_question f ON (s.id = f.section_id)
		WHERE s.survey_id = ?
		ORDER BY s.position, f.position`,
		surveyId,
	)
	if err != nil {
		return nil, errors.Wrap(err, "get sections")
	}
	defer rows.Close()

	sections := []model.Section{}
	lastId := 0
	for rows.Next() {
		var (
			sectionId int
			title     string
			typ, text sql.NullString
			required  sql.NullBool
			match     sql.NullString
			options   sql.NullString
			flagged   sql.NullBool
			q         model.Question
		)
		err = rows.Scan(
			&sectionId, &title,
			&typ, &text, &required, &match, &options,
			&q.ScaleMax, &q.ScaleLabelLeft, &q.ScaleLabelRight, &flagged,
		)
		if err != nil {
			return nil, errors.Wrap(err, "get sections.scan")
		}

		if sectionId != lastId {
			sections = append(sections, model.Section{SecTitle: title, Questions: []model.Question{}})
			lastId = sectionId
		}
		if !typ.Valid {
			// section without questions
			continue
		}

		q.Type, q.Text, q.Required, q.MatchStudent = typ.String, text.String, required.Bool, match.String
		q.IsRestrictionRequired = flagged.Bool
		if options.String != "" {
			if err = json.Unmarshal([]byte(options.String), &q.Options); err != nil {
				return nil, errors.Wrap(err, "get sections.parse_options")
			}
		}
		if q.ScaleMax != nil {
			lo := 1
			q.ScaleMin = &lo
		}

		last := &sections[len(sections)-1]
		last.Questions = append(last.Questions, q)
	}
	return sections, errors.Wrap(rows.Err(), "get sections.next")
}

func ListSurveys(ctx context.Context, q Querier) ([]model.SurveyInfo, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, version, title, expiry
		FROM survey
		ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "list surveys")
	}
	defer rows.Close()

	surveys := []model.SurveyInfo{}
	for rows.Next() {
		s := model.SurveyInfo{}
		err = rows.Scan(&s.ID, &s.Version, &s.Title, &s.Expiry)
		if err != nil {
			return nil, errors.Wrap(err, "list surveys.scan")
		}
		surveys = append(surveys, s)
	}
	return surveys, errors.Wrap(rows.Err(), "list surveys.next")
}

func DeleteSurvey(ctx context.Context, q Querier, surveyId int) error {
	res, err := q.ExecContext(ctx, "DELETE FROM survey WHERE id = ?", surveyId)
	if err != nil {
		return errors.Wrap(err, "delete survey")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete survey.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
