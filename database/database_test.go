package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/mbolis/alumni-survey/config"
	"github.com/mbolis/alumni-survey/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testSubmission(t *testing.T, title string) model.Submission {
	t.Helper()
	lo, hi, left, right := 1, 7, "bad", "good"
	survey := model.Survey{
		Title:       title,
		Description: "<p>hello</p>",
		Sections: []model.Section{
			{SecTitle: "About you", Questions: []model.Question{
				{Type: "Short Answer", Text: "Name", Required: true, MatchStudent: "name", IsRestrictionRequired: true},
				{Type: "Checkboxes", Text: "Sectors", MatchStudent: "none", Options: []string{"IT", "Health"}},
			}},
			{SecTitle: "Empty", Questions: []model.Question{}},
			{SecTitle: "Rating", Questions: []model.Question{
				{Type: "Linear Scale", Text: "Rate us", MatchStudent: "none", ScaleMin: &lo, ScaleMax: &hi, ScaleLabelLeft: &left, ScaleLabelRight: &right},
			}},
		},
	}
	body, err := json.Marshal(survey)
	if err != nil {
		t.Fatal(err)
	}
	return model.Submission{
		Title:          title,
		Expiry:         "2027-01-01 00:00:00",
		AllowedCourses: "cs,math",
		Survey:         string(body),
	}
}

func TestSurveyLifecycle(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	sub := testSubmission(t, "Alumni")
	id, err := InsertSurvey(ctx, db, sub)
	if err != nil {
		t.Fatal(err)
	}

	got, err := GetSurvey(ctx, db, id)
	if err != nil {
		t.Fatal(err)
	}
	want := sub
	want.Version = 1
	if got != want {
		t.Errorf("GetSurvey() =\n%+v\nwant\n%+v", got, want)
	}

	update := testSubmission(t, "Alumni, again")
	update.Version = 1
	version, err := UpdateSurvey(ctx, db, id, update)
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
	if _, err = UpdateSurvey(ctx, db, id, update); !errors.Is(err, ErrConflict) {
		t.Errorf("stale UpdateSurvey() = %v, want ErrConflict", err)
	}
	if _, err = UpdateSurvey(ctx, db, id+1, update); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSurvey() of a missing survey = %v, want ErrNotFound", err)
	}

	list, err := ListSurveys(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != "Alumni, again" || list[0].Version != 2 {
		t.Errorf("ListSurveys() = %+v", list)
	}

	if err = DeleteSurvey(ctx, db, id); err != nil {
		t.Fatal(err)
	}
	if _, err = GetSurvey(ctx, db, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSurvey() after delete = %v", err)
	}
	if err = DeleteSurvey(ctx, db, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteSurvey() = %v", err)
	}
	var orphans int
	db.QueryRow("SELECT count(*) FROM survey_question").Scan(&orphans)
	if orphans != 0 {
		t.Errorf("%d questions left after delete", orphans)
	}
}

func TestInsertSurveyRejectsBadJSON(t *testing.T) {
	_, err := InsertSurvey(context.Background(), openTestDB(t), model.Submission{Title: "x", Survey: "{"})
	if err == nil || !strings.Contains(err.Error(), "parse survey") {
		t.Errorf("InsertSurvey() = %v", err)
	}
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for _, c := range []model.Course{{ID: "math", Name: "Mathematics"}, {ID: "cs", Name: "Computer Science"}} {
		if err := InsertCourse(ctx, db, c); err != nil {
			t.Fatal(err)
		}
	}
	if err := InsertCourse(ctx, db, model.Course{ID: "cs", Name: "again"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate InsertCourse() = %v", err)
	}
	courses, err := ListCourses(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 2 || courses[0].ID != "cs" {
		t.Errorf("ListCourses() = %+v", courses)
	}

	if err := InsertGraduationDate(ctx, db, model.GraduationDate{ID: "2020-07", Label: "July 2020"}); err != nil {
		t.Fatal(err)
	}
	dates, err := ListGraduationDates(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(dates) != 1 || dates[0].Label != "July 2020" {
		t.Errorf("ListGraduationDates() = %+v", dates)
	}
}

func TestEnsureUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if err := EnsureUser(ctx, db, "admin", "one"); err != nil {
		t.Fatal(err)
	}
	if err := EnsureUser(ctx, db, "admin", "two"); err != nil {
		t.Fatal(err)
	}
	var n int
	db.QueryRow("SELECT count(*) FROM user").Scan(&n)
	if n != 1 {
		t.Errorf("%d users, want 1", n)
	}
}

func TestDraftSurveyInsertedOnce(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, _, err := DraftSurvey(ctx, db, "d1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DraftSurvey() before insert = %v, want ErrNotFound", err)
	}

	id, err := InsertDraftSurvey(ctx, db, "d1", testSubmission(t, "Alumni"))
	if err != nil {
		t.Fatal(err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = InsertDraftSurvey(ctx, tx, "d1", testSubmission(t, "Again")); !errors.Is(err, ErrConflict) {
		t.Errorf("second InsertDraftSurvey() = %v, want ErrConflict", err)
	}
	tx.Rollback()

	surveys, err := ListSurveys(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(surveys) != 1 {
		t.Errorf("ListSurveys() = %+v, want one survey", surveys)
	}

	got, version, err := DraftSurvey(ctx, db, "d1")
	if err != nil || got != id || version != 1 {
		t.Errorf("DraftSurvey() = %d, %d, %v, want %d, 1", got, version, err, id)
	}

	if err = DeleteSurvey(ctx, db, id); err != nil {
		t.Fatal(err)
	}
	if _, _, err = DraftSurvey(ctx, db, "d1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DraftSurvey() after delete = %v, want ErrNotFound", err)
	}
}
