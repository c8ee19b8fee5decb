package database

import (
	"context"

	"github.com/mattn/go-sqlite3"
	"github.com/mbolis/alumni-survey/model"
	"github.com/pkg/errors"
)

// ErrDuplicate is returned when a catalog entry id is already taken.
var ErrDuplicate = errors.New("duplicate id")

func ListCourses(ctx context.Context, q Querier) ([]model.Course, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, name FROM course ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		c := model.Course{}
		if err = rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, errors.Wrap(err, "list courses.scan")
		}
		courses = append(courses, c)
	}
	return courses, errors.Wrap(rows.Err(), "list courses.next")
}

func InsertCourse(ctx context.Context, q Querier, c model.Course) error {
	_, err := q.ExecContext(ctx, "INSERT INTO course (id, name) VALUES (?, ?)", c.ID, c.Name)
	return insertError(err, "insert course")
}

func ListGraduationDates(ctx context.Context, q Querier) ([]model.GraduationDate, error) {
	rows, err := q.QueryContext(ctx, "SELECT id, label FROM graduation_date ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "list graduation dates")
	}
	defer rows.Close()

	dates := []model.GraduationDate{}
	for rows.Next() {
		d := model.GraduationDate{}
		if err = rows.Scan(&d.ID, &d.Label); err != nil {
			return nil, errors.Wrap(err, "list graduation dates.scan")
		}
		dates = append(dates, d)
	}
	return dates, errors.Wrap(rows.Err(), "list graduation dates.next")
}

func InsertGraduationDate(ctx context.Context, q Querier, d model.GraduationDate) error {
	_, err := q.ExecContext(ctx, "INSERT INTO graduation_date (id, label) VALUES (?, ?)", d.ID, d.Label)
	return insertError(err, "insert graduation date")
}

func insertError(err error, msg string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
		return ErrDuplicate
	}
	return errors.Wrap(err, msg)
}
