// Package session keeps the drafts being edited on the server. A draft is
// not safe for concurrent use, so every access goes through a Store, which
// serializes the callbacks touching the same session.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/mbolis/alumni-survey/draft"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID string
	// SurveyID is the stored survey being edited, 0 for a new one.
	SurveyID int
	// Version is the stored survey version the draft was loaded from.
	Version int
	Draft   *draft.Draft
	Updated time.Time
}

// New wraps d in a session with a fresh id.
func New(d *draft.Draft) (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Session{ID: id.String(), Draft: d, Updated: time.Now()}, nil
}

type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, s *Session) error
	// View runs fn with exclusive access to the session. Changes are not saved.
	View(ctx context.Context, id string, fn func(*Session) error) error
	// Update runs fn with exclusive access to the session and saves it
	// when fn returns nil.
	Update(ctx context.Context, id string, fn func(*Session) error) error
	Delete(ctx context.Context, id string) error
}
