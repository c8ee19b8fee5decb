package httpx

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/oauth"
	"github.com/mbolis/alumni-survey/config"
	"github.com/mbolis/alumni-survey/log"
	"golang.org/x/crypto/bcrypt"
)

// Survey editors keep their refresh token for a working year.
const refreshTTL = 8760 * time.Hour

var (
	errBadCredentials = errors.New("bad credentials")
	errRefresh        = errors.New("could not refresh")
)

// editorAccounts authenticates survey editors against the user table and
// keeps track of the refresh tokens handed out to them.
type editorAccounts struct {
	db  *sql.DB
	now func() time.Time
}

// NewBearerServer issues admin tokens for the users stored in db.
func NewBearerServer(db *sql.DB, cfg config.Config) *oauth.BearerServer {
	accounts := &editorAccounts{db: db, now: time.Now}
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, accounts, nil)
}

func (a *editorAccounts) ValidateUser(username, password, _ string, r *http.Request) error {
	var hash []byte
	err := a.db.
		QueryRowContext(r.Context(), "SELECT password_hash FROM user WHERE username = ?", username).
		Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		log.WithFields(log.Fields{"user": username}).Debug("login: unknown user")
		return errBadCredentials
	}
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		log.WithFields(log.Fields{"user": username}).Debug("login: wrong password")
		return errBadCredentials
	}
	return nil
}

// StoreTokenID records a fresh refresh token and drops the user's stale ones.
func (a *editorAccounts) StoreTokenID(_ oauth.TokenType, username, tokenID, refreshTokenID string) error {
	now := a.now()
	if _, err := a.db.Exec("DELETE FROM token WHERE username = ? AND expiration < ?", username, now); err != nil {
		return err
	}
	_, err := a.db.Exec(
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		username,
		tokenID,
		refreshTokenID,
		now.Add(refreshTTL),
	)
	return err
}

// ValidateTokenID consumes the refresh token: each one is good for a single refresh.
func (a *editorAccounts) ValidateTokenID(_ oauth.TokenType, username, tokenID, refreshTokenID string) error {
	var expiration time.Time
	err := a.db.
		QueryRow(`
			DELETE FROM token
			WHERE username = ? AND token_id = ? AND refresh_token_id = ?
			RETURNING expiration`,
			username,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration)
	if err != nil || expiration.Before(a.now()) {
		return errRefresh
	}
	return nil
}

func (*editorAccounts) AddClaims(oauth.TokenType, string, string, string, *http.Request) (map[string]string, error) {
	return map[string]string{"roles": "admin"}, nil
}

func (*editorAccounts) AddProperties(oauth.TokenType, string, string, string, *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

// Only the password grant is offered; there are no client applications.
func (*editorAccounts) ValidateClient(string, string, string, *http.Request) error {
	return errors.New("client credentials not supported")
}
