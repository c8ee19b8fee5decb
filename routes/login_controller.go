package routes

import (
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mbolis/alumni-survey/app"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/log"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

// Login turns basic auth credentials into a password grant.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "login.basic_auth")
			return
		}

		body := url.Values{
			"grant_type": {"password"},
			"username":   {user},
			"password":   {pass},
		}.Encode()
		r.Body = io.NopCloser(strings.NewReader(body))
		r.ContentLength = int64(len(body))
		r.Header.Set("content-type", "application/x-www-form-urlencoded")
		r.Header.Set("content-length", strconv.Itoa(len(body)))
		app.UserCredentials(w, r)
	}
}

// Refresh expects "Authorization: Refresh <token>".
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		match := reRefresh.FindStringSubmatch(r.Header.Get("authorization"))
		if len(match) == 0 {
			httpx.LogStatus(w, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		resp, err := httpx.RefreshToken(app.BearerServer, match[1])
		if err != nil {
			httpx.LogInternalError(w, "refresh.new_request", err)
			return
		}
		if err = resp.Relay(w); err != nil {
			log.WithError(err).Debug("refresh.relay")
		}
	}
}
