package middlewares

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/mbolis/alumni-survey/httpx"
	"github.com/mbolis/alumni-survey/log"
)

const refreshCookieAge = 60 * 60 * 24 * 365

// Admin checks for the 'admin' role in an OAuth token signed with secret.
func Admin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin).Handler(next)
	}
}

func admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)

		isAdmin := false
		for _, role := range strings.Split(claims["roles"], ",") {
			if role == "admin" {
				isAdmin = true
				break
			}
		}

		if !isAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// CookieAuth lets browsers reach the admin pages with tokens kept in
// cookies. An expired access token is renewed with the refresh token, and
// without a usable one the browser is sent to the login page.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie("access_token")
			if err != nil && !errors.Is(err, http.ErrNoCookie) {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			if err == nil {
				r.Header.Set("authorization", "Bearer "+token.Value)
				rec := &httpx.Recorder{}
				h.ServeHTTP(rec, r)
				if rec.Code != http.StatusUnauthorized {
					rec.Relay(w)
					return
				}
			}

			loginLocation := "/login?goto=" + url.QueryEscape(r.RequestURI)

			refreshToken, err := r.Cookie("refresh_token")
			if err != nil {
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}

			resp, err := httpx.RefreshToken(bearerServer, refreshToken.Value)
			if err != nil {
				httpx.LogInternalError(w, "cookie_auth.refresh", err)
				return
			}
			switch resp.Code {
			case http.StatusOK:
			case http.StatusUnauthorized:
				http.SetCookie(w, &http.Cookie{
					Path:     "/",
					Name:     "refresh_token",
					Value:    "",
					MaxAge:   -1,
					SameSite: http.SameSiteStrictMode,
				})
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			default:
				http.Error(w, http.StatusText(resp.Code), resp.Code)
				return
			}

			renewed, err := httpx.ParseToken(resp)
			if err != nil {
				httpx.LogInternalError(w, "cookie_auth.parse_token", err)
				return
			}
			log.Debug("cookie_auth: token renewed")

			http.SetCookie(w, &http.Cookie{
				Path:     "/",
				Name:     "access_token",
				Value:    renewed.AccessToken,
				MaxAge:   int(renewed.ExpiresIn),
				SameSite: http.SameSiteStrictMode,
			})
			http.SetCookie(w, &http.Cookie{
				Path:     "/",
				Name:     "refresh_token",
				Value:    renewed.RefreshToken,
				MaxAge:   refreshCookieAge,
				SameSite: http.SameSiteStrictMode,
			})

			r.Header.Set("authorization", "Bearer "+renewed.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
