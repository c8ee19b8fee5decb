package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/oauth"
)

func TestAdminRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		claims any
		status int
	}{
		{"admin", map[string]string{"roles": "admin"}, http.StatusNoContent},
		{"among others", map[string]string{"roles": "viewer,admin"}, http.StatusNoContent},
		{"other role", map[string]string{"roles": "viewer"}, http.StatusForbidden},
		{"no claims", nil, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.claims != nil {
				r = r.WithContext(context.WithValue(r.Context(), oauth.ClaimsContext, tt.claims))
			}
			rec := httptest.NewRecorder()
			admin(ok).ServeHTTP(rec, r)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestAdminRequiresToken(t *testing.T) {
	h := Admin("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a token")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestCookieAuthRedirectsToLogin(t *testing.T) {
	h := CookieAuth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/admin/index.html", nil))
	if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("location") != "/login?goto=%2Fadmin%2Findex.html" {
		t.Errorf("got %d to %q", rec.Code, rec.Header().Get("location"))
	}
}
