package httpx

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/go-chi/oauth"
)

// Token is the bearer server's answer to a password or refresh grant.
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken runs a refresh_token grant against the bearer server. The
// recorded response is returned as is so it can be relayed to the client.
func RefreshToken(bs *oauth.BearerServer, refreshToken string) (*Recorder, error) {
	body := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}.Encode()

	req, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	resp := &Recorder{}
	bs.UserCredentials(resp, req)
	return resp, nil
}

// ParseToken decodes a successful grant response.
func ParseToken(resp *Recorder) (token Token, err error) {
	err = json.Unmarshal(resp.Body.Bytes(), &token)
	return
}
