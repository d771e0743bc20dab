package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-webadmin/internal/errors"
	"github.com/jrsteele09/go-webadmin/sessions"
)

const maxRequestBody = 64 << 10

// loginRequest is the grant handed over by the external login flow
type loginRequest struct {
	BaseURL      string `json:"base_url"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
	IsValid      *bool  `json:"is_valid"`
	LoginName    string `json:"login_name"`
}

func decodeLoginRequest(w http.ResponseWriter, r *http.Request) (sessions.Record, string, error) {
	var req loginRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return sessions.Record{}, "", errors.Wrapf(errors.ErrMalformedSession, "[decodeLoginRequest] %s", err.Error())
	}

	if req.AccessToken == "" {
		return sessions.Record{}, "", errors.Wrapf(errors.ErrMalformedSession, "[decodeLoginRequest] access_token is required")
	}
	baseURL, err := normalizeBaseURL(req.BaseURL)
	if err != nil {
		return sessions.Record{}, "", err
	}

	record := sessions.Record{
		BaseURL:      baseURL,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		Scope:        req.Scope,
		IsValid:      true,
	}
	if req.IsValid != nil {
		record.IsValid = *req.IsValid
	}
	return record, strings.TrimSpace(req.LoginName), nil
}

// normalizeBaseURL accepts an absolute http(s) origin, optionally with a path prefix
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", errors.Wrapf(errors.ErrMalformedSession, "[normalizeBaseURL] base_url must be an absolute http(s) URL")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an error response in the OAuth2 error shape
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
