package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-webadmin/guard"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

type sessionResponse struct {
	LoggedIn bool           `json:"logged_in"`
	Admin    bool           `json:"admin"`
	Version  uint64         `json:"version"`
	Session  map[string]any `json:"session,omitempty"`
	Location string         `json:"location,omitempty"`
}

// ViewHandler describes the view the guard authorized for this request
func (s *Server) ViewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolution, ok := resolutionFromContext(r.Context())
		if !ok {
			resolution = s.app.Router.Resolve(r.URL.Path)
		}
		writeJSON(w, http.StatusOK, resolution)
	}
}

// LoginHandler installs the session produced by the login flow
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, loginName, err := decodeLoginRequest(w, r)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected login request")
			writeJSONError(w, "invalid_request", err.Error(), http.StatusBadRequest)
			return
		}

		s.app.Login(record, loginName)
		if err := s.app.Settle(r.Context()); err != nil {
			writeJSONError(w, "server_error", "session not applied", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusCreated, s.sessionState())
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.app.Logout()
		if err := s.app.Settle(r.Context()); err != nil {
			writeJSONError(w, "server_error", "session not cleared", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RefreshHandler retries a refresh for a stale session
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.app.Scheduler.Kick()
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.sessionState())
	}
}

// NavigateHandler moves the tracked location and reports where navigation ended
func (s *Server) NavigateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil || req.Path == "" {
			writeJSONError(w, "invalid_request", "path is required", http.StatusBadRequest)
			return
		}

		resolution := s.app.Navigator.Navigate(req.Path)
		status := http.StatusOK
		switch resolution.Kind {
		case guard.NotFound:
			status = http.StatusNotFound
		case guard.Redirect:
			status = http.StatusLoopDetected
		}
		writeJSON(w, status, resolution)
	}
}

func (s *Server) LoginNameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"login_name": s.app.LoginNames.Get()})
	}
}

func (s *Server) sessionState() sessionResponse {
	snapshot := s.app.Controller.Snapshot()
	resp := sessionResponse{
		LoggedIn: s.app.Controller.IsLoggedIn(),
		Admin:    s.app.Controller.IsAdmin(),
		Version:  snapshot.Version,
		Location: s.app.Navigator.Location(),
	}
	if !snapshot.Record.IsEmpty() {
		resp.Session = snapshot.Record.Redacted()
	}
	return resp
}
