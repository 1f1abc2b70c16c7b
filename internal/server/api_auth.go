package server

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"finwatch/internal/httputil"
	"finwatch/internal/jellyfin"
)

type loginRequest struct {
	ServerURL string `json:"server_url"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type userResponse struct {
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name"`
	ServerURL string `json:"server_url"`
	ServerID  string `json:"server_id"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ServerURL = strings.TrimRight(strings.TrimSpace(req.ServerURL), "/")
	if err := httputil.ValidateServerURL(req.ServerURL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	deviceID, err := s.sessions.DeviceID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading device id")
		return
	}

	creds, err := s.gw.Authenticate(r.Context(), req.ServerURL, req.Username, req.Password, deviceID)
	if err != nil {
		// A 401 on the auth exchange is rejected credentials, not an
		// upstream failure.
		var gwErr *jellyfin.Error
		if errors.As(err, &gwErr) && gwErr.Kind == jellyfin.KindHTTP && gwErr.Status == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeGatewayError(w, err)
		return
	}
	if err := s.sessions.Login(creds); err != nil {
		log.Printf("server: persisting session: %v", err)
		writeError(w, http.StatusInternalServerError, "persisting session")
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		UserID:    creds.UserID,
		UserName:  creds.UserName,
		ServerURL: creds.ServerURL,
		ServerID:  creds.ServerID,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.sessions.Current()
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		UserID:    creds.UserID,
		UserName:  creds.UserName,
		ServerURL: creds.ServerURL,
		ServerID:  creds.ServerID,
	})
}
