package api

import (
	"net/http"

	"github.com/dgallion1/blockboard/internal/board"
)

func (s *Server) handleGetApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.board.GetApplications(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps})
}

func (s *Server) handleAddApplication(w http.ResponseWriter, r *http.Request) {
	var in board.Application
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = ""
	app, err := s.board.AddApplication(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) handleGetContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.board.GetContacts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (s *Server) handleAddContact(w http.ResponseWriter, r *http.Request) {
	var in board.Contact
	if !decodeJSON(w, r, &in) {
		return
	}
	in.ID = ""
	c, err := s.board.AddContact(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
