package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/blockboard/internal/board"
	"github.com/dgallion1/blockboard/internal/richtext"
)

const maxBodyBytes = 1 << 20

// taskInput carries task text. Text is stored verbatim unless Format asks for
// markdown or html.
type taskInput struct {
	Text   string `json:"text"`
	Format string `json:"format,omitempty"`
}

func (in taskInput) runs() ([]richtext.Run, error) {
	f, err := board.ParseFormat(in.Format)
	if err != nil {
		return nil, err
	}
	return board.Runs(in.Text, f)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	tb, err := s.board.GetBoard(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tb)
}

func (s *Server) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	wp, err := s.board.GetWeeklyPlan(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wp)
}

func (s *Server) handleAddToCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
		taskInput
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	runs, err := req.runs()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	node, err := s.board.AddRichTaskToCategory(r.Context(), req.Category, runs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleAddToDay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day string `json:"day"`
		taskInput
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	runs, err := req.runs()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	node, err := s.board.AddRichTaskToDay(r.Context(), req.Day, runs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleMoveTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To   string `json:"to"`
		Kind string `json:"kind"`
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	kind, err := board.ParseDestKind(req.Kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.board.MoveTask(r.Context(), chi.URLParam(r, "nodeID"), req.Text, board.Destination{Kind: kind, Name: req.To})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "nodeID")
	if err := s.board.DeleteTask(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "node_id": id})
}

func (s *Server) handleGetBacklog(w http.ResponseWriter, r *http.Request) {
	items, err := s.board.GetBacklog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddToBacklog(w http.ResponseWriter, r *http.Request) {
	var entry board.BacklogEntry
	if !decodeJSON(w, r, &entry) {
		return
	}
	item, err := s.board.AddToBacklog(r.Context(), entry)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}
