package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/blockboard/internal/board"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeError maps board and remote errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		nf *board.NotFoundError
		pm *board.PartialMoveError
	)
	switch {
	case errors.As(err, &pm):
		s.log.Error("partial move", "move_id", pm.MoveID, "source", pm.SourceID, "new_node_id", pm.NewNodeID, "error", pm.Err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":      "error",
			"state":       board.MoveFailedDelete,
			"move_id":     pm.MoveID,
			"source_id":   pm.SourceID,
			"new_node_id": pm.NewNodeID,
			"error":       err.Error(),
		})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":     err.Error(),
			"what":      nf.What,
			"name":      nf.Name,
			"available": nf.Available,
		})
	case errors.Is(err, board.ErrInvalid):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case board.IsRemote(err):
		s.log.Warn("remote store error", "path", r.URL.Path, "error", err)
		jsonError(w, err.Error(), http.StatusBadGateway)
	default:
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
