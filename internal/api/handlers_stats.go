package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth":  s.orchestrator.QueueDepth(),
		"tracked_jobs": s.orchestrator.JobCount(),
		"workers":      s.cfg.WorkerCount,
		"analysis":     s.orchestrator.Latency(),
	})
}
