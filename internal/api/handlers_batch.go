package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/eadtool/internal/pipeline"
	"github.com/dgallion1/eadtool/internal/report"
)

// maxBatchFiles caps the number of documents accepted by one batch request.
const maxBatchFiles = 10

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r, maxBatchFiles); err != nil {
		respondUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	if len(files) > maxBatchFiles {
		jsonError(w, fmt.Sprintf("at most %d files per batch", maxBatchFiles), http.StatusBadRequest)
		return
	}

	inputs := make([]pipeline.Input, 0, len(files))
	for _, fh := range files {
		name, data, err := s.readUpload(fh)
		if err != nil {
			respondUploadError(w, fmt.Errorf("%s: %w", name, err))
			return
		}
		inputs = append(inputs, pipeline.Input{Name: name, Data: data})
	}

	job := pipeline.NewJob(inputs)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"files":    len(inputs),
		"poll_url": fmt.Sprintf("/api/batch/%s", job.ID),
	})
}

// finishedJob looks up the job named in the URL and writes an error when it is
// missing or still running.
func (s *Server) finishedJob(w http.ResponseWriter, r *http.Request) *pipeline.Job {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return nil
	}
	if !job.Done() {
		jsonError(w, "job is still running", http.StatusConflict)
		return nil
	}
	return job
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleBatchXLSX(w http.ResponseWriter, r *http.Request) {
	job := s.finishedJob(w, r)
	if job == nil {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, job.Results()); err != nil {
		s.log.Error("xlsx export failed", "job_id", job.ID, "error", err)
		jsonError(w, "failed to build spreadsheet", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ead-compliance-%s.xlsx"`, job.ID))
	w.Write(buf.Bytes())
}

func (s *Server) handleBatchHTML(w http.ResponseWriter, r *http.Request) {
	job := s.finishedJob(w, r)
	if job == nil {
		return
	}

	page, err := report.BatchHTML(job.Results())
	if err != nil {
		s.log.Error("html report failed", "job_id", job.ID, "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
