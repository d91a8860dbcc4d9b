package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/dgallion1/eadtool/internal/compliance"
	"github.com/dgallion1/eadtool/internal/parser"
	"github.com/dgallion1/eadtool/internal/structure"
)

// intParam reads a positive integer query parameter, falling back to def.
func intParam(r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r, 1); err != nil {
		respondUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	name, data, err := s.formFile(r, "file")
	if err != nil {
		respondUploadError(w, err)
		return
	}

	v := compliance.Validate(bytes.NewReader(data), name)
	writeJSON(w, http.StatusOK, map[string]any{
		"source":     name,
		"validation": v,
	})
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	maxDepth, ok := intParam(r, "max_depth", s.cfg.MaxDepth)
	if !ok {
		jsonError(w, "max_depth must be a non-negative integer", http.StatusBadRequest)
		return
	}
	if err := s.parseForm(w, r, 1); err != nil {
		respondUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	name, data, err := s.formFile(r, "file")
	if err != nil {
		respondUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, structure.Side{
		Name:  name,
		Lines: structure.Lines(structure.Extract(bytes.NewReader(data), name, maxDepth)),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	maxDepth, ok := intParam(r, "max_depth", s.cfg.MaxDepth)
	if !ok {
		jsonError(w, "max_depth must be a non-negative integer", http.StatusBadRequest)
		return
	}
	if err := s.parseForm(w, r, 2); err != nil {
		respondUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	leftName, left, err := s.formFile(r, "left")
	if err != nil {
		respondUploadError(w, err)
		return
	}
	rightName, right, err := s.formFile(r, "right")
	if err != nil {
		respondUploadError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, structure.Compare(
		structure.Input{Name: leftName, R: bytes.NewReader(left)},
		structure.Input{Name: rightName, R: bytes.NewReader(right)},
		maxDepth,
	))
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("name")
	if section == "" {
		jsonError(w, "name query parameter is required", http.StatusBadRequest)
		return
	}
	if err := s.parseForm(w, r, 1); err != nil {
		respondUploadError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	name, data, err := s.formFile(r, "file")
	if err != nil {
		respondUploadError(w, err)
		return
	}

	doc, err := parser.Parse(bytes.NewReader(data), name)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	out, found := structure.Section(doc, section)
	if !found {
		jsonError(w, structure.NotFoundMessage(name, section), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write([]byte(out))
}
