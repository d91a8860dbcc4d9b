package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/eadtool/internal/parser"
)

// formOverhead is allowed on top of the upload limit for multipart framing.
const formOverhead = 1024 * 1024

type uploadError struct {
	msg  string
	code int
}

func (e *uploadError) Error() string { return e.msg }

// respondUploadError writes err as a JSON error with the matching status.
func respondUploadError(w http.ResponseWriter, err error) {
	var ue *uploadError
	if errors.As(err, &ue) {
		jsonError(w, err.Error(), ue.code)
		return
	}
	jsonError(w, err.Error(), http.StatusInternalServerError)
}

// parseForm limits the body to files uploads and parses the multipart form.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, files int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*files+formOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return &uploadError{fmt.Sprintf("request exceeds max size (%d bytes)", mbe.Limit), http.StatusRequestEntityTooLarge}
		}
		return &uploadError{"invalid multipart form: " + err.Error(), http.StatusBadRequest}
	}
	return nil
}

// formFile reads the single upload stored under field.
func (s *Server) formFile(r *http.Request, field string) (string, []byte, error) {
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return "", nil, &uploadError{field + " is required", http.StatusBadRequest}
	}
	return s.readUpload(files[0])
}

func (s *Server) readUpload(fh *multipart.FileHeader) (string, []byte, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return filename, nil, &uploadError{fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest}
	}

	f, err := fh.Open()
	if err != nil {
		return filename, nil, &uploadError{"failed to open file", http.StatusBadRequest}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return filename, nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return filename, nil, &uploadError{fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge}
	}
	return filename, data, nil
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
