package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/eadtool/internal/rewrite"
)

func (s *Server) handleRewriteUnittitles(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		title = s.cfg.UnittitleText
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

	out, stats := rewrite.AddUnittitles(data, title)
	s.log.Info("unittitles added", "source", name, "containers", stats.Containers, "added", stats.Added)

	h := w.Header()
	h.Set("Content-Type", "application/xml; charset=utf-8")
	h.Set("X-Containers", strconv.Itoa(stats.Containers))
	h.Set("X-Unittitles-Existing", strconv.Itoa(stats.Existing))
	h.Set("X-Unittitles-Added", strconv.Itoa(stats.Added))
	h.Set("X-Unittitles-Total", strconv.Itoa(stats.Total))
	w.Write(out)
}

func (s *Server) handleRewriteLists(w http.ResponseWriter, r *http.Request) {
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

	out, stats := rewrite.ConvertLists(data)
	s.log.Info("lists converted", "source", name, "converted", stats.Converted, "remaining", stats.Remaining)

	h := w.Header()
	h.Set("Content-Type", "application/xml; charset=utf-8")
	h.Set("X-Lists-Converted", strconv.Itoa(stats.Converted))
	h.Set("X-Lists-Remaining", strconv.Itoa(stats.Remaining))
	w.Write(out)
}
