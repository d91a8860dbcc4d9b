package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/eadtool/internal/config"
	"github.com/dgallion1/eadtool/internal/pipeline"
)

const testAPIKey = "secret"

const sampleEAD = `<?xml version="1.0" encoding="UTF-8"?>
<ead xmlns="urn:isbn:1-931666-22-9">
  <eadheader><eadid>us-xx-1</eadid></eadheader>
  <archdesc level="collection">
    <did>
      <unittitle>Kaufman Papers</unittitle>
      <unitid>MS 12</unitid>
      <unitdate>1920-1950</unitdate>
    </did>
    <dsc>
      <c01 level="series"><did><container type="box">1</container></did></c01>
    </dsc>
  </archdesc>
</ead>`

type upload struct {
	field, name, body string
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		APIKey:             testAPIKey,
		MaxDepth:           5,
		CompareLines:       50,
		UnittitleText:      "[Language files]",
		WorkerCount:        1,
		MaxQueueSize:       4,
		MaxConcurrentFiles: 2,
		MaxUploadBytes:     1 << 20,
		JobTTL:             time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func multipartRequest(t *testing.T, target string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := serve(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid api key", decode(t, rec)["error"])

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["workers"])
}

func TestValidate(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/validate", upload{"file", "kaufman.xml", sampleEAD}))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Source     string `json:"source"`
		Validation struct {
			WellFormed bool   `json:"well_formed"`
			Message    string `json:"message"`
			Report     struct {
				ArchdescLevel    string          `json:"archdesc_level"`
				CollectionTitle  string          `json:"collection_title"`
				SeriesCount      int             `json:"series_count"`
				RequiredElements map[string]bool `json:"required_elements"`
			} `json:"report"`
		} `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "kaufman.xml", out.Source)
	assert.True(t, out.Validation.WellFormed)
	assert.Equal(t, "XML is well-formed", out.Validation.Message)
	assert.Equal(t, "collection", out.Validation.Report.ArchdescLevel)
	assert.Equal(t, "Kaufman Papers", out.Validation.Report.CollectionTitle)
	assert.Equal(t, 1, out.Validation.Report.SeriesCount)
	assert.False(t, out.Validation.Report.RequiredElements["physdesc"])
}

func TestValidate_Malformed(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/api/validate", upload{"file", "bad.xml", "<ead><archdesc>"}))
	require.Equal(t, http.StatusOK, rec.Code)

	v := decode(t, rec)["validation"].(map[string]any)
	assert.Equal(t, false, v["well_formed"])
	assert.True(t, strings.HasPrefix(v["message"].(string), "XML Parse Error: "))
	assert.NotContains(t, v, "report")
}

func TestValidate_BadUploads(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/validate", upload{"file", "notes.pdf", "%PDF"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "unsupported file type")

	rec = serve(s, multipartRequest(t, "/api/validate", upload{"other", "a.xml", sampleEAD}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", decode(t, rec)["error"])
}

func TestStructure(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/structure?max_depth=2", upload{"file", "kaufman.xml", sampleEAD}))
	require.Equal(t, http.StatusOK, rec.Code)

	var side struct {
		Name  string   `json:"name"`
		Lines []string `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &side))
	assert.Equal(t, []string{
		"ead",
		"  eadheader",
		"    eadid",
		"  archdesc[level=collection]",
		"    did",
		"    dsc",
	}, side.Lines)

	rec = serve(s, multipartRequest(t, "/api/structure?max_depth=x", upload{"file", "kaufman.xml", sampleEAD}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompare(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/compare?max_depth=0",
		upload{"left", "a.xml", sampleEAD},
		upload{"right", "b.xml", "<ead"},
	))
	require.Equal(t, http.StatusOK, rec.Code)

	var cmp struct {
		Left, Right struct {
			Name  string   `json:"name"`
			Lines []string `json:"lines"`
		}
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cmp))
	assert.Equal(t, []string{"ead"}, cmp.Left.Lines)
	require.Len(t, cmp.Right.Lines, 1)
	assert.True(t, strings.HasPrefix(cmp.Right.Lines[0], "Error: "))

	rec = serve(s, multipartRequest(t, "/api/compare", upload{"left", "a.xml", sampleEAD}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSection(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/section?name=eadheader", upload{"file", "kaufman.xml", sampleEAD}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `<eadheader xmlns="urn:isbn:1-931666-22-9"><eadid>us-xx-1</eadid></eadheader>`, rec.Body.String())

	rec = serve(s, multipartRequest(t, "/api/section?name=frontmatter", upload{"file", "kaufman.xml", sampleEAD}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Section 'frontmatter' not found in kaufman.xml", decode(t, rec)["error"])

	rec = serve(s, multipartRequest(t, "/api/section?name=did", upload{"file", "bad.xml", "<ead>"}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/section", upload{"file", "kaufman.xml", sampleEAD}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRewriteUnittitles(t *testing.T) {
	s := newTestServer(t)
	input := "<did>\n  <container type=\"box\">1</container>\n</did>\n"

	rec := serve(s, multipartRequest(t, "/api/rewrite/unittitles?title=Letters", upload{"file", "a.xml", input}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<did>\n  <container type=\"box\">1</container>\n  <unittitle>Letters</unittitle>\n</did>\n", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Containers"))
	assert.Equal(t, "1", rec.Header().Get("X-Unittitles-Added"))

	rec = serve(s, multipartRequest(t, "/api/rewrite/unittitles", upload{"file", "a.xml", input}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<unittitle>[Language files]</unittitle>")
}

func TestRewriteLists(t *testing.T) {
	s := newTestServer(t)
	input := `<odd><list type="simple"><item>Note:</item><item>fragile</item></list></odd>`

	rec := serve(s, multipartRequest(t, "/api/rewrite/lists", upload{"file", "a.xml", input}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `<odd><p>Note: fragile</p></odd>`, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Lists-Converted"))
	assert.Equal(t, "0", rec.Header().Get("X-Lists-Remaining"))
}

func waitForJob(t *testing.T, s *Server, id string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/batch/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
		rec := serve(s, req)
		require.Equal(t, http.StatusOK, rec.Code)
		snap := decode(t, rec)
		switch snap["status"] {
		case "completed", "partial", "failed":
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not finish: %v", id, snap)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBatch(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/batch",
		upload{"files", "kaufman.xml", sampleEAD},
		upload{"files", "broken.xml", "<ead><did>"},
	))
	require.Equal(t, http.StatusAccepted, rec.Code)
	accepted := decode(t, rec)
	id := accepted["job_id"].(string)
	assert.EqualValues(t, 2, accepted["files"])

	snap := waitForJob(t, s, id)
	assert.Equal(t, "partial", snap["status"])
	progress := snap["progress"].(map[string]any)
	assert.EqualValues(t, 2, progress["files_processed"])
	assert.EqualValues(t, 1, progress["files_failed"])

	req := httptest.NewRequest(http.MethodGet, "/api/batch/"+id+"/report.html", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec = serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<td>kaufman.xml</td>")

	req = httptest.NewRequest(http.MethodGet, "/api/batch/"+id+"/report.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec = serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Compliance")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestBatch_Errors(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/batch"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/batch", upload{"files", "notes.txt", "hi"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "notes.txt")

	req := httptest.NewRequest(http.MethodGet, "/api/batch/missing", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	assert.Equal(t, http.StatusNotFound, serve(s, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/batch/missing/report.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	assert.Equal(t, http.StatusNotFound, serve(s, req).Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"kaufman.xml", "kaufman.xml"},
		{"../../etc/passwd.xml", "passwd.xml"},
		{"dir/sub/finding..aid.xml", "finding_aid.xml"},
		{"", "unnamed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
