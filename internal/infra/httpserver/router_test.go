package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyervish/design-crit/internal/application"
	appanalysis "github.com/iyervish/design-crit/internal/application/analysis"
	domain "github.com/iyervish/design-crit/internal/domain/analysis"
	"github.com/iyervish/design-crit/internal/infra/storage/fsstore"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

type stubEvaluator struct {
	out string
	err error
}

func (s *stubEvaluator) Evaluate(ctx context.Context, imageBase64 string) (string, error) {
	return s.out, s.err
}

type stubCapturer struct {
	image []byte
	err   error
}

func (s *stubCapturer) Capture(ctx context.Context, url string) ([]byte, error) {
	return s.image, s.err
}

func verdictJSON(t *testing.T, score float64) string {
	t.Helper()
	cats := map[string]any{}
	for _, k := range []string{
		"aestheticCohesion", "hierarchyLayout", "typography", "colorContrast",
		"imageryIconography", "brandExpression", "systemConsistency",
		"visualCraft", "aiSlopIndicators", "emotionalResonance",
	} {
		cats[k] = map[string]any{"score": score, "rationale": "fine"}
	}
	b, err := json.Marshal(map[string]any{
		"overallScore":    score,
		"categories":      cats,
		"summary":         "Good overall.",
		"aiSlopDetection": map[string]any{"score": score, "indicators": []string{}},
		"topRefinements":  []string{"refine spacing"},
	})
	require.NoError(t, err)
	return string(b)
}

// newTestServer wires the real pipeline service and flat-file store behind
// the router, with stubbed external collaborators.
func newTestServer(t *testing.T, eval *stubEvaluator, capt *stubCapturer) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := fsstore.New(dir)
	require.NoError(t, err)

	svc := &appanalysis.Service{
		Repo:          store,
		Evaluator:     eval,
		Capturer:      capt,
		Clock:         application.SystemClock{},
		AllowURLInput: true,
	}
	return NewRouter(svc, Options{}), dir
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("screenshot", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postAnalyze(t *testing.T, h http.Handler, fields map[string]string, filename string, file []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, filename, file)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestAnalyzeUploadHappyPath(t *testing.T) {
	h, _ := newTestServer(t, &stubEvaluator{out: verdictJSON(t, 7)}, &stubCapturer{})

	rec := postAnalyze(t, h, map[string]string{"type": "screenshot"}, "homepage.png", pngBytes)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["success"])
	id, ok := body["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)

	// the verdict is retrievable under the fresh id
	req := httptest.NewRequest(http.MethodGet, "/api/results/"+id, nil)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var stored domain.Result
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &stored))
	assert.Equal(t, domain.SourceScreenshot, stored.SourceType)
	assert.Equal(t, "homepage.png", stored.SourceValue)
	assert.InDelta(t, 7.0, stored.OverallScore, 0.001)

	// and so is the screenshot, under the same id
	req = httptest.NewRequest(http.MethodGet, "/api/screenshots/"+id+".png", nil)
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "image/png", res.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, res.Body.Bytes())
}

func TestAnalyzeInvalidURL(t *testing.T) {
	h, _ := newTestServer(t, &stubEvaluator{}, &stubCapturer{})

	rec := postAnalyze(t, h, map[string]string{"type": "url", "value": "not a url"}, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "Invalid URL format")
	assert.NotContains(t, body, "id")
}

func TestAnalyzeMissingFile(t *testing.T) {
	h, _ := newTestServer(t, &stubEvaluator{}, &stubCapturer{})

	rec := postAnalyze(t, h, map[string]string{"type": "screenshot"}, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Screenshot file is required", decodeJSON(t, rec)["error"])
}

func TestAnalyzeInvalidType(t *testing.T) {
	h, _ := newTestServer(t, &stubEvaluator{}, &stubCapturer{})

	rec := postAnalyze(t, h, map[string]string{"type": "gif"}, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request type", decodeJSON(t, rec)["error"])
}

func TestAnalyzeMalformedVerdictLeavesNoArtifacts(t *testing.T) {
	h, dir := newTestServer(t, &stubEvaluator{out: "not json at all"}, &stubCapturer{})

	rec := postAnalyze(t, h, map[string]string{"type": "screenshot"}, "a.png", pngBytes)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to analyze design. Please try again.", decodeJSON(t, rec)["error"])

	for _, sub := range []string{"results", "screenshots"} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		require.NoError(t, err)
		assert.Empty(t, entries, "no artifacts may exist under %s", sub)
	}
}

func TestAnalyzeCaptureFailure(t *testing.T) {
	h, dir := newTestServer(t, &stubEvaluator{}, &stubCapturer{err: errors.New("navigation timeout")})

	rec := postAnalyze(t, h, map[string]string{"type": "url", "value": "https://slow.example"}, "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to capture screenshot. Please try again.", decodeJSON(t, rec)["error"])

	entries, err := os.ReadDir(filepath.Join(dir, "results"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeURLHappyPath(t *testing.T) {
	h, _ := newTestServer(t, &stubEvaluator{out: verdictJSON(t, 8)}, &stubCapturer{image: pngBytes})

	rec := postAnalyze(t, h, map[string]string{"type": "url", "value": "https://example.com"}, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	id := decodeJSON(t, rec)["id"].(string)
	req := httptest.NewRequest(http.MethodGet, "/api/results/"+id, nil)
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var stored domain.Result
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &stored))
	assert.Equal(t, domain.SourceURL, stored.SourceType)
	assert.Equal(t, "https://example.com", stored.SourceValue)
}

func TestGetUnknownResult(t *testing.T) {
	h, _ := newTestServer(t, &stubEvaluator{}, &stubCapturer{})

	req := httptest.NewRequest(http.MethodGet, "/api/results/"+string(domain.NewID()), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecentListing(t *testing.T) {
	eval := &stubEvaluator{out: verdictJSON(t, 6)}
	h, _ := newTestServer(t, eval, &stubCapturer{})

	for i := 0; i < 3; i++ {
		rec := postAnalyze(t, h, map[string]string{"type": "screenshot"}, "a.png", pngBytes)
		require.Equal(t, http.StatusOK, rec.Code)
		time.Sleep(2 * time.Millisecond) // distinct timestamps for ordering
	}

	req := httptest.NewRequest(http.MethodGet, "/api/results?page=1&page_size=2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []domain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
	assert.False(t, list[0].Timestamp.Before(list[1].Timestamp))
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t, &stubEvaluator{}, &stubCapturer{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
