package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	middleware "github.com/africacodeacademy-erp2025/gazette-ingest/internal/api/middlewares"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/models"
	"github.com/africacodeacademy-erp2025/gazette-ingest/internal/services"
)

// fakeDB records what the handlers persist.
type fakeDB struct {
	gazettes map[string]*models.Gazette
	created  int
}

func newFakeDB() *fakeDB { return &fakeDB{gazettes: map[string]*models.Gazette{}} }

func (f *fakeDB) CreateUser(ctx context.Context, u *models.User) error { return nil }
func (f *fakeDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, nil
}
func (f *fakeDB) CreateGazette(ctx context.Context, g *models.Gazette) error {
	f.created++
	cp := *g
	f.gazettes[g.ID] = &cp
	return nil
}
func (f *fakeDB) GetGazetteByID(ctx context.Context, id string) (*models.Gazette, error) {
	return f.gazettes[id], nil
}
func (f *fakeDB) ListGazettes(ctx context.Context) ([]models.Gazette, error) {
	out := make([]models.Gazette, 0, len(f.gazettes))
	for _, g := range f.gazettes {
		out = append(out, *g)
	}
	return out, nil
}
func (f *fakeDB) UpdateGazetteStatus(ctx context.Context, id, status string) error { return nil }
func (f *fakeDB) SetGazetteText(ctx context.Context, id, text, method string) error {
	return nil
}
func (f *fakeDB) SetGazetteSummary(ctx context.Context, id, summary string) error { return nil }
func (f *fakeDB) ReplaceGazetteChunks(ctx context.Context, gazetteID string, chunks []models.GazetteChunk) error {
	return nil
}
func (f *fakeDB) GetChunksByGazette(ctx context.Context, gazetteID string) ([]models.GazetteChunk, error) {
	return nil, nil
}
func (f *fakeDB) SearchChunks(ctx context.Context, queryVec []float32, limit int) ([]models.ChunkMatch, error) {
	return []models.ChunkMatch{}, nil
}
func (f *fakeDB) Close() error { return nil }

type fakeStorage struct {
	files map[string][]byte
}

func (f *fakeStorage) UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	f.files[key] = data
	return fmt.Sprintf("https://%s.s3.us-east-2.amazonaws.com/%s", bucket, key), nil
}
func (f *fakeStorage) DeleteFile(ctx context.Context, bucket, key string) error { return nil }
func (f *fakeStorage) GetFile(ctx context.Context, bucket, key string) ([]byte, error) {
	return f.files[key], nil
}
func (f *fakeStorage) GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.files[key])), nil
}

// fakeEmbedder with configured=false mirrors running without an API key.
type fakeEmbedder struct {
	configured bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !f.configured {
		return nil, nil
	}
	return []float32{1, 0}, nil
}
func (f *fakeEmbedder) EmbedBatch(ctx context.Context, chunks []string) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	return out, nil
}

type fakeIngestor struct {
	enqueued []string
}

func (f *fakeIngestor) Start(ctx context.Context, numWorkers int)            {}
func (f *fakeIngestor) Enqueue(gazetteID string)                             { f.enqueued = append(f.enqueued, gazetteID) }
func (f *fakeIngestor) ProcessOne(ctx context.Context, gazetteID string) error { return nil }

type fixture struct {
	db      *fakeDB
	storage *fakeStorage
	ingest  *fakeIngestor
	router  chi.Router
}

func newFixture(t *testing.T, embedderConfigured bool) *fixture {
	t.Helper()
	db := newFakeDB()
	st := &fakeStorage{files: map[string][]byte{}}
	ing := &fakeIngestor{}
	svc := services.NewGazetteService(db, st, &fakeEmbedder{configured: embedderConfigured}, ing, "gazette-docs")
	h := NewGazetteHandler(svc)

	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Post("/api/gazettes/upload", h.Upload)
	r.Get("/api/gazettes", h.List)
	r.Get("/api/gazettes/{id}", h.Get)
	r.Post("/api/gazettes/search", h.Search)
	return &fixture{db: db, storage: st, ingest: ing, router: r}
}

func multipartUpload(t *testing.T, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("title", "Provincial Gazette No. 42"))
	require.NoError(t, mw.WriteField("category", "provincial"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])
	_, err := time.Parse(time.RFC3339, body["timestamp"].(string))
	assert.NoError(t, err, "timestamp must be RFC3339")
}

func TestUpload_PlainText(t *testing.T) {
	f := newFixture(t, false)
	content := strings.Repeat("Notice is hereby given under section 21. ", 4)
	buf, ct := multipartUpload(t, "gazette no 42.txt", "text/plain", content)

	req := httptest.NewRequest(http.MethodPost, "/api/gazettes/upload", buf)
	req.Header.Set("Content-Type", ct)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	gaz := body["gazette"].(map[string]any)
	assert.Equal(t, "Provincial Gazette No. 42", gaz["title"])
	assert.Equal(t, models.StatusPending, gaz["status"])
	assert.Equal(t, "provincial", gaz["category"])

	// Plain text uploads get an immediate preview capped at 200 chars.
	preview := body["preview"].(string)
	assert.LessOrEqual(t, len(preview), 200)
	assert.True(t, strings.HasPrefix(content, preview))

	require.Equal(t, 1, f.db.created)
	require.Len(t, f.ingest.enqueued, 1)
	assert.Equal(t, gaz["id"], f.ingest.enqueued[0])

	// Spaces in the filename become underscores in the object key.
	for key := range f.storage.files {
		assert.Contains(t, key, "gazette_no_42.txt")
	}
	require.Len(t, f.storage.files, 1)
}

func TestUpload_UnsupportedType(t *testing.T) {
	f := newFixture(t, false)
	buf, ct := multipartUpload(t, "notes.xyz", "application/octet-stream", "whatever")

	req := httptest.NewRequest(http.MethodPost, "/api/gazettes/upload", buf)
	req.Header.Set("Content-Type", ct)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])

	// Rejected before anything was stored or recorded.
	assert.Zero(t, f.db.created)
	assert.Empty(t, f.storage.files)
	assert.Empty(t, f.ingest.enqueued)
}

func TestUpload_MissingUser(t *testing.T) {
	f := newFixture(t, false)
	buf, ct := multipartUpload(t, "notice.txt", "text/plain", "text")

	req := httptest.NewRequest(http.MethodPost, "/api/gazettes/upload", buf)
	req.Header.Set("Content-Type", ct)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t, false)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/gazettes/does-not-exist", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t, true)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gazettes/search", strings.NewReader(`{"query":"  "}`))
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch_Unconfigured(t *testing.T) {
	f := newFixture(t, false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gazettes/search", strings.NewReader(`{"query":"mining licences"}`))
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearch_OK(t *testing.T) {
	f := newFixture(t, true)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gazettes/search", strings.NewReader(`{"query":"mining licences","limit":3}`))
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	_, ok := body["matches"]
	assert.True(t, ok)
}
