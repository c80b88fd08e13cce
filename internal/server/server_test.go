package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rabbitmq/amqp091-go"

	"github.com/alaris-labs/papergraph/internal/queue"
	mid "github.com/alaris-labs/papergraph/internal/server/middleware"
	"github.com/alaris-labs/papergraph/pkg/ai"
	"github.com/alaris-labs/papergraph/pkg/graph"
	"github.com/alaris-labs/papergraph/pkg/store"
)

type fakeReader struct {
	papers      map[string]store.NodeRow
	concepts    []store.NodeRow
	similarArgs []any
	titleArgs   []any
	fail        error
}

func (f *fakeReader) ListPapers(ctx context.Context) ([]store.PaperSummary, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]store.PaperSummary, 0)
	for _, p := range f.papers {
		out = append(out, store.PaperSummary{ID: p.ID, Title: p.Title})
	}
	return out, nil
}

func (f *fakeReader) GetPaper(ctx context.Context, id string) (store.NodeRow, error) {
	p, ok := f.papers[id]
	if !ok {
		return store.NodeRow{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeReader) GetPaperConcepts(ctx context.Context, id string) ([]store.NodeRow, error) {
	return f.concepts, nil
}

func (f *fakeReader) GetPaperAuthors(ctx context.Context, id string) ([]store.NodeRow, error) {
	return []store.NodeRow{}, nil
}

func (f *fakeReader) GetPaperSections(ctx context.Context, id string) ([]store.NodeRow, error) {
	return []store.NodeRow{{
		ID:    "section:0",
		Type:  graph.NodeTypeSection,
		Title: "introduction",
		Data:  graph.SectionData{Heading: "introduction", Text: strings.Repeat("x", 5000)},
	}}, nil
}

func (f *fakeReader) SearchPapersByConcept(ctx context.Context, search string) ([]store.ConceptMatch, error) {
	return store.GroupConceptMatches([]store.ConceptPaperRow{
		{ConceptID: "concept:nerf", ConceptTitle: "NeRF", PaperID: "paper:a", PaperTitle: "A"},
	}), nil
}

func (f *fakeReader) SearchPapersByTitle(ctx context.Context, title string, limit int) ([]store.PaperSummary, error) {
	f.titleArgs = []any{title, limit}
	return []store.PaperSummary{{ID: "paper:a", Title: "A"}}, nil
}

func (f *fakeReader) SimilarPapers(ctx context.Context, id string, limit int) ([]store.SimilarPaper, error) {
	f.similarArgs = []any{id, limit}
	return []store.SimilarPaper{{ID: "paper:b", Title: "B", SharedConcepts: 2}}, nil
}

type fakeQueue struct {
	published []amqp091.Publishing
	keys      []string
}

func (q *fakeQueue) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error) {
	return amqp091.Queue{Name: name}, nil
}

func (q *fakeQueue) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	q.keys = append(q.keys, key)
	q.published = append(q.published, msg)
	return nil
}

type fakeUploader struct {
	names  []string
	bodies []string
}

func (u *fakeUploader) PutFile(ctx context.Context, prefix, name string, body io.Reader) (string, error) {
	b, _ := io.ReadAll(body)
	u.names = append(u.names, name)
	u.bodies = append(u.bodies, string(b))
	return prefix + "/abc.pdf", nil
}

type fakeAI struct {
	prompt string
	err    error
}

func (f *fakeAI) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.prompt = prompt
	return "A paper about splats.", f.err
}

func (f *fakeAI) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return errors.New("not used")
}

func (f *fakeAI) LoadModel(ctx context.Context, opts ...ai.GenerateOption) error { return nil }
func (f *fakeAI) ResetMetrics() {}
func (f *fakeAI) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func newTestApp() (*mid.App, *fakeReader) {
	reader := &fakeReader{
		papers: map[string]store.NodeRow{
			"paper:a": {ID: "paper:a", Type: graph.NodeTypePaper, Title: "A", Data: graph.PaperData{Title: "A"}},
		},
		concepts: []store.NodeRow{{ID: "concept:nerf", Type: graph.NodeTypeConcept, Title: "NeRF", Data: graph.ConceptData{Name: "NeRF"}}},
	}
	return &mid.App{Store: reader}, reader
}

func do(t *testing.T, app *mid.App, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	New(app, "1M").ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp()
	rec := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadRoutes(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
		wantKeys []string
	}{
		{name: "list", path: "/papers", wantCode: http.StatusOK, wantKeys: []string{"count", "papers"}},
		{name: "get", path: "/papers/paper:a", wantCode: http.StatusOK, wantKeys: []string{"paper", "concepts", "authors", "sections"}},
		{name: "get missing", path: "/papers/paper:zzz", wantCode: http.StatusNotFound, wantKeys: []string{"error"}},
		{name: "similar", path: "/papers/paper:a/similar?limit=5", wantCode: http.StatusOK, wantKeys: []string{"paperId", "similar"}},
		{name: "similar missing", path: "/papers/paper:zzz/similar", wantCode: http.StatusNotFound, wantKeys: []string{"error"}},
		{name: "similar bad limit", path: "/papers/paper:a/similar?limit=1000", wantCode: http.StatusBadRequest, wantKeys: []string{"error"}},
		{name: "concepts", path: "/concepts/nerf/papers", wantCode: http.StatusOK, wantKeys: []string{"conceptSearch", "results"}},
		{name: "search", path: "/papers/search?title=splat", wantCode: http.StatusOK, wantKeys: []string{"title", "count", "papers"}},
		{name: "search without title", path: "/papers/search", wantCode: http.StatusBadRequest, wantKeys: []string{"error"}},
		{name: "explain unconfigured", path: "/papers/paper:a/explain", wantCode: http.StatusServiceUnavailable, wantKeys: []string{"error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp()
			rec := do(t, app, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("GET %s = %d, want %d: %s", tt.path, rec.Code, tt.wantCode, rec.Body.String())
			}
			body := decode(t, rec)
			for _, k := range tt.wantKeys {
				if _, ok := body[k]; !ok {
					t.Fatalf("response %v is missing %q", body, k)
				}
			}
		})
	}
}

func TestGetPaperPayload(t *testing.T) {
	app, _ := newTestApp()
	rec := do(t, app, httptest.NewRequest(http.MethodGet, "/papers/paper:a", nil))
	body := decode(t, rec)

	paper := body["paper"].(map[string]any)
	if paper["type"] != "Paper" || paper["title"] != "A" {
		t.Fatalf("paper = %v", paper)
	}
	concepts := body["concepts"].([]any)
	if len(concepts) != 1 || concepts[0].(map[string]any)["id"] != "concept:nerf" {
		t.Fatalf("concepts = %v", concepts)
	}
}

func TestQueryParamsReachStore(t *testing.T) {
	app, reader := newTestApp()
	do(t, app, httptest.NewRequest(http.MethodGet, "/papers/paper:a/similar?limit=5", nil))
	if reader.similarArgs[0] != "paper:a" || reader.similarArgs[1] != 5 {
		t.Fatalf("similar args = %v", reader.similarArgs)
	}
	do(t, app, httptest.NewRequest(http.MethodGet, "/papers/search?title=gauss&limit=3", nil))
	if reader.titleArgs[0] != "gauss" || reader.titleArgs[1] != 3 {
		t.Fatalf("title args = %v", reader.titleArgs)
	}
}

func TestStoreFailure(t *testing.T) {
	app, reader := newTestApp()
	reader.fail = errors.New("connection reset")
	rec := do(t, app, httptest.NewRequest(http.MethodGet, "/papers", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("GET /papers = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("internal error leaked: %s", rec.Body.String())
	}
}

func TestExplain(t *testing.T) {
	app, _ := newTestApp()
	model := &fakeAI{}
	app.AIClient = model

	rec := do(t, app, httptest.NewRequest(http.MethodGet, "/papers/paper:a/explain", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET explain = %d: %s", rec.Code, rec.Body.String())
	}
	if decode(t, rec)["explanation"] != "A paper about splats." {
		t.Fatalf("explanation = %s", rec.Body.String())
	}
	if !strings.Contains(model.prompt, "concept:nerf") || strings.Contains(model.prompt, strings.Repeat("x", 2001)) {
		t.Fatalf("prompt does not carry the truncated graph")
	}

	model.err = errors.New("rate limited")
	rec = do(t, app, httptest.NewRequest(http.MethodGet, "/papers/paper:a/explain", nil))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("GET explain with failing model = %d", rec.Code)
	}
}

func TestUploadPaper(t *testing.T) {
	app, _ := newTestApp()
	q := &fakeQueue{}
	up := &fakeUploader{}
	app.Queue = q
	app.Uploads = up

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "splats.pdf")
	part.Write([]byte("%PDF-1.7"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/papers", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := do(t, app, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /papers = %d: %s", rec.Code, rec.Body.String())
	}
	if len(up.names) != 1 || up.names[0] != "splats.pdf" || up.bodies[0] != "%PDF-1.7" {
		t.Fatalf("uploads = %v", up.names)
	}
	if len(q.keys) != 1 || q.keys[0] != queue.IngestQueue {
		t.Fatalf("published to %v", q.keys)
	}
	msg, err := queue.DecodeIngestMsg(q.published[0].Body)
	if err != nil || msg.FileKey != "papers/uploads/abc.pdf" || msg.FileName != "splats.pdf" {
		t.Fatalf("message = %+v, %v", msg, err)
	}
	if q.published[0].CorrelationId != msg.CorrelationID {
		t.Fatalf("correlation id mismatch")
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	app, _ := newTestApp()
	app.Queue = &fakeQueue{}
	app.Uploads = &fakeUploader{}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, _ := w.CreateFormFile("file", "slides.pptx")
	part.Write([]byte("x"))
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/papers", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if rec := do(t, app, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /papers = %d, want 400", rec.Code)
	}
}

func TestIngestPaper(t *testing.T) {
	app, _ := newTestApp()
	q := &fakeQueue{}
	app.Queue = q

	req := httptest.NewRequest(http.MethodPost, "/papers/ingest", strings.NewReader(`{"file_key":"papers/uploads/x.pdf"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := do(t, app, req); rec.Code != http.StatusAccepted {
		t.Fatalf("POST /papers/ingest = %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/papers/ingest", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := do(t, app, req); rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /papers/ingest without key = %d, want 400", rec.Code)
	}
	if len(q.published) != 1 {
		t.Fatalf("published = %d, want 1", len(q.published))
	}
}

func TestIngestWithoutQueue(t *testing.T) {
	app, _ := newTestApp()
	req := httptest.NewRequest(http.MethodPost, "/papers/ingest", strings.NewReader(`{"file_key":"k"}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := do(t, app, req); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("POST /papers/ingest = %d, want 503", rec.Code)
	}
}

var testSecret = []byte("test-secret")

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func TestAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{name: "health is public", method: http.MethodGet, path: "/health", wantCode: http.StatusOK},
		{name: "missing token", method: http.MethodGet, path: "/papers", wantCode: http.StatusUnauthorized},
		{name: "master key", method: http.MethodGet, path: "/papers", token: "master", wantCode: http.StatusOK},
		{name: "valid jwt", method: http.MethodGet, path: "/papers", token: signed(t, jwt.MapClaims{"sub": "u1", "exp": exp}), wantCode: http.StatusOK},
		{name: "numeric id", method: http.MethodGet, path: "/papers", token: signed(t, jwt.MapClaims{"id": float64(7), "exp": exp}), wantCode: http.StatusOK},
		{name: "expired jwt", method: http.MethodGet, path: "/papers", token: signed(t, jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Hour).Unix()}), wantCode: http.StatusUnauthorized},
		{name: "no user id", method: http.MethodGet, path: "/papers", token: signed(t, jwt.MapClaims{"exp": exp}), wantCode: http.StatusUnauthorized},
		{name: "reader cannot ingest", method: http.MethodPost, path: "/papers/ingest", token: signed(t, jwt.MapClaims{"sub": "u1", "exp": exp}), wantCode: http.StatusForbidden},
		{name: "admin can ingest", method: http.MethodPost, path: "/papers/ingest", token: signed(t, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": exp}), wantCode: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp()
			app.AuthEnabled = true
			app.MasterAPIKey = "master"
			app.Queue = &fakeQueue{}
			app.Keyfunc = func(*jwt.Token) (any, error) { return testSecret, nil }

			var body io.Reader
			if tt.method == http.MethodPost {
				body = strings.NewReader(`{"file_key":"k"}`)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			if rec := do(t, app, req); rec.Code != tt.wantCode {
				t.Fatalf("%s %s = %d, want %d: %s", tt.method, tt.path, rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}
