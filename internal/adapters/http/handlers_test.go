package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/coords/internal/adapters/http"
	"github.com/samirrijal/coords/internal/adapters/memory"
	"github.com/samirrijal/coords/internal/core/domain"
	"github.com/samirrijal/coords/internal/core/formatting"
	"github.com/samirrijal/coords/internal/core/usecases"
)

// ---- Mock resolver ----

type mockResolver struct {
	mu    sync.Mutex
	calls int
	words string
	err   error
}

func (m *mockResolver) ConvertTo3WA(ctx context.Context, lat, lon float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.words, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// ---- Helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(resolver *mockResolver) *handler.Dependencies {
	session := usecases.NewLocationSession(domain.ProjectionWGS84Decimal)
	consent := usecases.NewConsentService(memory.NewConsentStore())
	var words *formatting.ThreeWordCache
	if resolver != nil {
		words = formatting.NewThreeWordCache(resolver)
	}
	readouts := usecases.NewReadoutService(session, consent, formatting.New(words), nil)
	return &handler.Dependencies{Session: session, Consent: consent, Readouts: readouts}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, readBody(t, resp.Body)
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("not an APIError: %s", body)
	}
	return apiErr.Code
}

// ---- Projection handler tests ----

func TestListProjections(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body := do(t, app, "GET", "/v1/projections", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result []handler.ProjectionView
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result) != 5 {
		t.Fatalf("expected 5 projections, got %d", len(result))
	}
	if !result[0].Selected || result[0].ID != "wgs84_decimal" {
		t.Errorf("expected wgs84_decimal selected first, got %+v", result[0])
	}
	for _, p := range result {
		if p.ID == "what3words" && p.Allowed {
			t.Error("what3words allowed without consent")
		}
		if p.ID == "utm" && !p.Allowed {
			t.Error("utm should always be allowed")
		}
	}
}

func TestSetProjection(t *testing.T) {
	deps := makeDeps(nil)
	app := setupApp(deps)

	status, _ := do(t, app, "PUT", "/v1/projection", `{"projection":"utm"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if deps.Session.Projection() != domain.ProjectionUTM {
		t.Errorf("expected utm selected, got %s", deps.Session.Projection())
	}

	status, body := do(t, app, "GET", "/v1/projection", "")
	if status != 200 || !strings.Contains(string(body), `"id":"utm"`) {
		t.Errorf("GET /v1/projection = %d %s", status, body)
	}
}

func TestSetProjection_Unknown(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body := do(t, app, "PUT", "/v1/projection", `{"projection":"mgrs"}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "bad_request" {
		t.Errorf("expected bad_request, got %s", code)
	}
}

func TestConsent_GrantAndRevoke(t *testing.T) {
	deps := makeDeps(nil)
	app := setupApp(deps)
	ctx := context.Background()

	status, _ := do(t, app, "PUT", "/v1/projections/what3words/consent", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if ok, _ := deps.Consent.Allowed(ctx, domain.ProjectionWhat3Words); !ok {
		t.Error("consent not granted")
	}

	status, _ = do(t, app, "DELETE", "/v1/projections/what3words/consent", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if ok, _ := deps.Consent.Allowed(ctx, domain.ProjectionWhat3Words); ok {
		t.Error("consent not revoked")
	}
}

func TestConsent_LocalProjection(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, _ := do(t, app, "PUT", "/v1/projections/utm/consent", "")
	if status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
	status, _ = do(t, app, "PUT", "/v1/projections/nope/consent", "")
	if status != 404 {
		t.Errorf("expected 404, got %d", status)
	}
}

// ---- Fix and readout handler tests ----

func TestIngestFix(t *testing.T) {
	deps := makeDeps(nil)
	app := setupApp(deps)

	status, body := do(t, app, "POST", "/v1/fixes", `{"latitude":52.520008,"longitude":13.404954,"accuracy":4}`)
	if status != 202 {
		t.Fatalf("expected 202, got %d: %s", status, body)
	}
	if !strings.Contains(string(body), `"first":true`) {
		t.Errorf("unexpected body %s", body)
	}
	if deps.Session.State() != usecases.StateHasFix {
		t.Error("session has no fix")
	}
}

func TestIngestFix_OutOfRange(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body := do(t, app, "POST", "/v1/fixes", `{"latitude":91,"longitude":0}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, body); code != "bad_request" {
		t.Errorf("expected bad_request, got %s", code)
	}
}

func TestLocation(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body := do(t, app, "GET", "/v1/location", "")
	if status != 200 || !strings.Contains(string(body), `"state":"no_fix_yet"`) {
		t.Fatalf("GET /v1/location = %d %s", status, body)
	}

	do(t, app, "POST", "/v1/fixes", `{"latitude":-33.867,"longitude":151.2093}`)

	_, body = do(t, app, "GET", "/v1/location", "")
	var loc struct {
		State       string `json:"state"`
		LastUpdated string `json:"last_updated"`
		Point       struct {
			Latitude string `json:"latitude"`
		} `json:"point"`
	}
	if err := json.Unmarshal(body, &loc); err != nil {
		t.Fatal(err)
	}
	if loc.State != "has_fix" || loc.Point.Latitude != "-33.867" || len(loc.LastUpdated) != 8 {
		t.Errorf("unexpected location %s", body)
	}
}

func TestReadout_NoFix(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body := do(t, app, "GET", "/v1/readout", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if code := errorCode(t, body); code != "no_fix" {
		t.Errorf("expected no_fix, got %s", code)
	}
}

func TestReadout_DMS(t *testing.T) {
	app := setupApp(makeDeps(nil))
	do(t, app, "POST", "/v1/fixes", `{"latitude":-33.867,"longitude":151.2093,"bearing":90}`)

	status, body := do(t, app, "GET", "/v1/readout?projection=wgs84_dms", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var r struct {
		Projection string                 `json:"projection"`
		Data       []domain.LabelledDatum `json:"data"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		t.Fatal(err)
	}
	if r.Projection != "wgs84_dms" {
		t.Errorf("projection = %s", r.Projection)
	}
	if len(r.Data) != 3 {
		t.Fatalf("expected 3 items, got %d", len(r.Data))
	}
	if !strings.HasPrefix(r.Data[0].Value, "33° 52′ 1.200″") {
		t.Errorf("latitude = %q", r.Data[0].Value)
	}
	if r.Data[2].Label != domain.LabelBearing || r.Data[2].Value != "90°" {
		t.Errorf("bearing = %+v", r.Data[2])
	}
}

func TestReadout_ThreeWordsConsent(t *testing.T) {
	resolver := &mockResolver{words: "filled.count.soap"}
	app := setupApp(makeDeps(resolver))
	do(t, app, "POST", "/v1/fixes", `{"latitude":51.520847,"longitude":-0.195521}`)

	status, body := do(t, app, "GET", "/v1/readout?projection=what3words", "")
	if status != 403 {
		t.Fatalf("expected 403, got %d", status)
	}
	if code := errorCode(t, body); code != "consent_required" {
		t.Errorf("expected consent_required, got %s", code)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver called %d times without consent", resolver.calls)
	}

	do(t, app, "PUT", "/v1/projections/what3words/consent", "")
	status, body = do(t, app, "GET", "/v1/readout?projection=what3words", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if !strings.Contains(string(body), `filled\ncount\nsoap`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestReadout_ThreeWordsFailure(t *testing.T) {
	resolver := &mockResolver{err: errors.New("boom")}
	deps := makeDeps(resolver)
	app := setupApp(deps)
	_ = deps.Consent.Grant(context.Background(), domain.ProjectionWhat3Words)
	do(t, app, "POST", "/v1/fixes", `{"latitude":1,"longitude":1}`)

	status, body := do(t, app, "GET", "/v1/readout?projection=what3words", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"value":"w3w_error"`) || !strings.Contains(string(body), `"value_is_key":true`) {
		t.Errorf("expected error placeholder, got %s", body)
	}
}

// ---- GraphQL ----

func TestGraphQL_Readout(t *testing.T) {
	app := setupApp(makeDeps(nil))
	do(t, app, "POST", "/v1/fixes", `{"latitude":47.365590,"longitude":8.524997}`)

	query := `{"query":"{ readout(projection: \"open_location_code\") { projection data { label value } } }"}`
	status, body := do(t, app, "POST", "/graphql", query)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	var result struct {
		Data struct {
			Readout struct {
				Projection string `json:"projection"`
				Data       []struct {
					Label string `json:"label"`
					Value string `json:"value"`
				} `json:"data"`
			} `json:"readout"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("graphql errors: %v", result.Errors)
	}
	if result.Data.Readout.Projection != "open_location_code" {
		t.Errorf("projection = %q", result.Data.Readout.Projection)
	}
	if len(result.Data.Readout.Data) != 1 || !strings.HasPrefix(result.Data.Readout.Data[0].Value, "8FVC") {
		t.Errorf("unexpected data %+v", result.Data.Readout.Data)
	}
}

func TestGraphQL_SubmitFixAndSelect(t *testing.T) {
	deps := makeDeps(nil)
	app := setupApp(deps)

	mutation := `{"query":"mutation { submitFix(latitude: 10.5, longitude: 20.25) { state latitude } selectProjection(projection: \"utm\") { id selected } }"}`
	status, body := do(t, app, "POST", "/graphql", mutation)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if strings.Contains(string(body), `"errors"`) {
		t.Fatalf("graphql errors: %s", body)
	}
	if deps.Session.State() != usecases.StateHasFix || deps.Session.Projection() != domain.ProjectionUTM {
		t.Errorf("mutation not applied: %s", body)
	}
}

// ---- Health ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, body := do(t, app, "GET", "/v1/health", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(body), `"status":"healthy"`) {
		t.Errorf("unexpected body %s", body)
	}
}

func TestReady_InMemory(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, _ := do(t, app, "GET", "/v1/ready", "")
	if status != 200 {
		t.Errorf("expected 200, got %d", status)
	}
}

func TestReady_StoreDown(t *testing.T) {
	deps := makeDeps(nil)
	deps.Store = mockPinger{err: errors.New("connection refused")}
	app := setupApp(deps)

	status, body := do(t, app, "GET", "/v1/ready", "")
	if status != 503 {
		t.Errorf("expected 503, got %d", status)
	}
	if !strings.Contains(string(body), "connection refused") {
		t.Errorf("unexpected body %s", body)
	}
}

func TestCacheHeaders(t *testing.T) {
	app := setupApp(makeDeps(nil))

	req := httptest.NewRequest("GET", "/v1/location", nil)
	resp, _ := app.Test(req, -1)
	if got := resp.Header.Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestETag(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/projections", nil), -1)
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag on projection list")
	}

	req := httptest.NewRequest("GET", "/v1/projections", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}

	do(t, app, "POST", "/v1/fixes", `{"latitude":52.520008,"longitude":13.404954}`)
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/location", nil), -1)
	if got := resp.Header.Get("ETag"); got != "" {
		t.Errorf("location response should not carry an ETag, got %q", got)
	}
}
