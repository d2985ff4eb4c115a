package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/buscacontatos/buscacontatos/internal/auth"
	"github.com/buscacontatos/buscacontatos/internal/handler"
	"github.com/buscacontatos/buscacontatos/internal/metrics"
	"github.com/buscacontatos/buscacontatos/internal/middleware"
	"github.com/buscacontatos/buscacontatos/internal/model"
	"github.com/buscacontatos/buscacontatos/internal/repository"
	"github.com/buscacontatos/buscacontatos/internal/server"
	"github.com/buscacontatos/buscacontatos/internal/service"
	"github.com/buscacontatos/buscacontatos/internal/session"
	"github.com/buscacontatos/buscacontatos/internal/store"
	"github.com/buscacontatos/buscacontatos/internal/testutil"
)

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, q model.SearchQuery) ([]model.Place, error) {
	return []model.Place{{PlaceID: "p-search", Name: "Padaria", FormattedAddress: "Rua 1", BusinessStatus: "OPERATIONAL"}}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := testutil.DiscardLogger()
	recorder := metrics.NewInMemory()
	s := store.New(store.NewMemory(), store.DefaultKeyPrefix, logger, recorder)
	repo := repository.New(s, repository.WithKeyEnv(auth.EnvTest))

	authSvc := service.NewAuthService(service.AuthServiceConfig{
		Repository: repo,
		Session:    session.New(s),
		Logger:     logger,
		Metrics:    recorder,
	})
	facade := service.NewFacade(service.FacadeConfig{
		Auth:       authSvc,
		Repository: repo,
		Audit:      service.NewAuditLogger(repo, logger),
		Searcher:   stubSearcher{},
		Logger:     logger,
		Metrics:    recorder,
	})
	if _, err := facade.Bootstrap(context.Background(), service.DemoUsers); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	router := server.NewRouter(server.RouterConfig{
		Logger:   logger,
		Service:  facade,
		Version:  "test",
		Store:    facade,
		Metrics:  handler.NewMetricsHandler(nil, recorder),
		Security: middleware.SecurityConfig{IsDevelopment: true, MaxRequestBodySize: 1 << 20},
		CORS:     middleware.DefaultCORSConfig(),
	})

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

type client struct {
	t    *testing.T
	base string
}

func (c client) do(method, path, body string, header ...string) (*http.Response, string) {
	c.t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	if err != nil {
		c.t.Fatalf("NewRequest() error = %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

func (c client) expect(method, path, body string, want int, header ...string) string {
	c.t.Helper()
	resp, got := c.do(method, path, body, header...)
	if resp.StatusCode != want {
		c.t.Fatalf("%s %s status = %d, want %d; body = %s", method, path, resp.StatusCode, want, got)
	}
	return got
}

func TestRouter_DashboardFlow(t *testing.T) {
	t.Parallel()

	c := client{t: t, base: newTestServer(t).URL}

	c.expect(http.MethodGet, "/healthz", "", http.StatusOK)
	c.expect(http.MethodGet, "/readyz", "", http.StatusOK)

	// Nobody is signed in yet.
	c.expect(http.MethodGet, "/api/contacts", "", http.StatusUnauthorized)
	c.expect(http.MethodGet, "/api/session/me", "", http.StatusUnauthorized)

	body := c.expect(http.MethodPost, "/api/session/login", `{"email":"pending@test.com"}`, http.StatusForbidden)
	if !strings.Contains(body, "ACCOUNT_NOT_APPROVED") {
		t.Errorf("pending login body = %s", body)
	}
	c.expect(http.MethodPost, "/api/session/login", `{"email":"ghost@test.com"}`, http.StatusNotFound)

	c.expect(http.MethodPost, "/api/session/login", `{"email":"admin@test.com","password":"anything"}`, http.StatusOK)
	if me := c.expect(http.MethodGet, "/api/session/me", "", http.StatusOK); !strings.Contains(me, `"Admin User"`) {
		t.Errorf("me = %s", me)
	}

	contact := `{"contacts":[{"place_id":"p1","name":"Padaria, Central","formatted_address":"Rua 1","rating":4.5,"user_ratings_total":3,"business_status":"OPERATIONAL"}]}`
	c.expect(http.MethodPost, "/api/contacts", contact, http.StatusOK)
	list := c.expect(http.MethodPost, "/api/contacts", contact, http.StatusOK)
	var contacts []model.Contact
	if err := json.Unmarshal([]byte(list), &contacts); err != nil {
		t.Fatalf("decode contacts: %v", err)
	}
	if len(contacts) != 1 || contacts[0].ConsentTimestamp.IsZero() {
		t.Errorf("contacts = %+v, want one stamped contact", contacts)
	}

	resp, csv := c.do(http.MethodGet, "/api/contacts/export.csv", "")
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Errorf("export Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(csv, `"Padaria, Central"`) {
		t.Errorf("export body = %s", csv)
	}

	if places := c.expect(http.MethodPost, "/api/search", `{"segment":"padaria","location":"Curitiba","radius_km":5,"max_results":5}`, http.StatusOK); !strings.Contains(places, "p-search") {
		t.Errorf("search body = %s", places)
	}

	created := c.expect(http.MethodPost, "/api/api-keys", `{"label":"CRM"}`, http.StatusCreated)
	var key struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	}
	if err := json.Unmarshal([]byte(created), &key); err != nil || !strings.HasPrefix(key.Key, "sk_test_") {
		t.Fatalf("api key response = %s (%v)", created, err)
	}

	// Programmatic access uses the key, not the session.
	c.expect(http.MethodGet, "/v1/contatos", "", http.StatusUnauthorized)
	if got := c.expect(http.MethodGet, "/v1/contatos", "", http.StatusOK, "Authorization", "Bearer "+key.Key); !strings.Contains(got, `"p1"`) {
		t.Errorf("v1 contatos = %s", got)
	}

	c.expect(http.MethodDelete, "/api/contacts/p1", "", http.StatusOK)
	c.expect(http.MethodDelete, "/api/api-keys/"+key.ID, "", http.StatusNoContent)
	c.expect(http.MethodGet, "/v1/contatos", "", http.StatusUnauthorized, "X-API-Key", key.Key)

	c.expect(http.MethodPost, "/api/session/logout", "", http.StatusNoContent)
	c.expect(http.MethodGet, "/api/contacts", "", http.StatusUnauthorized)
}

func TestRouter_AdminFlow(t *testing.T) {
	t.Parallel()

	c := client{t: t, base: newTestServer(t).URL}

	c.expect(http.MethodPost, "/api/session/login", `{"email":"user@test.com"}`, http.StatusOK)
	c.expect(http.MethodGet, "/api/admin/users", "", http.StatusForbidden)
	c.expect(http.MethodPatch, "/api/admin/users/user-3", `{"status":"APPROVED"}`, http.StatusForbidden)

	c.expect(http.MethodPost, "/api/session/login", `{"email":"admin@test.com"}`, http.StatusOK)
	if users := c.expect(http.MethodGet, "/api/admin/users", "", http.StatusOK); !strings.Contains(users, "pending@test.com") {
		t.Errorf("users = %s", users)
	}

	c.expect(http.MethodPatch, "/api/admin/users/user-3", `{"status":"APPROVED"}`, http.StatusNoContent)
	c.expect(http.MethodPatch, "/api/admin/users/user-1", `{"role":"USER"}`, http.StatusNotFound)
	c.expect(http.MethodDelete, "/api/admin/users/user-1", "", http.StatusNotFound)
	c.expect(http.MethodDelete, "/api/admin/users/user-2", "", http.StatusNoContent)
	c.expect(http.MethodDelete, "/api/admin/users/user-2", "", http.StatusNotFound)

	var entries []model.AuditLogEntry
	if err := json.Unmarshal([]byte(c.expect(http.MethodGet, "/api/admin/audit-logs", "", http.StatusOK)), &entries); err != nil {
		t.Fatalf("decode audit log: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0].Action != service.AuditActionDelete || entries[1].Action != "User status updated to APPROVED" {
		t.Errorf("audit actions = %q, %q", entries[0].Action, entries[1].Action)
	}

	// The approved user can now sign in.
	c.expect(http.MethodPost, "/api/session/login", `{"email":"pending@test.com"}`, http.StatusOK)
}

func TestRouter_Fallbacks(t *testing.T) {
	t.Parallel()

	c := client{t: t, base: newTestServer(t).URL}

	if body := c.expect(http.MethodGet, "/nope", "", http.StatusNotFound); !strings.Contains(body, `"code":"NOT_FOUND"`) {
		t.Errorf("404 body = %s", body)
	}
	c.expect(http.MethodPut, "/api/session/login", `{}`, http.StatusMethodNotAllowed)
	c.expect(http.MethodPost, "/api/session/login", `{"email":`, http.StatusBadRequest)

	resp, _ := c.do(http.MethodGet, "/healthz", "")
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	if body := c.expect(http.MethodGet, "/metrics", "", http.StatusOK); !strings.Contains(body, "buscacontatos_contacts_saved_total") {
		t.Errorf("metrics body = %s", body)
	}
}
