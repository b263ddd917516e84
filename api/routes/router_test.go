package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/pmcafe/kiosk/internal/auth"
	"github.com/pmcafe/kiosk/internal/backoffice"
	"github.com/pmcafe/kiosk/internal/cells"
	"github.com/pmcafe/kiosk/internal/checkout"
	"github.com/pmcafe/kiosk/internal/kiosk"
	"github.com/pmcafe/kiosk/internal/orders"
	"github.com/pmcafe/kiosk/pkg/auth/session"
	"github.com/pmcafe/kiosk/pkg/config"
	"github.com/pmcafe/kiosk/pkg/enums"
	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/metrics"
	"github.com/pmcafe/kiosk/pkg/models"
)

type memoryRedis struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{values: map[string]string{}, counters: map[string]int64{}}
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (m *memoryRedis) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memoryRedis) RateLimitKey(scope string) string { return "rl:" + scope }

type stubAuth struct {
	sessions map[string]session.Session
}

func (s stubAuth) Login(_ context.Context, req auth.LoginRequest) (auth.LoginResponse, error) {
	return auth.LoginResponse{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "아이디 또는 비밀번호가 올바르지 않습니다")
}

func (s stubAuth) Verify(_ context.Context, id string) (models.AdminUser, error) {
	sess, err := s.Authenticate(context.Background(), id)
	return sess.User, err
}

func (s stubAuth) Logout(context.Context, string) error { return nil }

func (s stubAuth) Authenticate(_ context.Context, id string) (session.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return session.Session{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "로그인이 만료되었습니다")
	}
	return sess, nil
}

type stubBackoffice struct {
	backoffice.Service
}

func (stubBackoffice) ConfirmSettlement(_ context.Context, _ models.AdminUser, date, _ string) (models.Settlement, error) {
	return models.Settlement{Date: date, IsConfirmed: true}, nil
}

type stubCells struct {
	cells.Service
}

func (stubCells) List(context.Context, bool) ([]models.Cell, error) {
	return []models.Cell{}, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.AuthRateLimit.LoginWindow = time.Minute
	cfg.AuthRateLimit.LoginIPLimit = 100
	cfg.AuthRateLimit.LoginUserLimit = 2
	cfg.AuthRateLimit.CellAuthWindow = time.Minute
	cfg.AuthRateLimit.CellAuthIPLimit = 100
	cfg.AuthRateLimit.CellAuthCodeLimit = 3
	cfg.Session.IdempotencyTTL = time.Minute
	return cfg
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(reg)

	gw := orders.NewLocalGateway()
	repo, err := orders.NewRepository(orders.RepositoryParams{Gateway: gw, Metrics: orderMetrics})
	if err != nil {
		t.Fatalf("repository: %v", err)
	}
	svc, err := checkout.NewService(checkout.ServiceParams{Repository: repo, Gateway: gw, Metrics: orderMetrics})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	manager, err := kiosk.NewManager(kiosk.ManagerParams{Submitter: svc, Metrics: orderMetrics})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(manager.CloseAll)

	return NewRouter(testConfig(), nil, Dependencies{
		Redis:    newMemoryRedis(),
		Metrics:  reg,
		Sessions: manager,
		Orders:   repo,
		Cells:    stubCells{},
		Auth: stubAuth{sessions: map[string]session.Session{
			"super":  {ID: "super", Token: "t1", User: models.AdminUser{Username: "boss", Role: enums.AdminRoleSuper}},
			"normal": {ID: "normal", Token: "t2", User: models.AdminUser{Username: "staff", Role: enums.AdminRoleNormal}},
		}},
		Backoffice: stubBackoffice{},
	})
}

func serve(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		if resp := serve(router, http.MethodGet, path, "", nil); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
	// opening a session sets the active sessions gauge
	serve(router, http.MethodPost, "/api/v1/kiosk/sessions", "", nil)
	resp := serve(router, http.MethodGet, "/metrics", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "kiosk_sessions_active 1") {
		t.Fatalf("expected session gauge, got %q", resp.Body.String())
	}
}

func TestRequestIDEchoed(t *testing.T) {
	router := newTestRouter(t)
	resp := serve(router, http.MethodGet, "/health/live", "", map[string]string{"X-Request-Id": "abc-123"})
	if got := resp.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}

func TestKioskSubmitRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(t)
	resp := serve(router, http.MethodPost, "/api/v1/kiosk/sessions", "", nil)
	if resp.Code != http.StatusCreated {
		t.Fatalf("open: expected 201 got %d", resp.Code)
	}
	id := extractSessionID(t, resp.Body.String())

	resp = serve(router, http.MethodPost, "/api/v1/kiosk/sessions/"+id+"/submit", "", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
	resp = serve(router, http.MethodPost, "/api/v1/kiosk/sessions/"+id+"/submit", "", map[string]string{"Idempotency-Key": "k1"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 from HOME, got %d", resp.Code)
	}
}

func TestCellAuthRateLimitedPerCode(t *testing.T) {
	router := newTestRouter(t)
	body := `{"phoneLast4":"1234"}`
	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = serve(router, http.MethodPost, "/api/v1/kiosk/sessions/none/cell-auth", body, nil)
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the code limit, got %d", last.Code)
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	router := newTestRouter(t)
	if resp := serve(router, http.MethodGet, "/api/admin/v1/cells", "", nil); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
	if resp := serve(router, http.MethodGet, "/api/admin/v1/cells", "", map[string]string{"Authorization": "Bearer normal"}); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestSettlementConfirmNeedsSuperAdmin(t *testing.T) {
	router := newTestRouter(t)
	path := "/api/admin/v1/settlements/2025-03-01/confirm"
	if resp := serve(router, http.MethodPost, path, `{}`, map[string]string{"Authorization": "Bearer normal"}); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for normal admin got %d", resp.Code)
	}
	if resp := serve(router, http.MethodPost, path, `{}`, map[string]string{"Authorization": "Bearer super"}); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for super admin got %d", resp.Code)
	}
}

func TestAdminLoginRateLimited(t *testing.T) {
	router := newTestRouter(t)
	body := `{"username":"boss","password":"wrong"}`
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, serve(router, http.MethodPost, "/api/admin/v1/auth/login", body, nil).Code)
	}
	if codes[0] != http.StatusUnauthorized || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}
}

func extractSessionID(t *testing.T, body string) string {
	t.Helper()
	const marker = `"sessionId":"`
	i := strings.Index(body, marker)
	if i < 0 {
		t.Fatalf("no session id in %q", body)
	}
	rest := body[i+len(marker):]
	return rest[:strings.Index(rest, `"`)]
}
