package routes_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/savoria/orderdesk/internal/infra/config"
	"github.com/savoria/orderdesk/internal/infra/security"
	httproutes "github.com/savoria/orderdesk/internal/transport/http/routes"
)

type stubChecker struct {
	err error
}

func (s stubChecker) Ping(ctx context.Context) error        { return s.err }
func (s stubChecker) HealthCheck(ctx context.Context) error { return s.err }

func testDeps(t *testing.T) httproutes.Dependencies {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := security.NewTokenManager([]byte("0123456789abcdef0123456789abcdef"), "orderdesk-test", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}

	return httproutes.Dependencies{
		Config: &config.AppConfig{App: config.AppSettings{Env: "test"}},
		Logger: zaptest.NewLogger(t),
		Tokens: tokens,
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := httproutes.Register(testDeps(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestReadinessReportsDegradedDependency(t *testing.T) {
	deps := testDeps(t)
	deps.Database = stubChecker{err: errors.New("connection refused")}
	deps.Cache = stubChecker{}

	r := httproutes.Register(deps)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/readyz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}
}

func TestReadinessHealthyDependencies(t *testing.T) {
	deps := testDeps(t)
	deps.Database = stubChecker{}
	deps.Cache = stubChecker{}

	r := httproutes.Register(deps)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/readyz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestGuardedRoutesRequireAuthentication(t *testing.T) {
	r := httproutes.Register(testDeps(t))

	for _, path := range []string{"/api/v1/audit", "/api/v1/users", "/api/v1/orders", "/api/v1/dashboard"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)

		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected status 401, got %d", path, w.Code)
		}
	}
}

func TestSecurityQuestionCatalogIsPublic(t *testing.T) {
	r := httproutes.Register(testDeps(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/password/questions", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}
