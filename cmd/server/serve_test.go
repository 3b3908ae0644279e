package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractdesk/internal/identity"
	"contractdesk/internal/platform/config"
	"contractdesk/pkg/domain"
	"contractdesk/pkg/testutil"
)

func memoryConfig() config.Server {
	return config.Server{
		Environment:     "test",
		Addr:            ":0",
		ShutdownTimeout: time.Second,
		LogLevel:        "error",
		JWTSigningKey:   "router-test-signing-key",
		JWTIssuer:       "contractdesk",
		JWTTTL:          time.Hour,
		RateLimit: config.RateLimit{
			Enabled:  true,
			Requests: 100,
			Period:   time.Minute,
			Storage:  "memory",
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *app) {
	t.Helper()
	a, err := newApp(context.Background(), memoryConfig())
	require.NoError(t, err)
	router, err := newRouter(a, nil)
	require.NoError(t, err)
	return router, a
}

func bearer(t *testing.T, cfg config.Server, role domain.Role) string {
	t.Helper()
	token, err := identity.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer).IssueToken(testutil.NewPrincipal(role), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestRouterRequiresBearerToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/contracts", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	req := testutil.NewJSONRequest(t, http.MethodGet, "/contracts", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestRouterLimitsUnauthenticatedClients(t *testing.T) {
	cfg := memoryConfig()
	cfg.RateLimit.Requests = 2
	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	router, err := newRouter(a, nil)
	require.NoError(t, err)

	anonymous := func(remote string) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/contracts", nil)
		req.RemoteAddr = remote
		return testutil.DoRequest(router, req)
	}
	testutil.AssertStatusAndError(t, anonymous("198.51.100.7:4000"), http.StatusUnauthorized, "unauthorized")
	testutil.AssertStatusAndError(t, anonymous("198.51.100.7:4001"), http.StatusUnauthorized, "unauthorized")
	testutil.AssertStatusAndError(t, anonymous("198.51.100.7:4002"), http.StatusTooManyRequests, "rate_limited")
	testutil.AssertStatusAndError(t, anonymous("198.51.100.8:4000"), http.StatusUnauthorized, "unauthorized")
}

func TestRouterContractAndAnnotationFlow(t *testing.T) {
	router, a := newTestRouter(t)
	authz := bearer(t, a.cfg, domain.RoleUser)
	do := func(method, path string, body any) map[string]any {
		t.Helper()
		req := testutil.NewJSONRequest(t, method, path, body)
		req.Header.Set("Authorization", authz)
		rr := testutil.DoRequest(router, req)
		require.Less(t, rr.Code, 300, rr.Body.String())
		return testutil.DecodeJSON[map[string]any](t, rr)
	}

	created := do(http.MethodPost, "/contracts", map[string]any{
		"contract_number":  "CD-ROUTER-1",
		"name":             "Supply agreement",
		"type":             "supply",
		"category":         "commercial",
		"effective_date":   "2026-01-01",
		"expiration_date":  "2027-01-01",
		"document_content": "The supplier shall deliver monthly.",
	})
	contractID, ok := created["id"].(string)
	require.True(t, ok)

	do(http.MethodPost, "/comments", map[string]any{
		"contract_id": contractID,
		"body":        "Check the delivery cadence",
	})
	do(http.MethodPost, "/contracts/"+contractID+"/issues", map[string]any{
		"title": "Delivery terms unclear",
		"tags":  []string{"Legal"},
	})

	overview := do(http.MethodGet, "/contracts/"+contractID+"/overview", nil)
	assert.EqualValues(t, 1, overview["comment_count"])
	assert.Len(t, overview["issues"], 1)
	assert.Equal(t, map[string]any{"open": float64(1)}, overview["issue_counts"])
}

func TestPurgeRequiresAdmin(t *testing.T) {
	router, a := newTestRouter(t)
	authz := bearer(t, a.cfg, domain.RoleUser)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/contracts", map[string]any{
		"contract_number": "CD-PURGE-1",
		"name":            "Lease",
		"type":            "lease",
		"category":        "real_estate",
		"effective_date":  "2026-01-01",
		"expiration_date": "2027-01-01",
	})
	req.Header.Set("Authorization", authz)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	contractID, err := domain.ParseContractID(testutil.DecodeJSON[map[string]any](t, rr)["id"].(string))
	require.NoError(t, err)

	req = testutil.NewJSONRequest(t, http.MethodPost, "/comments", map[string]any{
		"contract_id": contractID.String(),
		"body":        "Renewal clause missing",
	})
	req.Header.Set("Authorization", authz)
	testutil.AssertStatus(t, testutil.DoRequest(router, req), http.StatusCreated)

	userCtx := testutil.AuthedContext(testutil.NewPrincipal(domain.RoleUser), time.Now())
	err = a.contracts.Purge(userCtx, contractID)
	require.Error(t, err)

	adminCtx := testutil.AuthedContext(testutil.NewPrincipal(domain.RoleAdmin), time.Now())
	require.NoError(t, a.contracts.Purge(adminCtx, contractID))

	req = testutil.NewJSONRequest(t, http.MethodGet, "/contracts/"+contractID.String()+"/comments", nil)
	req.Header.Set("Authorization", authz)
	rr = testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}
