package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testGateway(cfg SecConfig) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.Header.Get("X-Role-Name")))
	})
	return AuthenticateRequestMiddleware(cfg)(ok)
}

func testSecConfig() SecConfig {
	return SecConfig{
		RPS:          100,
		Burst:        100,
		BackendKeys:  map[string]struct{}{"bk": {}},
		FrontendKeys: map[string]struct{}{"fk": {}},
		AdminKeys:    map[string]struct{}{"ak": {}},
	}
}

func doReq(t *testing.T, h http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGatewayRejectsMissingKey(t *testing.T) {
	h := testGateway(testSecConfig())
	rr := doReq(t, h, http.MethodGet, "/v1/streams/s1/interactions", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", rr.Code)
	}
}

func TestGatewayHealthBypassesAuth(t *testing.T) {
	h := testGateway(testSecConfig())
	for _, p := range []string{"/healthz", "/readyz"} {
		rr := doReq(t, h, http.MethodGet, p, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: got %d, want 200", p, rr.Code)
		}
	}
}

func TestGatewayRoles(t *testing.T) {
	h := testGateway(testSecConfig())

	rr := doReq(t, h, http.MethodGet, "/v1/streams/s1/interactions", map[string]string{"X-API-Key": "bk"})
	if rr.Code != http.StatusOK || rr.Body.String() != "backend" {
		t.Fatalf("backend key: %d %q", rr.Code, rr.Body.String())
	}

	rr = doReq(t, h, http.MethodGet, "/v1/streams/s1/interactions", map[string]string{"Authorization": "Bearer ak"})
	if rr.Code != http.StatusOK || rr.Body.String() != "admin" {
		t.Fatalf("admin bearer: %d %q", rr.Code, rr.Body.String())
	}

	rr = doReq(t, h, http.MethodGet, "/v1/streams/s1/interactions", map[string]string{"X-API-Key": "unknown"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown key: got %d, want 401", rr.Code)
	}
}

func TestGatewayFrontendScope(t *testing.T) {
	h := testGateway(testSecConfig())

	// frontend may read and submit within streams
	rr := doReq(t, h, http.MethodGet, "/v1/streams/s1/interactions", map[string]string{"X-API-Key": "fk"})
	if rr.Code != http.StatusOK {
		t.Fatalf("frontend read: got %d", rr.Code)
	}
	rr = doReq(t, h, http.MethodPost, "/v1/streams/s1/chat", map[string]string{"X-API-Key": "fk"})
	if rr.Code != http.StatusOK {
		t.Fatalf("frontend chat: got %d", rr.Code)
	}

	// but not create polls or leave the streams namespace
	rr = doReq(t, h, http.MethodPost, "/v1/streams/s1/polls", map[string]string{"X-API-Key": "fk"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("frontend poll create: got %d, want 403", rr.Code)
	}
	rr = doReq(t, h, http.MethodDelete, "/v1/streams/s1/chat", map[string]string{"X-API-Key": "fk"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("frontend delete: got %d, want 403", rr.Code)
	}
}

func TestGatewayWSKeyViaQuery(t *testing.T) {
	h := testGateway(testSecConfig())
	rr := doReq(t, h, http.MethodGet, "/v1/streams/s1/ws?api_key=fk", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("ws query key: got %d", rr.Code)
	}
}

func TestGatewayRateLimit(t *testing.T) {
	cfg := testSecConfig()
	cfg.RPS = 1
	cfg.Burst = 2
	h := testGateway(cfg)

	codes := []int{}
	for i := 0; i < 3; i++ {
		rr := doReq(t, h, http.MethodGet, "/v1/streams/s1/interactions", map[string]string{"X-API-Key": "bk"})
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %v", codes)
	}
}

func TestGatewayCORSPreflight(t *testing.T) {
	cfg := testSecConfig()
	cfg.AllowedOrigins = []string{"https://watch.example.com"}
	h := testGateway(cfg)

	rr := doReq(t, h, http.MethodOptions, "/v1/streams/s1/chat", map[string]string{
		"Origin": "https://watch.example.com",
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight: got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://watch.example.com" {
		t.Fatalf("allow-origin = %q", got)
	}

	rr = doReq(t, h, http.MethodOptions, "/v1/streams/s1/chat", map[string]string{
		"Origin": "https://evil.example.com",
	})
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin echoed: %q", got)
	}
}

func TestGatewayIPWhitelist(t *testing.T) {
	cfg := testSecConfig()
	cfg.IPWhitelist = []string{"10.1.2.3"}
	h := testGateway(cfg)

	// httptest requests come from 192.0.2.1
	rr := doReq(t, h, http.MethodGet, "/v1/streams/s1/interactions", map[string]string{"X-API-Key": "bk"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-whitelisted ip: got %d, want 403", rr.Code)
	}
}
