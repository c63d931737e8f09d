package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	manager, err := New(Config{Secret: []byte("test-secret"), TTL: ttl})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	manager := testManager(t, time.Hour)
	token, csrf, expires, err := manager.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if csrf == "" || expires.Before(time.Now()) {
		t.Fatalf("unexpected issue result: csrf=%q expires=%v", csrf, expires)
	}
	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.CSRF != csrf {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	manager := testManager(t, time.Millisecond)
	token, _, _, err := manager.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := manager.Validate(token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestValidateRejectsForeignSignature(t *testing.T) {
	issuer := testManager(t, time.Hour)
	verifier, err := New(Config{Secret: []byte("other-secret")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, _, _, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Validate(token); err == nil {
		t.Fatal("expected foreign signature to fail")
	}
}

func TestResolverReadsCookie(t *testing.T) {
	manager := testManager(t, time.Hour)
	token, csrf, expires, err := manager.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	recorder := httptest.NewRecorder()
	manager.SetCookie(recorder, token, expires)

	request := httptest.NewRequest(http.MethodGet, "/dashboard?screen=main", nil)
	for _, cookie := range recorder.Result().Cookies() {
		request.AddCookie(cookie)
	}

	viewer, ok := manager.Resolver()(request)
	if !ok || viewer.UserID != "u1" {
		t.Fatalf("expected resolved viewer, got %#v ok=%v", viewer, ok)
	}
	if viewer.Path != "/dashboard?screen=main" {
		t.Fatalf("unexpected path %q", viewer.Path)
	}
	if got := manager.CSRFSource()(request); got != csrf {
		t.Fatalf("expected csrf %q, got %q", csrf, got)
	}
}

func TestCookieHeaderRoundTrip(t *testing.T) {
	manager := testManager(t, time.Hour)
	token, csrf, expires, err := manager.Issue("u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cookie := manager.Cookie(token, expires)
	if cookie.Name != manager.CookieName() || !cookie.HttpOnly {
		t.Fatalf("unexpected cookie %#v", cookie)
	}

	claims, err := manager.ClaimsFromCookieHeader(cookie.Name + "=" + cookie.Value)
	if err != nil {
		t.Fatalf("claims from header: %v", err)
	}
	if claims.UserID != "u1" || claims.CSRF != csrf {
		t.Fatalf("unexpected claims: %#v", claims)
	}

	if _, err := manager.ClaimsFromCookieHeader(""); err == nil {
		t.Fatal("expected empty header to fail")
	}
}

func TestResolverMissingCookie(t *testing.T) {
	manager := testManager(t, time.Hour)
	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if _, ok := manager.Resolver()(request); ok {
		t.Fatal("expected unresolved viewer")
	}
}
