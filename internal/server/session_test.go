package server

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

func sessionConfig(t *testing.T) {
	t.Helper()
	cfg := NewConfig()
	cfg.SecretKey = "test-signing-key"
	SetConfig(cfg)
	t.Cleanup(func() { SetConfig(nil) })
}

// TestSessionCookieRoundTrip verifies that a username set in the session
// cookie survives verification on a later request.
func TestSessionCookieRoundTrip(t *testing.T) {
	sessionConfig(t)

	recorder := httptest.NewRecorder()
	setSessionCookie(recorder, "Guest-12345678")

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("Expected one %s cookie, got %v", sessionCookieName, cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.AddCookie(cookies[0])

	username, ok := usernameFromSession(req)
	if !ok {
		t.Fatal("Expected the session cookie to verify")
	}
	if username != "Guest-12345678" {
		t.Errorf("username = %q, want Guest-12345678", username)
	}
}

// TestTamperedSessionRejected verifies that altering either the username or
// the signature invalidates the session.
func TestTamperedSessionRejected(t *testing.T) {
	sessionConfig(t)

	value := sessionCookieValue("alice", currentConfig().SecretKey)
	encoded, signature, _ := strings.Cut(value, ".")

	tampered := []string{
		"bm90YWxpY2U." + signature, // different username, original signature
		encoded + ".deadbeef",      // original username, wrong signature
		encoded,                    // missing signature entirely
		"",
	}

	for _, cookieValue := range tampered {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookieValue})
		if _, ok := usernameFromSession(req); ok {
			t.Errorf("Expected tampered cookie %q to be rejected", cookieValue)
		}
	}
}

// TestSessionRejectedWithoutCookie verifies a request with no session cookie
// yields no identity.
func TestSessionRejectedWithoutCookie(t *testing.T) {
	sessionConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if _, ok := usernameFromSession(req); ok {
		t.Error("Expected no identity without a session cookie")
	}
}

// TestGenerateGuestUsername verifies the guest name shape: Guest- followed by
// the HHMM clock digits and a four digit random suffix.
func TestGenerateGuestUsername(t *testing.T) {
	pattern := regexp.MustCompile(`^Guest-\d{8}$`)
	for i := 0; i < 20; i++ {
		username := generateGuestUsername()
		if !pattern.MatchString(username) {
			t.Fatalf("Guest username %q does not match expected shape", username)
		}
	}
}

// TestResolveUsernamePrecedence verifies identity resolution order for the
// upgrade request: explicit query parameter, then session cookie, then a
// generated guest name.
func TestResolveUsernamePrecedence(t *testing.T) {
	sessionConfig(t)

	req := httptest.NewRequest(http.MethodGet, "/ws?username=alice", nil)
	req.AddCookie(&http.Cookie{
		Name:  sessionCookieName,
		Value: sessionCookieValue("bob", currentConfig().SecretKey),
	})
	if got := resolveUsername(req); got != "alice" {
		t.Errorf("Query parameter should win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.AddCookie(&http.Cookie{
		Name:  sessionCookieName,
		Value: sessionCookieValue("bob", currentConfig().SecretKey),
	})
	if got := resolveUsername(req); got != "bob" {
		t.Errorf("Session cookie should win without a query parameter, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	if got := resolveUsername(req); !strings.HasPrefix(got, "Guest-") {
		t.Errorf("Expected a generated guest name, got %q", got)
	}
}
