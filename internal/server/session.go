// Package server signs and verifies the session cookie that carries a
// visitor's username between the index page and the WebSocket upgrade.
package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
)

const sessionCookieName = "chat_session"

// signUsername computes the hex HMAC-SHA256 of the username under the given key.
func signUsername(username, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(username))
	return hex.EncodeToString(mac.Sum(nil))
}

// sessionCookieValue encodes a username with its signature so it can round-trip
// through a cookie untampered.
func sessionCookieValue(username, key string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(username))
	return encoded + "." + signUsername(username, key)
}

// usernameFromSession extracts and verifies the username from the session
// cookie. It returns false for a missing, malformed, or tampered cookie.
func usernameFromSession(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}

	encoded, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	username := string(decoded)
	if username == "" {
		return "", false
	}

	expected := signUsername(username, currentConfig().SecretKey)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}

	return username, true
}

// setSessionCookie issues a signed session cookie for the username.
func setSessionCookie(w http.ResponseWriter, username string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionCookieValue(username, currentConfig().SecretKey),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
