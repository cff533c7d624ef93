// Package testhelpers provides common utilities and helper functions for testing the chat server.
//
// This package contains reusable test utilities that are shared across integration tests.
// It provides functions for creating test servers, making HTTP requests, exchanging chat
// events over WebSocket connections, and asserting response properties to reduce code
// duplication in test files.
package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
// It fails the test with a descriptive error message if the status codes don't match.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
// It fails the test with a descriptive error message if the content types don't match.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot be
// created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ConnectWebSocket creates a WebSocket connection to the specified URL with
// the default test origin. It returns the connection or an error.
func ConnectWebSocket(url string) (*websocket.Conn, error) {
	return ConnectWebSocketWithOrigin(url, "http://localhost:8080")
}

// ConnectWebSocketWithOrigin creates a WebSocket connection using the given
// Origin header value. An empty origin omits the header.
func ConnectWebSocketWithOrigin(url, origin string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// SendEvent sends a JSON chat event over the WebSocket connection.
func SendEvent(conn *websocket.Conn, event interface{}) error {
	return conn.WriteJSON(event)
}

// ReceiveEvent reads one JSON event from the WebSocket connection within the
// given timeout.
func ReceiveEvent(conn *websocket.Conn, timeout time.Duration) (map[string]interface{}, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	var event map[string]interface{}
	err := conn.ReadJSON(&event)
	return event, err
}

// WaitForEvent reads events from the connection, discarding any whose "event"
// field differs, until a matching one arrives or the timeout elapses.
func WaitForEvent(t *testing.T, conn *websocket.Conn, kind string, timeout time.Duration) map[string]interface{} {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			t.Fatalf("Timed out waiting for %q event", kind)
		}
		event, err := ReceiveEvent(conn, remaining)
		if err != nil {
			t.Fatalf("Failed reading while waiting for %q event: %v", kind, err)
		}
		if event["event"] == kind {
			return event
		}
	}
}

// ExpectNoEvent fails the test if an event of the given kind arrives within
// the timeout. Events of other kinds are discarded.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, kind string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		event, err := ReceiveEvent(conn, remaining)
		if err != nil {
			return
		}
		if event["event"] == kind {
			t.Fatalf("Expected no %q event, got %v", kind, event)
		}
	}
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}
