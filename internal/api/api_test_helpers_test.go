package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/pulselog/internal/db"
	"gorm.io/gorm"
)

const (
	testSecretKey = "test-secret-key-0123456789abcdef"
	testPassword  = "StrongPass1"
)

type testApp struct {
	app      *fiber.App
	handler  *Handler
	database *gorm.DB
}

func newTestApp(t *testing.T, calendarOptions CalendarOptions) testApp {
	t.Helper()
	return newTestAppWithOptions(t, HandlerOptions{Calendar: calendarOptions})
}

func newTestAppWithOptions(t *testing.T, options HandlerOptions) testApp {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "pulselog-api-test.db")
	database, err := db.OpenSQLite(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if options.Calendar.Logger == nil {
		options.Calendar.Logger = log.New(io.Discard, "", 0)
	}
	options.SecretKey = testSecretKey
	if options.Location == nil {
		options.Location = time.UTC
	}
	handler, err := NewHandler(database, options)
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)
	return testApp{app: app, handler: handler, database: database}
}

func (ta testApp) request(t *testing.T, method string, path string, cookies string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	request := httptest.NewRequest(method, path, reader)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Accept", "application/json")
	if cookies != "" {
		request.Header.Set("Cookie", cookies)
	}

	response, err := ta.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return response
}

// registerUser signs up through the API and returns the auth cookie header.
func (ta testApp) registerUser(t *testing.T, email string) string {
	t.Helper()

	response := ta.request(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":            email,
		"password":         testPassword,
		"confirm_password": testPassword,
	})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("expected register status 201, got %d: %s", response.StatusCode, readBody(t, response))
	}
	return authCookieHeader(t, response)
}

func authCookieHeader(t *testing.T, response *http.Response) string {
	t.Helper()

	cookie := responseCookie(response, authCookieName)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected auth cookie in response")
	}
	return authCookieName + "=" + cookie.Value
}

func responseCookie(response *http.Response, name string) *http.Cookie {
	for _, cookie := range response.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func readBody(t *testing.T, response *http.Response) string {
	t.Helper()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return string(body)
}

func decodeBody(t *testing.T, response *http.Response, target any) {
	t.Helper()

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func expectStatus(t *testing.T, response *http.Response, want int) {
	t.Helper()

	if response.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, response.StatusCode, readBody(t, response))
	}
}

func expectErrorMessage(t *testing.T, response *http.Response, status int, message string) {
	t.Helper()

	expectStatus(t, response, status)
	payload := map[string]string{}
	decodeBody(t, response, &payload)
	if payload["error"] != message {
		t.Fatalf("expected error %q, got %q", message, payload["error"])
	}
}

func joinCookies(values ...string) string {
	return strings.Join(values, "; ")
}
