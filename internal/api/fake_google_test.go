package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/terraincognita07/pulselog/internal/calendar"
)

const (
	fakeAccessToken  = "fake-access-token-1"
	fakeRefreshToken = "fake-refresh-token-1"
	fakeEventsPrefix = "/calendar/v3/calendars/primary/events"
)

// fakeGoogle serves the token, revoke and Calendar v3 endpoints the app
// talks to, keeping events in memory.
type fakeGoogle struct {
	server *httptest.Server

	mu      sync.Mutex
	events  map[string]calendar.Event
	nextID  int
	inserts int
	revoked []string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()

	fake := &fakeGoogle{events: make(map[string]calendar.Event)}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.serve))
	t.Cleanup(fake.server.Close)
	return fake
}

func (fake *fakeGoogle) serve(w http.ResponseWriter, r *http.Request) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	switch {
	case r.URL.Path == "/token":
		fake.serveToken(w, r)
	case r.URL.Path == "/revoke":
		_ = r.ParseForm()
		fake.revoked = append(fake.revoked, r.PostForm.Get("token"))
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/calendar/v3/users/me/calendarList":
		writeFakeJSON(w, http.StatusOK, map[string]any{
			"items": []calendar.CalendarListEntry{
				{ID: "primary", Summary: "Personal", Primary: true, AccessRole: "owner"},
				{ID: "health@group.calendar.google.com", Summary: "Health", AccessRole: "writer"},
			},
		})
	case r.URL.Path == fakeEventsPrefix:
		fake.serveEventCollection(w, r)
	case strings.HasPrefix(r.URL.Path, fakeEventsPrefix+"/"):
		fake.serveEvent(w, r, strings.TrimPrefix(r.URL.Path, fakeEventsPrefix+"/"))
	default:
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "Not Found"}})
	}
}

func (fake *fakeGoogle) serveToken(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		writeFakeJSON(w, http.StatusOK, map[string]any{
			"access_token":  fakeAccessToken,
			"refresh_token": fakeRefreshToken,
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	case "refresh_token":
		writeFakeJSON(w, http.StatusOK, map[string]any{
			"access_token": "fake-access-token-refreshed",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		writeFakeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
	}
}

func (fake *fakeGoogle) serveEventCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		wanted := strings.TrimPrefix(r.URL.Query().Get("privateExtendedProperty"), calendar.ReadingIDProperty+"=")
		items := make([]calendar.Event, 0)
		for _, event := range fake.events {
			if event.ReadingID() == wanted {
				items = append(items, event)
			}
		}
		writeFakeJSON(w, http.StatusOK, map[string]any{"items": items})
	case http.MethodPost:
		event := calendar.Event{}
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			writeFakeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad event"}})
			return
		}
		fake.nextID++
		fake.inserts++
		event.ID = fmt.Sprintf("evt-%d", fake.nextID)
		fake.events[event.ID] = event
		writeFakeJSON(w, http.StatusOK, event)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fake *fakeGoogle) serveEvent(w http.ResponseWriter, r *http.Request, eventID string) {
	if _, ok := fake.events[eventID]; !ok {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "Not Found"}})
		return
	}

	switch r.Method {
	case http.MethodPut:
		event := calendar.Event{}
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			writeFakeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"message": "bad event"}})
			return
		}
		event.ID = eventID
		fake.events[eventID] = event
		writeFakeJSON(w, http.StatusOK, event)
	case http.MethodDelete:
		delete(fake.events, eventID)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (fake *fakeGoogle) eventsForReading(readingID string) []calendar.Event {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	matches := make([]calendar.Event, 0)
	for _, event := range fake.events {
		if event.ReadingID() == readingID {
			matches = append(matches, event)
		}
	}
	return matches
}

func (fake *fakeGoogle) dropEventsForReading(readingID string) {
	fake.mu.Lock()
	defer fake.mu.Unlock()

	for id, event := range fake.events {
		if event.ReadingID() == readingID {
			delete(fake.events, id)
		}
	}
}

func (fake *fakeGoogle) eventCount() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return len(fake.events)
}

func (fake *fakeGoogle) revokedTokens() []string {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return append([]string(nil), fake.revoked...)
}

func (fake *fakeGoogle) calendarOptions(strict bool) CalendarOptions {
	return CalendarOptions{
		ClientID:          "test-client-id",
		ClientSecret:      "test-client-secret",
		StrictOAuthState:  strict,
		RequestsPerSecond: -1,
		APIBaseURL:        fake.server.URL + "/calendar/v3",
		AuthURL:           fake.server.URL + "/auth",
		TokenURL:          fake.server.URL + "/token",
		RevokeURL:         fake.server.URL + "/revoke",
	}
}

func writeFakeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
