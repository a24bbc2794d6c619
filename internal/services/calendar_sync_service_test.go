package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/terraincognita07/pulselog/internal/calendar"
	"github.com/terraincognita07/pulselog/internal/models"
	"golang.org/x/oauth2"
)

var syncNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type mockCalendarAPI struct {
	mock.Mock
}

func (m *mockCalendarAPI) InsertEvent(ctx context.Context, token *oauth2.Token, calendarID string, event calendar.Event) (calendar.Event, error) {
	args := m.Called(ctx, token, calendarID, event)
	created, _ := args.Get(0).(calendar.Event)
	return created, args.Error(1)
}

func (m *mockCalendarAPI) UpdateEvent(ctx context.Context, token *oauth2.Token, calendarID string, eventID string, event calendar.Event) (calendar.Event, error) {
	args := m.Called(ctx, token, calendarID, eventID, event)
	updated, _ := args.Get(0).(calendar.Event)
	return updated, args.Error(1)
}

func (m *mockCalendarAPI) DeleteEvent(ctx context.Context, token *oauth2.Token, calendarID string, eventID string) error {
	return m.Called(ctx, token, calendarID, eventID).Error(0)
}

func (m *mockCalendarAPI) FindEventsByReadingID(ctx context.Context, token *oauth2.Token, calendarID string, readingID string) ([]calendar.Event, error) {
	args := m.Called(ctx, token, calendarID, readingID)
	events, _ := args.Get(0).([]calendar.Event)
	return events, args.Error(1)
}

func (m *mockCalendarAPI) ListCalendars(ctx context.Context, token *oauth2.Token) ([]calendar.CalendarListEntry, error) {
	args := m.Called(ctx, token)
	entries, _ := args.Get(0).([]calendar.CalendarListEntry)
	return entries, args.Error(1)
}

type mockAuthorizer struct {
	mock.Mock
	configured bool
}

func (m *mockAuthorizer) Configured() bool {
	return m.configured
}

func (m *mockAuthorizer) AuthCodeURL(state string, redirectURL string) string {
	return "https://accounts.example.com/auth?state=" + state + "&redirect_uri=" + redirectURL
}

func (m *mockAuthorizer) Exchange(ctx context.Context, code string, redirectURL string) (*oauth2.Token, error) {
	args := m.Called(ctx, code, redirectURL)
	token, _ := args.Get(0).(*oauth2.Token)
	return token, args.Error(1)
}

func (m *mockAuthorizer) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	args := m.Called(ctx, refreshToken)
	token, _ := args.Get(0).(*oauth2.Token)
	return token, args.Error(1)
}

func (m *mockAuthorizer) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

type recordingSyncStore struct {
	synced    map[string]string
	unsynced  []string
	markErr   error
	unmarkErr error
}

func newRecordingSyncStore() *recordingSyncStore {
	return &recordingSyncStore{synced: make(map[string]string)}
}

func (store *recordingSyncStore) MarkSynced(_ uint, readingID string, eventID string) error {
	if store.markErr != nil {
		return store.markErr
	}
	store.synced[readingID] = eventID
	return nil
}

func (store *recordingSyncStore) MarkUnsynced(_ uint, readingID string) error {
	if store.unmarkErr != nil {
		return store.unmarkErr
	}
	store.unsynced = append(store.unsynced, readingID)
	return nil
}

type syncFixture struct {
	api     *mockCalendarAPI
	auth    *mockAuthorizer
	store   *recordingSyncStore
	logs    *bytes.Buffer
	service *CalendarSyncService
}

func newSyncFixture(t *testing.T, strict bool) *syncFixture {
	t.Helper()
	fixture := &syncFixture{
		api:   &mockCalendarAPI{},
		auth:  &mockAuthorizer{configured: true},
		store: newRecordingSyncStore(),
		logs:  &bytes.Buffer{},
	}
	fixture.service = NewCalendarSyncService(fixture.api, fixture.auth, fixture.store, CalendarSyncOptions{
		StrictOAuthState: strict,
		Location:         time.UTC,
		Logger:           log.New(fixture.logs, "", 0),
		Now:              func() time.Time { return syncNow },
	})
	t.Cleanup(func() {
		fixture.api.AssertExpectations(t)
		fixture.auth.AssertExpectations(t)
	})
	return fixture
}

func connectedConfig() models.CalendarSyncConfig {
	return models.CalendarSyncConfig{
		UserID:       1,
		Enabled:      true,
		AccessToken:  "access-live",
		RefreshToken: "refresh-live",
		ExpiresAt:    syncNow.Add(time.Hour).UnixMilli(),
		CalendarID:   "primary",
	}
}

func eventFor(readingID string) interface{} {
	return mock.MatchedBy(func(event calendar.Event) bool {
		return event.ReadingID() == readingID
	})
}

func TestSyncReadingsContinuesPastItemFailure(t *testing.T) {
	fixture := newSyncFixture(t, false)
	readings := []models.Reading{
		{ID: "r-1", Systolic: 120, Diastolic: 80, Pulse: 70, TakenAt: syncNow},
		{ID: "r-2", Systolic: 150, Diastolic: 95, Pulse: 80, TakenAt: syncNow.Add(-time.Hour)},
		{ID: "r-3", Systolic: 118, Diastolic: 76, Pulse: 65, TakenAt: syncNow.Add(-2 * time.Hour)},
		{ID: "r-0", Systolic: 118, Diastolic: 76, Pulse: 65, SyncedToCalendar: true},
	}

	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", mock.Anything).Return([]calendar.Event{}, nil)
	fixture.api.On("InsertEvent", mock.Anything, mock.Anything, "primary", eventFor("r-1")).Return(calendar.Event{ID: "evt-1"}, nil).Once()
	fixture.api.On("InsertEvent", mock.Anything, mock.Anything, "primary", eventFor("r-2")).Return(calendar.Event{}, errors.New("backend error")).Once()
	fixture.api.On("InsertEvent", mock.Anything, mock.Anything, "primary", eventFor("r-3")).Return(calendar.Event{ID: "evt-3"}, nil).Once()

	progress := make([]SyncProgress, 0)
	cfg, result, err := fixture.service.SyncReadings(context.Background(), connectedConfig(), 1, readings, func(update SyncProgress) {
		progress = append(progress, update)
	})
	require.NoError(t, err)

	assert.Equal(t, SyncStatusPartial, result.Status)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "r-2", result.Errors[0].ReadingID)

	assert.Equal(t, map[string]string{"r-1": "evt-1", "r-3": "evt-3"}, fixture.store.synced)
	require.NotNil(t, cfg.LastSyncedAt)
	assert.True(t, cfg.LastSyncedAt.Equal(syncNow))
	require.Len(t, progress, 3)
	assert.Equal(t, SyncProgress{Done: 3, Total: 3, ReadingID: "r-3"}, progress[2])
	fixture.api.AssertNotCalled(t, "FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-0")
}

func TestSyncReadingsLinksExistingEventsWithoutCreating(t *testing.T) {
	fixture := newSyncFixture(t, false)
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-1").Return([]calendar.Event{{ID: "evt-existing"}}, nil)

	_, result, err := fixture.service.SyncReadings(context.Background(), connectedConfig(), 1, []models.Reading{{ID: "r-1", Systolic: 120, Diastolic: 80}}, nil)
	require.NoError(t, err)

	assert.Equal(t, SyncStatusSuccess, result.Status)
	assert.Equal(t, 1, result.Linked)
	assert.Equal(t, "evt-existing", fixture.store.synced["r-1"])
	fixture.api.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncReadingsAllFailed(t *testing.T) {
	fixture := newSyncFixture(t, false)
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", mock.Anything).Return([]calendar.Event{}, nil)
	fixture.api.On("InsertEvent", mock.Anything, mock.Anything, "primary", mock.Anything).Return(calendar.Event{}, errors.New("quota"))

	cfg, result, err := fixture.service.SyncReadings(context.Background(), connectedConfig(), 1, []models.Reading{{ID: "r-1"}, {ID: "r-2"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, SyncStatusFailed, result.Status)
	assert.Equal(t, 2, result.Failed)
	require.NotNil(t, cfg.LastSyncedAt)
}

func TestSyncReadingsHardFailureOnRefresh(t *testing.T) {
	fixture := newSyncFixture(t, false)
	cfg := connectedConfig()
	cfg.ExpiresAt = syncNow.Add(-time.Minute).UnixMilli()
	cfg.RefreshToken = ""

	_, result, err := fixture.service.SyncReadings(context.Background(), cfg, 1, []models.Reading{{ID: "r-1"}}, nil)
	require.ErrorIs(t, err, ErrRefreshTokenMissing)
	assert.Equal(t, SyncStatusFailed, result.Status)
	fixture.api.AssertNotCalled(t, "InsertEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRebuildSyncTrackingClearsStaleFlag(t *testing.T) {
	fixture := newSyncFixture(t, false)
	stale := models.Reading{ID: "r-stale", SyncedToCalendar: true, CalendarEventID: "evt-gone"}
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-stale").Return([]calendar.Event{}, nil)

	cfg := connectedConfig()
	exists, _ := fixture.service.CheckReadingExists(context.Background(), cfg, stale.ID)
	require.False(t, exists)

	_, result, err := fixture.service.RebuildSyncTracking(context.Background(), cfg, 1, []models.Reading{stale})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-stale"}, fixture.store.unsynced)
	assert.Equal(t, 1, result.Cleared)
	assert.Equal(t, SyncStatusSuccess, result.Status)
}

func TestRebuildSyncTrackingMarksFoundAndLeavesFailuresUntouched(t *testing.T) {
	fixture := newSyncFixture(t, false)
	readings := []models.Reading{
		{ID: "r-found"},
		{ID: "r-error", SyncedToCalendar: true, CalendarEventID: "evt-x"},
		{ID: "r-clean"},
	}
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-found").Return([]calendar.Event{{ID: "evt-found"}}, nil)
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-error").Return(nil, &calendar.APIError{Operation: "lookup", StatusCode: 500})
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-clean").Return([]calendar.Event{}, nil)

	_, result, err := fixture.service.RebuildSyncTracking(context.Background(), connectedConfig(), 1, readings)
	require.NoError(t, err)

	assert.Equal(t, SyncStatusPartial, result.Status)
	assert.Equal(t, 3, result.Checked)
	assert.Equal(t, 1, result.Marked)
	assert.Equal(t, 1, result.Unchanged)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, map[string]string{"r-found": "evt-found"}, fixture.store.synced)
	assert.Empty(t, fixture.store.unsynced)
	assert.Equal(t, "r-error", result.Errors[0].ReadingID)
}

func TestCheckReadingExistsReturnsFalseOnError(t *testing.T) {
	fixture := newSyncFixture(t, false)
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-1").Return(nil, errors.New("network down"))

	exists, eventID := fixture.service.CheckReadingExists(context.Background(), connectedConfig(), "r-1")
	assert.False(t, exists)
	assert.Empty(t, eventID)
	assert.Contains(t, fixture.logs.String(), "network down")
}

func TestEnsureFreshTokenRefreshWindow(t *testing.T) {
	fixture := newSyncFixture(t, false)

	fresh := connectedConfig()
	fresh.ExpiresAt = syncNow.Add(6 * time.Minute).UnixMilli()
	unchanged, err := fixture.service.EnsureFreshToken(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, fresh, unchanged)

	expiring := connectedConfig()
	expiring.ExpiresAt = syncNow.Add(4 * time.Minute).UnixMilli()
	fixture.auth.On("Refresh", mock.Anything, "refresh-live").Return(&oauth2.Token{
		AccessToken: "access-new",
		Expiry:      syncNow.Add(time.Hour),
	}, nil).Once()

	refreshed, err := fixture.service.EnsureFreshToken(context.Background(), expiring)
	require.NoError(t, err)
	assert.Equal(t, "access-new", refreshed.AccessToken)
	assert.Equal(t, "refresh-live", refreshed.RefreshToken)
	assert.Equal(t, syncNow.Add(time.Hour).UnixMilli(), refreshed.ExpiresAt)
}

func TestEnsureFreshTokenReplacesRotatedRefreshToken(t *testing.T) {
	fixture := newSyncFixture(t, false)
	cfg := connectedConfig()
	cfg.ExpiresAt = 0
	fixture.auth.On("Refresh", mock.Anything, "refresh-live").Return(&oauth2.Token{
		AccessToken:  "access-new",
		RefreshToken: "refresh-rotated",
	}, nil).Once()

	refreshed, err := fixture.service.EnsureFreshToken(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "refresh-rotated", refreshed.RefreshToken)
	assert.Equal(t, syncNow.Add(defaultTokenTTL).UnixMilli(), refreshed.ExpiresAt)
}

func TestEnsureFreshTokenFailures(t *testing.T) {
	fixture := newSyncFixture(t, false)

	_, err := fixture.service.EnsureFreshToken(context.Background(), models.CalendarSyncConfig{})
	require.ErrorIs(t, err, ErrCalendarNotConnected)

	missing := connectedConfig()
	missing.ExpiresAt = syncNow.UnixMilli()
	missing.RefreshToken = ""
	_, err = fixture.service.EnsureFreshToken(context.Background(), missing)
	require.ErrorIs(t, err, ErrRefreshTokenMissing)
}

func TestCompleteAuthorizationStatePolicy(t *testing.T) {
	token := &oauth2.Token{AccessToken: "access-1", RefreshToken: "refresh-1", Expiry: syncNow.Add(time.Hour)}

	lenient := newSyncFixture(t, false)
	lenient.auth.On("Exchange", mock.Anything, "code-1", "https://app.example.com/cb").Return(token, nil).Once()
	cfg, err := lenient.service.CompleteAuthorization(context.Background(), models.CalendarSyncConfig{UserID: 1}, "code-1", "state-a", "state-b", "https://app.example.com/cb")
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, "access-1", cfg.AccessToken)
	assert.Equal(t, "refresh-1", cfg.RefreshToken)
	assert.Equal(t, models.DefaultCalendarID, cfg.CalendarID)
	assert.Contains(t, lenient.logs.String(), "oauth state mismatch")
	assert.NotContains(t, lenient.logs.String(), "access-1")

	strict := newSyncFixture(t, true)
	_, err = strict.service.CompleteAuthorization(context.Background(), models.CalendarSyncConfig{UserID: 1}, "code-1", "state-a", "state-b", "https://app.example.com/cb")
	require.ErrorIs(t, err, ErrOAuthStateMismatch)

	strict.auth.On("Exchange", mock.Anything, "code-1", "https://app.example.com/cb").Return(token, nil).Once()
	_, err = strict.service.CompleteAuthorization(context.Background(), models.CalendarSyncConfig{UserID: 1}, "code-1", "state-a", "state-a", "https://app.example.com/cb")
	require.NoError(t, err)
}

func TestCompleteAuthorizationRequiresCode(t *testing.T) {
	fixture := newSyncFixture(t, false)
	_, err := fixture.service.CompleteAuthorization(context.Background(), models.CalendarSyncConfig{}, " ", "s", "s", "")
	require.ErrorIs(t, err, ErrOAuthCodeMissing)
}

func TestBeginAuthorization(t *testing.T) {
	fixture := newSyncFixture(t, false)
	authURL, state, err := fixture.service.BeginAuthorization("https://app.example.com/cb")
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.Contains(t, authURL, "state="+state)

	fixture.auth.configured = false
	_, _, err = fixture.service.BeginAuthorization("https://app.example.com/cb")
	require.ErrorIs(t, err, ErrCalendarCredentialsMissing)
}

func TestDisconnectAlwaysClearsConfig(t *testing.T) {
	fixture := newSyncFixture(t, false)
	fixture.auth.On("Revoke", mock.Anything, "refresh-live").Return(errors.New("revoke failed")).Once()

	cfg := connectedConfig()
	cfg.AutoSync = true
	cleared := fixture.service.Disconnect(context.Background(), cfg)

	assert.False(t, cleared.Enabled)
	assert.Empty(t, cleared.AccessToken)
	assert.Empty(t, cleared.RefreshToken)
	assert.False(t, cleared.AutoSync)
	assert.Equal(t, uint(1), cleared.UserID)
	assert.NotContains(t, fixture.logs.String(), "refresh-live")
}

func TestCreateEventSwallowsMarkFailure(t *testing.T) {
	fixture := newSyncFixture(t, false)
	fixture.store.markErr = errors.New("database locked")
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-1").Return([]calendar.Event{}, nil)
	fixture.api.On("InsertEvent", mock.Anything, mock.Anything, "primary", eventFor("r-1")).Return(calendar.Event{ID: "evt-1"}, nil).Once()

	_, eventID, err := fixture.service.CreateEvent(context.Background(), connectedConfig(), 1, models.Reading{ID: "r-1", Systolic: 120, Diastolic: 80})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", eventID)
	assert.Contains(t, fixture.logs.String(), "database locked")
}

func TestUpdateEventFallsBackToTagLookup(t *testing.T) {
	fixture := newSyncFixture(t, false)
	reading := models.Reading{ID: "r-1", Systolic: 135, Diastolic: 88, SyncedToCalendar: true, CalendarEventID: "evt-old"}

	fixture.api.On("UpdateEvent", mock.Anything, mock.Anything, "primary", "evt-old", mock.Anything).Return(calendar.Event{}, &calendar.APIError{Operation: "update", StatusCode: 404}).Once()
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-1").Return([]calendar.Event{{ID: "evt-new"}}, nil).Once()
	fixture.api.On("UpdateEvent", mock.Anything, mock.Anything, "primary", "evt-new", mock.Anything).Return(calendar.Event{ID: "evt-new"}, nil).Once()

	_, err := fixture.service.UpdateEvent(context.Background(), connectedConfig(), 1, reading)
	require.NoError(t, err)
	assert.Equal(t, "evt-new", fixture.store.synced["r-1"])
}

func TestUpdateEventNotFound(t *testing.T) {
	fixture := newSyncFixture(t, false)
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-1").Return([]calendar.Event{}, nil).Once()

	_, err := fixture.service.UpdateEvent(context.Background(), connectedConfig(), 1, models.Reading{ID: "r-1"})
	require.ErrorIs(t, err, ErrCalendarEventNotFound)
}

func TestDeleteEventByStoredIDAndWithoutRemoteEvent(t *testing.T) {
	fixture := newSyncFixture(t, false)
	fixture.api.On("DeleteEvent", mock.Anything, mock.Anything, "primary", "evt-1").Return(nil).Once()

	_, err := fixture.service.DeleteEvent(context.Background(), connectedConfig(), 1, models.Reading{ID: "r-1", SyncedToCalendar: true, CalendarEventID: "evt-1"})
	require.NoError(t, err)

	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-2").Return([]calendar.Event{}, nil).Once()
	_, err = fixture.service.DeleteEvent(context.Background(), connectedConfig(), 1, models.Reading{ID: "r-2", SyncedToCalendar: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"r-1", "r-2"}, fixture.store.unsynced)
}

func TestAutoSyncReadingRespectsSettings(t *testing.T) {
	fixture := newSyncFixture(t, false)

	_, ran, err := fixture.service.AutoSyncReading(context.Background(), connectedConfig(), 1, models.Reading{ID: "r-1"})
	require.NoError(t, err)
	assert.False(t, ran)

	cfg := connectedConfig()
	cfg.AutoSync = true
	fixture.api.On("FindEventsByReadingID", mock.Anything, mock.Anything, "primary", "r-1").Return([]calendar.Event{}, nil).Once()
	fixture.api.On("InsertEvent", mock.Anything, mock.Anything, "primary", eventFor("r-1")).Return(calendar.Event{ID: "evt-1"}, nil).Once()

	_, ran, err = fixture.service.AutoSyncReading(context.Background(), cfg, 1, models.Reading{ID: "r-1", Systolic: 120, Diastolic: 80})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestBuildCalendarEvent(t *testing.T) {
	location := time.FixedZone("", 0)
	reading := models.Reading{
		ID:        "r-9",
		TakenAt:   time.Date(2026, time.March, 10, 7, 30, 0, 0, time.UTC),
		Systolic:  150,
		Diastolic: 95,
		Pulse:     82,
		Notes:     "after stairs",
	}

	event := BuildCalendarEvent(reading, location)
	assert.Equal(t, "BP: 150/95 - High Blood Pressure (Stage 2)", event.Summary)
	assert.Equal(t, "11", event.ColorID)
	assert.Equal(t, "2026-03-10T07:30:00Z", event.Start.DateTime)
	assert.Equal(t, "2026-03-10T07:45:00Z", event.End.DateTime)
	assert.Equal(t, "UTC", event.Start.TimeZone)
	assert.Equal(t, "r-9", event.ReadingID())
	assert.Equal(t, calendar.SourceValue, event.ExtendedProperties.Private[calendar.SourceProperty])
	assert.True(t, strings.Contains(event.Description, "Pulse: 82 bpm"))
	assert.True(t, strings.Contains(event.Description, "Notes: after stairs"))
}
