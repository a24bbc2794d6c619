package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/terraincognita07/pulselog/internal/calendar"
	"github.com/terraincognita07/pulselog/internal/metrics"
	"github.com/terraincognita07/pulselog/internal/models"
	"github.com/terraincognita07/pulselog/internal/security"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	tokenRefreshWindow = 5 * time.Minute
	oauthStateBytes    = 24
	defaultTokenTTL    = time.Hour
)

var (
	ErrCalendarCredentialsMissing = errors.New("calendar oauth credentials are not configured")
	ErrCalendarNotConnected       = errors.New("calendar is not connected")
	ErrOAuthStateMismatch         = errors.New("oauth state mismatch")
	ErrOAuthCodeMissing           = errors.New("oauth authorization code missing")
	ErrRefreshTokenMissing        = errors.New("refresh token missing, reconnect calendar")
	ErrCalendarEventNotFound      = errors.New("calendar event not found")
)

type CalendarAPI interface {
	InsertEvent(ctx context.Context, token *oauth2.Token, calendarID string, event calendar.Event) (calendar.Event, error)
	UpdateEvent(ctx context.Context, token *oauth2.Token, calendarID string, eventID string, event calendar.Event) (calendar.Event, error)
	DeleteEvent(ctx context.Context, token *oauth2.Token, calendarID string, eventID string) error
	FindEventsByReadingID(ctx context.Context, token *oauth2.Token, calendarID string, readingID string) ([]calendar.Event, error)
	ListCalendars(ctx context.Context, token *oauth2.Token) ([]calendar.CalendarListEntry, error)
}

type CalendarAuthorizer interface {
	Configured() bool
	AuthCodeURL(state string, redirectURL string) string
	Exchange(ctx context.Context, code string, redirectURL string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Revoke(ctx context.Context, token string) error
}

type CalendarSyncStore interface {
	MarkSynced(userID uint, readingID string, eventID string) error
	MarkUnsynced(userID uint, readingID string) error
}

type CalendarSyncOptions struct {
	// StrictOAuthState rejects callbacks whose state does not match the one
	// issued. When false a mismatch is only logged.
	StrictOAuthState bool
	Location         *time.Location
	Logger           *log.Logger
	Now              func() time.Time
}

// CalendarSyncService mirrors readings into Google Calendar. It keeps no
// per-user state: every call receives the caller's config and returns the
// possibly refreshed copy, which the caller persists.
type CalendarSyncService struct {
	api      CalendarAPI
	auth     CalendarAuthorizer
	store    CalendarSyncStore
	strict   bool
	location *time.Location
	logger   *log.Logger
	now      func() time.Time
}

func NewCalendarSyncService(api CalendarAPI, auth CalendarAuthorizer, store CalendarSyncStore, options CalendarSyncOptions) *CalendarSyncService {
	logger := options.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "calendar-sync ", log.LstdFlags|log.Lshortfile)
	}
	location := options.Location
	if location == nil {
		location = time.UTC
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return &CalendarSyncService{
		api:      api,
		auth:     auth,
		store:    store,
		strict:   options.StrictOAuthState,
		location: location,
		logger:   logger,
		now:      now,
	}
}

func (service *CalendarSyncService) OAuthConfigured() bool {
	return service.auth.Configured()
}

func (service *CalendarSyncService) BeginAuthorization(redirectURL string) (string, string, error) {
	if !service.auth.Configured() {
		return "", "", ErrCalendarCredentialsMissing
	}
	state, err := security.RandomURLToken(oauthStateBytes)
	if err != nil {
		return "", "", fmt.Errorf("generate oauth state: %w", err)
	}
	return service.auth.AuthCodeURL(state, redirectURL), state, nil
}

func (service *CalendarSyncService) CompleteAuthorization(ctx context.Context, cfg models.CalendarSyncConfig, code string, returnedState string, expectedState string, redirectURL string) (models.CalendarSyncConfig, error) {
	if !service.auth.Configured() {
		return cfg, ErrCalendarCredentialsMissing
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return cfg, ErrOAuthCodeMissing
	}
	if !oauthStateMatches(returnedState, expectedState) {
		if service.strict {
			return cfg, ErrOAuthStateMismatch
		}
		service.logger.Printf("user %d: oauth state mismatch tolerated", cfg.UserID)
	}

	token, err := service.auth.Exchange(ctx, code, redirectURL)
	if err != nil {
		return cfg, err
	}

	cfg.Enabled = true
	service.applyToken(&cfg, token)
	if cfg.CalendarID == "" {
		cfg.CalendarID = models.DefaultCalendarID
	}
	return cfg, nil
}

// EnsureFreshToken refreshes the access token when it expires within five
// minutes.
func (service *CalendarSyncService) EnsureFreshToken(ctx context.Context, cfg models.CalendarSyncConfig) (models.CalendarSyncConfig, error) {
	if !cfg.Connected() {
		return cfg, ErrCalendarNotConnected
	}
	if service.now().Before(cfg.ExpiresAtTime().Add(-tokenRefreshWindow)) {
		return cfg, nil
	}
	if strings.TrimSpace(cfg.RefreshToken) == "" {
		return cfg, ErrRefreshTokenMissing
	}

	token, err := service.auth.Refresh(ctx, cfg.RefreshToken)
	if err != nil {
		return cfg, err
	}
	service.applyToken(&cfg, token)
	return cfg, nil
}

// Disconnect revokes the grant on a best-effort basis and always returns an
// empty config.
func (service *CalendarSyncService) Disconnect(ctx context.Context, cfg models.CalendarSyncConfig) models.CalendarSyncConfig {
	revokeToken := cfg.RefreshToken
	if revokeToken == "" {
		revokeToken = cfg.AccessToken
	}
	if revokeToken != "" {
		if err := service.auth.Revoke(ctx, revokeToken); err != nil {
			service.logger.Printf("user %d: revoke calendar grant: %v", cfg.UserID, err)
		}
	}
	return models.CalendarSyncConfig{UserID: cfg.UserID, CalendarID: models.DefaultCalendarID}
}

func (service *CalendarSyncService) ListCalendars(ctx context.Context, cfg models.CalendarSyncConfig) (models.CalendarSyncConfig, []calendar.CalendarListEntry, error) {
	cfg, err := service.EnsureFreshToken(ctx, cfg)
	if err != nil {
		return cfg, nil, err
	}
	calendars, err := service.api.ListCalendars(ctx, tokenFromConfig(cfg))
	return cfg, calendars, err
}

// CreateEvent links to an already tagged event instead of creating a
// duplicate. It returns the remote event id.
func (service *CalendarSyncService) CreateEvent(ctx context.Context, cfg models.CalendarSyncConfig, userID uint, reading models.Reading) (models.CalendarSyncConfig, string, error) {
	cfg, err := service.EnsureFreshToken(ctx, cfg)
	if err != nil {
		return cfg, "", err
	}

	if exists, eventID := service.CheckReadingExists(ctx, cfg, reading.ID); exists {
		service.markSynced(userID, reading.ID, eventID)
		return cfg, eventID, nil
	}

	created, err := service.api.InsertEvent(ctx, tokenFromConfig(cfg), cfg.EffectiveCalendarID(), BuildCalendarEvent(reading, service.location))
	if err != nil {
		return cfg, "", err
	}
	service.markSynced(userID, reading.ID, created.ID)
	return cfg, created.ID, nil
}

func (service *CalendarSyncService) UpdateEvent(ctx context.Context, cfg models.CalendarSyncConfig, userID uint, reading models.Reading) (models.CalendarSyncConfig, error) {
	cfg, err := service.EnsureFreshToken(ctx, cfg)
	if err != nil {
		return cfg, err
	}

	token := tokenFromConfig(cfg)
	event := BuildCalendarEvent(reading, service.location)
	if reading.CalendarEventID != "" {
		_, err := service.api.UpdateEvent(ctx, token, cfg.EffectiveCalendarID(), reading.CalendarEventID, event)
		if err == nil {
			return cfg, nil
		}
		if !calendar.IsNotFound(err) {
			return cfg, err
		}
	}

	eventID, found, err := service.lookupEvent(ctx, cfg, reading.ID)
	if err != nil {
		return cfg, err
	}
	if !found {
		return cfg, ErrCalendarEventNotFound
	}
	if _, err := service.api.UpdateEvent(ctx, token, cfg.EffectiveCalendarID(), eventID, event); err != nil {
		return cfg, err
	}
	if eventID != reading.CalendarEventID {
		service.markSynced(userID, reading.ID, eventID)
	}
	return cfg, nil
}

// DeleteEvent removes the remote event and clears the local flag. An event
// that is already gone counts as deleted.
func (service *CalendarSyncService) DeleteEvent(ctx context.Context, cfg models.CalendarSyncConfig, userID uint, reading models.Reading) (models.CalendarSyncConfig, error) {
	cfg, err := service.EnsureFreshToken(ctx, cfg)
	if err != nil {
		return cfg, err
	}

	eventID := reading.CalendarEventID
	if eventID == "" {
		found := false
		eventID, found, err = service.lookupEvent(ctx, cfg, reading.ID)
		if err != nil {
			return cfg, err
		}
		if !found {
			service.markUnsynced(userID, reading.ID)
			return cfg, nil
		}
	}

	if err := service.api.DeleteEvent(ctx, tokenFromConfig(cfg), cfg.EffectiveCalendarID(), eventID); err != nil {
		return cfg, err
	}
	service.markUnsynced(userID, reading.ID)
	return cfg, nil
}

// CheckReadingExists looks the reading up by its private tag. Lookup errors
// are logged and reported as not found. cfg must carry a fresh token.
func (service *CalendarSyncService) CheckReadingExists(ctx context.Context, cfg models.CalendarSyncConfig, readingID string) (bool, string) {
	eventID, found, err := service.lookupEvent(ctx, cfg, readingID)
	if err != nil {
		service.logger.Printf("user %d: check reading %s on calendar: %v", cfg.UserID, readingID, err)
		return false, ""
	}
	return found, eventID
}

// SyncReadings pushes every unsynced reading, one at a time and in order.
// Item failures are collected and do not stop the run; LastSyncedAt is set
// regardless. Only a failed token refresh aborts before any item runs.
func (service *CalendarSyncService) SyncReadings(ctx context.Context, cfg models.CalendarSyncConfig, userID uint, readings []models.Reading, progress func(SyncProgress)) (models.CalendarSyncConfig, SyncResult, error) {
	cfg, err := service.EnsureFreshToken(ctx, cfg)
	if err != nil {
		return cfg, SyncResult{Status: SyncStatusFailed, Errors: []SyncItemError{}}, err
	}

	pending := make([]models.Reading, 0, len(readings))
	for _, reading := range readings {
		if !reading.SyncedToCalendar {
			pending = append(pending, reading)
		}
	}

	result := SyncResult{Total: len(pending), Errors: []SyncItemError{}}
	token := tokenFromConfig(cfg)
	for index, reading := range pending {
		if err := ctx.Err(); err != nil {
			for _, skipped := range pending[index:] {
				result.addFailure(skipped.ID, err)
			}
			break
		}

		outcome := service.syncOne(ctx, cfg, token, userID, reading)
		switch {
		case outcome.err != nil:
			result.addFailure(reading.ID, outcome.err)
			service.logger.Printf("user %d: sync reading %s: %v", userID, reading.ID, outcome.err)
			metrics.ObserveSyncItem("sync", "failed")
		case outcome.linked:
			result.Linked++
			metrics.ObserveSyncItem("sync", "linked")
		default:
			result.Created++
			metrics.ObserveSyncItem("sync", "created")
		}

		if progress != nil {
			progress(SyncProgress{Done: index + 1, Total: len(pending), ReadingID: reading.ID})
		}
	}

	syncedAt := service.now()
	cfg.LastSyncedAt = &syncedAt
	result.Status = resolveSyncStatus(result.Total, result.Failed)
	return cfg, result, nil
}

type syncOutcome struct {
	linked bool
	err    error
}

func (service *CalendarSyncService) syncOne(ctx context.Context, cfg models.CalendarSyncConfig, token *oauth2.Token, userID uint, reading models.Reading) syncOutcome {
	if exists, eventID := service.CheckReadingExists(ctx, cfg, reading.ID); exists {
		if err := service.store.MarkSynced(userID, reading.ID, eventID); err != nil {
			return syncOutcome{err: fmt.Errorf("mark synced: %w", err)}
		}
		return syncOutcome{linked: true}
	}

	created, err := service.api.InsertEvent(ctx, token, cfg.EffectiveCalendarID(), BuildCalendarEvent(reading, service.location))
	if err != nil {
		return syncOutcome{err: err}
	}
	service.markSynced(userID, reading.ID, created.ID)
	return syncOutcome{}
}

// RebuildSyncTracking corrects every local flag to match the calendar. A
// reading whose lookup fails keeps its flag and is reported.
func (service *CalendarSyncService) RebuildSyncTracking(ctx context.Context, cfg models.CalendarSyncConfig, userID uint, readings []models.Reading) (models.CalendarSyncConfig, RebuildResult, error) {
	cfg, err := service.EnsureFreshToken(ctx, cfg)
	if err != nil {
		return cfg, RebuildResult{Status: SyncStatusFailed, Errors: []SyncItemError{}}, err
	}

	result := RebuildResult{Errors: []SyncItemError{}}
	for _, reading := range readings {
		result.Checked++

		eventID, found, err := service.lookupEvent(ctx, cfg, reading.ID)
		if err != nil {
			result.addFailure(reading.ID, err)
			metrics.ObserveSyncItem("rebuild", "failed")
			continue
		}

		switch {
		case found && (!reading.SyncedToCalendar || reading.CalendarEventID != eventID):
			err = service.store.MarkSynced(userID, reading.ID, eventID)
			if err == nil {
				if reading.SyncedToCalendar {
					result.Unchanged++
				} else {
					result.Marked++
				}
			}
		case !found && reading.SyncedToCalendar:
			err = service.store.MarkUnsynced(userID, reading.ID)
			if err == nil {
				result.Cleared++
			}
		default:
			result.Unchanged++
		}

		if err != nil {
			result.addFailure(reading.ID, err)
			metrics.ObserveSyncItem("rebuild", "failed")
			continue
		}
		metrics.ObserveSyncItem("rebuild", "checked")
	}

	result.Status = resolveSyncStatus(result.Checked, result.Failed)
	return cfg, result, nil
}

// AutoSyncReading creates the event for a freshly saved reading when the
// user enabled automatic sync. The bool reports whether it ran.
func (service *CalendarSyncService) AutoSyncReading(ctx context.Context, cfg models.CalendarSyncConfig, userID uint, reading models.Reading) (models.CalendarSyncConfig, bool, error) {
	if !cfg.Connected() || !cfg.AutoSync {
		return cfg, false, nil
	}
	cfg, _, err := service.CreateEvent(ctx, cfg, userID, reading)
	return cfg, true, err
}

func (service *CalendarSyncService) lookupEvent(ctx context.Context, cfg models.CalendarSyncConfig, readingID string) (string, bool, error) {
	events, err := service.api.FindEventsByReadingID(ctx, tokenFromConfig(cfg), cfg.EffectiveCalendarID(), readingID)
	if err != nil {
		return "", false, err
	}
	if len(events) == 0 {
		return "", false, nil
	}
	return events[0].ID, true, nil
}

// A failed local write after a successful remote call is logged only; the
// next sync or rebuild repairs it.
func (service *CalendarSyncService) markSynced(userID uint, readingID string, eventID string) {
	if err := service.store.MarkSynced(userID, readingID, eventID); err != nil {
		service.logger.Printf("user %d: mark reading %s synced: %v", userID, readingID, err)
	}
}

func (service *CalendarSyncService) markUnsynced(userID uint, readingID string) {
	err := service.store.MarkUnsynced(userID, readingID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		service.logger.Printf("user %d: mark reading %s unsynced: %v", userID, readingID, err)
	}
}

func (service *CalendarSyncService) applyToken(cfg *models.CalendarSyncConfig, token *oauth2.Token) {
	cfg.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cfg.RefreshToken = token.RefreshToken
	}
	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = service.now().Add(defaultTokenTTL)
	}
	cfg.ExpiresAt = expiry.UnixMilli()
}

func tokenFromConfig(cfg models.CalendarSyncConfig) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       cfg.ExpiresAtTime(),
	}
}

func oauthStateMatches(returned string, expected string) bool {
	returned = strings.TrimSpace(returned)
	expected = strings.TrimSpace(expected)
	if returned == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(returned), []byte(expected)) == 1
}

func (result *SyncResult) addFailure(readingID string, err error) {
	result.Failed++
	result.Errors = append(result.Errors, SyncItemError{ReadingID: readingID, Message: err.Error()})
}

func (result *RebuildResult) addFailure(readingID string, err error) {
	result.Failed++
	result.Errors = append(result.Errors, SyncItemError{ReadingID: readingID, Message: err.Error()})
}
