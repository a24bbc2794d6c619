package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/terraincognita07/pulselog/internal/calendar"
	"github.com/terraincognita07/pulselog/internal/db"
	"github.com/terraincognita07/pulselog/internal/services"
	"gorm.io/gorm"
)

// HandlerOptions carries the runtime settings resolved by the binary.
type HandlerOptions struct {
	SecretKey    string
	Location     *time.Location
	CookieSecure bool
	Calendar     CalendarOptions
	Now          func() time.Time
}

// CalendarOptions configures the Google Calendar integration. The endpoint
// overrides exist for tests; empty values select the Google defaults.
type CalendarOptions struct {
	ClientID          string
	ClientSecret      string
	RedirectURL       string
	StrictOAuthState  bool
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *log.Logger

	APIBaseURL string
	AuthURL    string
	TokenURL   string
	RevokeURL  string
}

func NewHandler(database *gorm.DB, options HandlerOptions) (*Handler, error) {
	if database == nil {
		return nil, errors.New("database is required")
	}
	if strings.TrimSpace(options.SecretKey) == "" {
		return nil, errors.New("secret key is required")
	}

	location := options.Location
	if location == nil {
		location = time.Local
	}
	now := options.Now
	if now == nil {
		now = time.Now
	}
	cookieCodec, err := newSecureCookieCodec([]byte(options.SecretKey))
	if err != nil {
		return nil, err
	}

	handler := &Handler{
		db:                  database,
		secretKey:           []byte(options.SecretKey),
		location:            location,
		cookieSecure:        options.CookieSecure,
		cookieCodec:         cookieCodec,
		calendarRedirectURL: strings.TrimSpace(options.Calendar.RedirectURL),
		loginLimiter:        newAttemptLimiter(),
		now:                 now,
	}
	handler.withDependencies(database)
	handler.calendarSync = newCalendarSyncService(handler.repositories.Readings, options.Calendar, location, now)
	return handler, nil
}

func newCalendarSyncService(store *db.ReadingRepository, options CalendarOptions, location *time.Location, now func() time.Time) *services.CalendarSyncService {
	clientOptions := []calendar.ClientOption{calendar.WithHTTPClient(options.HTTPClient)}
	if options.APIBaseURL != "" {
		clientOptions = append(clientOptions, calendar.WithBaseURL(options.APIBaseURL))
	}
	if options.RequestsPerSecond != 0 {
		clientOptions = append(clientOptions, calendar.WithRateLimit(options.RequestsPerSecond, int(options.RequestsPerSecond)))
	}

	logger := options.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "calendar-sync ", log.LstdFlags|log.Lshortfile)
	}

	oauth := calendar.NewOAuth(calendar.OAuthSettings{
		ClientID:     options.ClientID,
		ClientSecret: options.ClientSecret,
		AuthURL:      options.AuthURL,
		TokenURL:     options.TokenURL,
		RevokeURL:    options.RevokeURL,
	}, options.HTTPClient)

	return services.NewCalendarSyncService(calendar.NewClient(clientOptions...), oauth, store, services.CalendarSyncOptions{
		StrictOAuthState: options.StrictOAuthState,
		Location:         location,
		Logger:           logger,
		Now:              now,
	})
}

// CalendarConfigured reports whether Google OAuth client credentials were supplied.
func (handler *Handler) CalendarConfigured() bool {
	return handler.calendarSync != nil && handler.calendarSync.OAuthConfigured()
}
