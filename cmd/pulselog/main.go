package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/pulselog/internal/api"
	"github.com/terraincognita07/pulselog/internal/cli"
	"github.com/terraincognita07/pulselog/internal/db"
	"github.com/terraincognita07/pulselog/internal/metrics"
)

const (
	minSecretKeyLength     = 32
	defaultCalendarAPIRate = 5.0
)

var insecureSecretPlaceholders = []string{
	"change_me_in_production",
	"replace_with_at_least_32_random_characters",
}

func main() {
	location := mustLoadLocation(getEnv("TZ", "UTC"))
	time.Local = location
	dbPath := getEnv("DB_PATH", filepath.Join("data", "pulselog.db"))

	if len(os.Args) > 1 && os.Args[1] == "reset-password" {
		if err := runResetPassword(dbPath, os.Args[2:]); err != nil {
			log.Fatalf("reset-password failed: %v", err)
		}
		return
	}

	secretKey, err := resolveSecretKey()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	port, err := resolvePort()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cookieSecure, err := resolveBoolEnv("COOKIE_SECURE", false)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	strictOAuthState, err := resolveBoolEnv("OAUTH_STRICT_STATE", false)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	metricsEnabled, err := resolveBoolEnv("METRICS_ENABLED", false)
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	calendarRate, err := resolveCalendarAPIRate()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}

	handler, err := api.NewHandler(database, api.HandlerOptions{
		SecretKey:    secretKey,
		Location:     location,
		CookieSecure: cookieSecure,
		Calendar: api.CalendarOptions{
			ClientID:          strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
			ClientSecret:      strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
			RedirectURL:       strings.TrimSpace(os.Getenv("GOOGLE_REDIRECT_URI")),
			StrictOAuthState:  strictOAuthState,
			RequestsPerSecond: calendarRate,
		},
	})
	if err != nil {
		log.Fatalf("handler init failed: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "PulseLog",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	if metricsEnabled {
		app.Use(metrics.Middleware())
		app.Get("/metrics", metrics.Handler())
	}
	app.Use(csrf.New(csrfMiddlewareConfig(cookieSecure)))

	api.RegisterRoutes(app, handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	if !handler.CalendarConfigured() {
		log.Printf("GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET not set, calendar sync disabled")
	}
	log.Printf("PulseLog listening on http://0.0.0.0:%s (db: %s, tz: %s)", port, dbPath, location.String())
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func runResetPassword(dbPath string, args []string) error {
	flags := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	prompt := flags.Bool("prompt", false, "type the new password instead of generating a temporary one")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: pulselog reset-password [-prompt] <email>")
	}

	return cli.RunResetPasswordCommand(cli.ResetPasswordOptions{
		DBPath:         dbPath,
		Email:          flags.Arg(0),
		PromptPassword: *prompt,
		Stdin:          os.Stdin,
		Out:            os.Stdout,
	})
}

func csrfMiddlewareConfig(cookieSecure bool) csrf.Config {
	return csrf.Config{
		KeyLookup:      "header:X-CSRF-Token",
		CookieName:     "pulselog_csrf",
		CookieSameSite: "Lax",
		CookieHTTPOnly: false,
		CookieSecure:   cookieSecure,
		ContextKey:     "csrf",
	}
}

func resolveSecretKey() (string, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	for _, placeholder := range insecureSecretPlaceholders {
		if strings.EqualFold(secret, placeholder) {
			return "", errors.New("SECRET_KEY uses an insecure placeholder value")
		}
	}
	if len(secret) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secret, nil
}

func resolvePort() (string, error) {
	raw := strings.TrimSpace(getEnv("PORT", "8080"))
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("invalid PORT %q", raw)
	}
	return strconv.Itoa(port), nil
}

func resolveBoolEnv(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, raw)
	}
	return value, nil
}

// resolveCalendarAPIRate reads CALENDAR_API_RPS; 0 or a negative value turns
// client-side pacing off.
func resolveCalendarAPIRate() (float64, error) {
	raw := strings.TrimSpace(os.Getenv("CALENDAR_API_RPS"))
	if raw == "" {
		return defaultCalendarAPIRate, nil
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid CALENDAR_API_RPS %q", raw)
	}
	if rate <= 0 {
		return -1, nil
	}
	return rate, nil
}

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid TZ %q, falling back to UTC", name)
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
