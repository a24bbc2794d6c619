package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	registerAPIRoutes(app, handler)
	app.Use(handler.NotFound)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)
	auth.Get("/me", handler.AuthRequired, handler.CurrentSession)

	profile := api.Group("/profile", handler.AuthRequired)
	profile.Put("", handler.UpdateProfile)
	profile.Post("/password", handler.ChangePassword)
	profile.Delete("", handler.DeleteAccount)

	readings := api.Group("/readings", handler.AuthRequired)
	readings.Get("", handler.ListReadings)
	readings.Post("", handler.CreateReading)
	readings.Get("/:id", handler.GetReading)
	readings.Put("/:id", handler.UpdateReading)
	readings.Delete("/:id", handler.DeleteReading)
	readings.Post("/:id/calendar", handler.PushReadingToCalendar)
	readings.Delete("/:id/calendar", handler.RemoveReadingFromCalendar)

	targets := api.Group("/targets", handler.AuthRequired)
	targets.Get("", handler.GetTargets)
	targets.Put("", handler.UpdateTargets)
	targets.Post("/reset", handler.ResetTargets)

	api.Get("/stats", handler.AuthRequired, handler.GetStats)

	export := api.Group("/export", handler.AuthRequired)
	export.Get("/summary", handler.ExportSummary)
	export.Get("/csv", handler.ExportCSV)

	calendar := api.Group("/calendar", handler.AuthRequired)
	calendar.Get("", handler.CalendarStatus)
	calendar.Get("/connect", handler.ConnectCalendar)
	calendar.Get("/callback", handler.CalendarCallback)
	calendar.Post("/disconnect", handler.DisconnectCalendar)
	calendar.Put("/settings", handler.UpdateCalendarSettings)
	calendar.Get("/calendars", handler.ListCalendars)
	calendar.Post("/sync", handler.SyncCalendar)
	calendar.Post("/rebuild", handler.RebuildCalendarTracking)
}
