package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/habitboard-api/internal/application/auth"
	"github.com/habitboard-api/internal/application/calendar"
	"github.com/habitboard-api/internal/application/device"
	"github.com/habitboard-api/internal/application/entry"
	"github.com/habitboard-api/internal/application/habit"
	"github.com/habitboard-api/internal/application/media"
	"github.com/habitboard-api/internal/application/notification"
	"github.com/habitboard-api/internal/application/session"
	"github.com/habitboard-api/internal/application/stats"
	"github.com/habitboard-api/internal/application/user"
	"github.com/habitboard-api/internal/config"
	"github.com/habitboard-api/internal/domain"
	"github.com/habitboard-api/internal/transport/http/handler"
	appmiddleware "github.com/habitboard-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10. Applied to the public login endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		CodeRepo:        deps.LoginCodeRepo,
		UserRepo:        deps.UserRepo,
		SessionRepo:     deps.SessionRepo,
		DeviceRepo:      deps.DeviceRepo,
		Mailer:          deps.Mailer,
		SMSSender:       deps.SMSSender,
		JWTProvider:     deps.JWTProvider,
		CodeExpiry:      cfg.OTPExpiry,
		Cooldown:        cfg.OTPCooldown,
		MaxAttempts:     cfg.OTPMaxAttempts,
		RefreshTokenDur: cfg.RefreshTokenDur,
	})
	sessionSvc := session.NewService(deps.SessionRepo, deps.UserRepo, deps.JWTProvider, cfg.RefreshTokenDur)
	userSvc := user.NewService(deps.UserRepo, deps.SessionRepo)
	calendarSvc := calendar.NewService(deps.CalendarRepo, deps.HabitRepo)
	habitSvc := habit.NewService(deps.HabitRepo, deps.CalendarRepo)
	entrySvc := entry.NewService(deps.EntryRepo, deps.HabitRepo, deps.UserRepo, deps.NotificationRepo)
	statsSvc := stats.NewService(deps.EntryRepo, deps.HabitRepo, deps.CalendarRepo, deps.UserRepo)
	notifSvc := notification.NewService(deps.NotificationRepo)
	mediaSvc := media.NewService(deps.S3Store, deps.FileRepo)
	deviceSvc := device.NewService(deps.DeviceRepo, deps.AppVersionRepo)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	calendarH := handler.NewCalendarHandler(calendarSvc)
	habitH := handler.NewHabitHandler(habitSvc)
	entryH := handler.NewEntryHandler(entrySvc)
	statsH := handler.NewStatsHandler(statsSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	mediaH := handler.NewMediaHandler(mediaSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc)

	r.Route("/v1", func(r chi.Router) {
		// Public routes.
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/send-code", authH.SendCode)
		r.With(sensitiveRL.Limit).Post("/auth/verify-code", authH.VerifyCode)
		r.Post("/sessions/refresh", sessionH.Refresh)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)

			r.Post("/calendars", calendarH.Create)
			r.Get("/calendars", calendarH.List)
			r.Get("/calendars/{id}", calendarH.Get)
			r.Put("/calendars/{id}", calendarH.Update)
			r.Delete("/calendars/{id}", calendarH.Delete)
			r.Get("/calendars/{id}/habits", habitH.ListByCalendar)
			r.Get("/calendars/{id}/stats", statsH.CalendarStats)

			r.Post("/habits", habitH.Create)
			r.Get("/habits/{id}", habitH.Get)
			r.Put("/habits/{id}", habitH.Update)
			r.Delete("/habits/{id}", habitH.Delete)
			r.Get("/habits/{id}/entries", entryH.Range)
			r.Put("/habits/{id}/entries/{date}", entryH.Upsert)
			r.Delete("/habits/{id}/entries/{date}", entryH.Delete)
			r.Get("/habits/{id}/stats", statsH.HabitStats)
			r.Get("/habits/{id}/heatmap", statsH.Heatmap)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Post("/media", mediaH.Upload)
			r.Post("/media/base64", mediaH.UploadBase64)
			r.Get("/media/{id}", mediaH.Download)
			r.Get("/media/{id}/url", mediaH.PresignedURL)
			r.Delete("/media/{id}", mediaH.Delete)

			r.Get("/devices", deviceH.List)
			r.Put("/devices/version", deviceH.CheckVersion)
			r.Get("/devices/{id}", deviceH.Get)
			r.Put("/devices/{id}", deviceH.Update)
			r.Delete("/devices/{id}", deviceH.Delete)

			// Admin-only routes.
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)
			})
		})
	})

	return r
}
