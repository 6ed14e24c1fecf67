// Server exposes the university space reservation API over HTTP, backed by a
// SQLite database.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/application"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/config"
	httptransport "github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/http"
	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence/sqlite"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.Open(ctx, cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	now := time.Now

	reservationRepo := sqlite.NewReservationRepository(db)
	roomRepo := sqlite.NewRoomRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	projectRepo := sqlite.NewProjectRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	auditRepo := sqlite.NewAuditRepository(db)

	auditor := application.NewAuditor(auditRepo, idGenerator, now, logger)
	authService := application.NewAuthService(userRepo, sessionRepo, auditor, []byte(cfg.SessionSecret), cfg.SessionTTL, idGenerator, now, logger)
	reservationService := application.NewReservationService(reservationRepo, roomRepo, projectRepo, auditor, idGenerator, now, logger)
	roomService := application.NewRoomService(roomRepo, auditor, idGenerator, now, logger)
	userService := application.NewUserService(userRepo, auditor, idGenerator, now, logger)
	projectService := application.NewProjectService(projectRepo, userRepo, auditor, idGenerator, now, logger)

	loginLimiter := httptransport.NewLoginRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, logger),
		Rooms:        httptransport.NewRoomHandler(roomService, logger),
		Users:        httptransport.NewUserHandler(userService, logger),
		Projects:     httptransport.NewProjectHandler(projectService, logger),
		SessionGuard: httptransport.RequireSession(authService, logger),
		LoginLimiter: loginLimiter.Middleware(logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("reservation API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
