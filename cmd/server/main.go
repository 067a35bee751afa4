package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/controllab/clinic-ops/internal/config"
	"github.com/controllab/clinic-ops/internal/database"
	"github.com/controllab/clinic-ops/internal/handler"
	"github.com/controllab/clinic-ops/internal/queue"
	"github.com/controllab/clinic-ops/internal/reconciler"
	"github.com/controllab/clinic-ops/internal/repository"
	"github.com/controllab/clinic-ops/internal/router"
	"github.com/controllab/clinic-ops/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "clinic-ops").Logger()
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn().Msg("redis unavailable, board cache and rate limiting disabled")
	}

	doctorRepo := repository.NewDoctorRepo(db)
	patientRepo := repository.NewPatientRepo(db)
	turnRepo := repository.NewTurnRepo(db)
	apptRepo := repository.NewAppointmentRepo(db)
	callRepo := repository.NewCallRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	regRepo := repository.NewRegistrationRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	cashRepo := repository.NewCashRepo(db)

	turnHandler := handler.NewTurnHandler(turnRepo, doctorRepo, logger)
	callHandler := handler.NewCallHandler(callRepo, &cfg, logger)
	patientHandler := handler.NewPatientHandler(patientRepo, doctorRepo, turnRepo, apptRepo, cashRepo, cfg.DeskTurnLetter, logger)
	patientHandler.Publish = service.PublishPaymentRecorded
	doctorHandler := handler.NewDoctorHandler(doctorRepo, apptRepo, logger)
	roomHandler := handler.NewRoomHandler(roomRepo, regRepo, logger)
	regHandler := handler.NewRegistrationHandler(regRepo, logger)
	paymentHandler := handler.NewPaymentHandler(paymentRepo, regRepo, roomRepo, logger)
	paymentHandler.Publish = service.PublishPaymentRecorded
	cashHandler := handler.NewCashHandler(cashRepo, cfg.DeskTurnLetter, logger)
	cashHandler.Publish = service.PublishPaymentRecorded
	accountingHandler := handler.NewAccountingHandler(cashRepo, paymentRepo, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	router.RegisterHealth(e)
	router.RegisterBoards(e, callHandler, roomHandler, config.LoadCacheConfig(), config.LoadRateLimitConfig(), rdb)
	router.RegisterDesk(e, patientHandler, turnHandler, callHandler, regHandler, cfg.JWTSecret)
	router.RegisterDoctors(e, doctorHandler, cfg.JWTSecret)
	router.RegisterRooms(e, roomHandler, cfg.JWTSecret)
	router.RegisterBilling(e, paymentHandler, cashHandler, accountingHandler, cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweeper := reconciler.New(regRepo, cfg.ReconcileInterval, logger)
	go sweeper.Run(ctx)

	go queue.StartPaymentConsumer(logger)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}
}
