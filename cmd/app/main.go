package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prasetyowira/qrtag/api"
	"github.com/prasetyowira/qrtag/config"
	"github.com/prasetyowira/qrtag/constant"
	"github.com/prasetyowira/qrtag/domain/form"
	"github.com/prasetyowira/qrtag/domain/tagger"
	"github.com/prasetyowira/qrtag/infrastructure/cache"
	"github.com/prasetyowira/qrtag/infrastructure/db"
	appLogger "github.com/prasetyowira/qrtag/infrastructure/logger"
	"github.com/prasetyowira/qrtag/infrastructure/qrcode"
)

func main() {
	// Load configuration from environment variables
	cfg := config.LoadConfig()

	// Initialize logger based on environment
	isProduction := cfg.LogLevel == "INFO"
	appLogger.Initialize(isProduction)
	defer appLogger.Close()

	appLogger.Info(constant.MsgApplicationStarting, appLogger.LoggerInfo{
		ContextFunction: constant.CtxMain,
		Data: map[string]interface{}{
			constant.DataPort:        cfg.Port,
			constant.DataDBPath:      cfg.DatabaseURL,
			constant.DataEnvironment: cfg.LogLevel,
			constant.DataScheme:      cfg.RefScheme,
			constant.DataDelay:       cfg.GenerateDelay.String(),
		},
	})

	repository, err := db.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		appLogger.Fatal(constant.MsgFailedToInitDB, appLogger.LoggerInfo{
			ContextFunction: constant.CtxMain,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAppDBInit,
				Message: err.Error(),
				Type:    constant.ErrTypeApp,
			},
			Data: map[string]interface{}{
				constant.DataDBPath: cfg.DatabaseURL,
			},
		})
	}
	defer repository.Close()

	scheme := tagger.TimestampScheme(cfg.RefLabel)
	if cfg.RefScheme == config.SchemeCounter {
		scheme = tagger.CounterScheme()
	}

	service := form.NewService(
		repository,
		cache.NewNamespaceLRU(cfg.CacheSize),
		qrcode.NewGenerator(),
		tagger.New(scheme, tagger.SystemClock()),
		form.Settings{Delay: cfg.GenerateDelay, Margin: cfg.QRMargin},
	)

	handler := api.NewHandler(service)
	router := api.NewRouter(handler)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info(constant.MsgServerStarting, appLogger.LoggerInfo{
			ContextFunction: constant.CtxMain,
			Data: map[string]interface{}{
				constant.DataPort: cfg.Port,
			},
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal(constant.MsgServerFailedToStart, appLogger.LoggerInfo{
				ContextFunction: constant.CtxMain,
				Error: &appLogger.CustomError{
					Code:    constant.ErrCodeAppServerStart,
					Message: err.Error(),
					Type:    constant.ErrTypeApp,
				},
				Data: map[string]interface{}{
					constant.DataPort: cfg.Port,
				},
			})
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info(constant.MsgServerShuttingDown, appLogger.LoggerInfo{
		ContextFunction: constant.CtxMain,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error(constant.MsgServerShutdownError, appLogger.LoggerInfo{
			ContextFunction: constant.CtxMain,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAppServerShutdown,
				Message: err.Error(),
				Type:    constant.ErrTypeApp,
			},
		})
	}

	// Scheduled generations write to the repository, so they finish before it closes
	if err := service.Drain(ctx); err != nil {
		appLogger.Error(constant.MsgDrainError, appLogger.LoggerInfo{
			ContextFunction: constant.CtxMain,
			Error: &appLogger.CustomError{
				Code:    constant.ErrCodeAppDrain,
				Message: err.Error(),
				Type:    constant.ErrTypeApp,
			},
		})
	}

	appLogger.Info(constant.MsgServerStopped, appLogger.LoggerInfo{
		ContextFunction: constant.CtxMain,
	})
}
