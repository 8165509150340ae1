package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anthonyboth/agriroute-connect-sub007/internal/auth"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/config"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/db"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/dispatch"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/excel"
	httphandler "github.com/Anthonyboth/agriroute-connect-sub007/internal/http"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/http/middleware"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/i18n"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/logger"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/matrix"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/model"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/observability"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/payment"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pdf"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/pricing"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/repository"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/service"
	"github.com/Anthonyboth/agriroute-connect-sub007/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	loc := i18n.NewDefault(i18n.WithFallbackHook(
		observability.LabelFallbackHook(log, !cfg.IsProduction() || cfg.Guard.StrictLabels),
	))
	freightWorkflow := workflow.NewFreightGuard(loc)
	serviceWorkflow := workflow.NewServiceGuard(loc, cfg.Guard.ServiceExpirationHours)
	payments := payment.NewGuard(loc)
	prices := pricing.NewGuard(loc)
	actionMatrix := matrix.New(loc, freightWorkflow, payments)

	if issues := actionMatrix.Reconcile(); len(issues) > 0 {
		for _, d := range issues {
			log.Error().
				Str("status", string(d.Status)).
				Str("role", string(d.Role)).
				Str("action", string(d.Action)).
				Bool("in_table", d.Matrix).
				Bool("by_guard", d.Guard).
				Msg("action table disagrees with guards")
		}
		log.Warn().Int("issues", len(issues)).Msg("affected actions will run in safe mode")
	}

	dispatcher := dispatch.New(loc, freightWorkflow, actionMatrix, prices,
		dispatch.WithObserver(observability.DispatchObserver(log)))

	freightRepo := repository.NewFreightRepository(database)
	serviceRepo := repository.NewServiceRequestRepository(database)
	opsRepo := repository.NewOpsRepository(database)

	freightService := service.NewFreightService(freightRepo, dispatcher, actionMatrix, prices, loc, pdf.NewGenerator(loc, prices))
	serviceRequestService := service.NewServiceRequestService(serviceRepo, serviceWorkflow, payments, loc, log)
	serviceRequestService.OnExpired(func(model.ServiceRequest) {
		observability.ExpiredRequestsTotal.Inc()
	})
	opsService := service.NewOpsService(opsRepo, actionMatrix, excel.NewGenerator(loc))

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(freightService, serviceRequestService, opsService, prices, loc, log)
	router := httphandler.NewRouter(handler,
		middleware.Auth(tokenParser),
		middleware.OptionalAuth(tokenParser),
		cfg.HTTP.CORSAllowedOrigins,
		cfg.Environment,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Guard.ExpirySweepInterval > 0 {
		go runExpirySweep(ctx, serviceRequestService, cfg.Guard.ExpirySweepInterval, log)
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("starting freight guard service")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
