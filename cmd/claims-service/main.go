package main

import (
	"fmt"
	"os"

	"github.com/nurpe/groupbuy-claims/internal/auth"
	"github.com/nurpe/groupbuy-claims/internal/config"
	"github.com/nurpe/groupbuy-claims/internal/db"
	"github.com/nurpe/groupbuy-claims/internal/engine"
	"github.com/nurpe/groupbuy-claims/internal/excel"
	httphandler "github.com/nurpe/groupbuy-claims/internal/http"
	"github.com/nurpe/groupbuy-claims/internal/http/middleware"
	"github.com/nurpe/groupbuy-claims/internal/logger"
	"github.com/nurpe/groupbuy-claims/internal/notify"
	"github.com/nurpe/groupbuy-claims/internal/pdf"
	"github.com/nurpe/groupbuy-claims/internal/repository"
	"github.com/nurpe/groupbuy-claims/internal/service"
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

	catalogRepo := repository.NewCatalogRepository(database)
	instanceRepo := repository.NewInstanceRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	userRepo := repository.NewUserRepository(database)
	messageRepo := repository.NewMessageRepository(database)

	var dispatcher engine.Dispatcher
	var adminNotifier service.AdminNotifier
	if cfg.Notify.WebhookURL != "" {
		webhook, err := notify.NewWebhookDispatcher(cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init webhook dispatcher")
		}
		dispatcher, adminNotifier = webhook, webhook
	} else {
		log.Warn().Msg("no webhook url configured, notifications go to the log")
		logDispatcher := notify.NewLogDispatcher(log)
		dispatcher, adminNotifier = logDispatcher, logDispatcher
	}

	claimEngine := engine.New(catalogRepo, orderRepo, instanceRepo, dispatcher, log)

	catalogService := service.NewCatalogService(catalogRepo)
	accountService := service.NewAccountService(orderRepo, instanceRepo)
	adminService := service.NewAdminService(userRepo, cfg)
	messageService := service.NewMessageService(messageRepo, adminService, adminNotifier, log)
	reportService := service.NewReportService(
		instanceRepo,
		orderRepo,
		catalogRepo,
		userRepo,
		excel.NewGenerator(),
		pdf.NewGenerator(),
	)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(claimEngine.Claims, catalogService, accountService, messageService, log)
	adminHandler := httphandler.NewAdminHandler(
		catalogService,
		claimEngine.Mutations,
		reportService,
		adminService,
		messageService,
		handler,
		log,
	)

	authMiddleware := middleware.Auth(tokenParser, userRepo)
	adminMiddleware := middleware.AdminOnly(adminService)
	router := httphandler.NewRouter(handler, adminHandler, authMiddleware, adminMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting claims service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
