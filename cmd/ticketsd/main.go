package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/ticket-ingest/internal/auth"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
	"github.com/joseph-ayodele/ticket-ingest/internal/export"
	"github.com/joseph-ayodele/ticket-ingest/internal/extract"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/httpapi"
	"github.com/joseph-ayodele/ticket-ingest/internal/ocr"
	"github.com/joseph-ayodele/ticket-ingest/internal/pipeline"
	"github.com/joseph-ayodele/ticket-ingest/internal/report"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
	"github.com/joseph-ayodele/ticket-ingest/internal/server"
	"github.com/joseph-ayodele/ticket-ingest/internal/services/user"
	"github.com/joseph-ayodele/ticket-ingest/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	fieldCfg, err := fields.Load(cfg.Fields.Path)
	if err != nil {
		logger.Error("failed to load field configuration", "path", cfg.Fields.Path, "error", err)
		os.Exit(1)
	}
	store := fields.NewStore(fieldCfg, cfg.Fields.Path, logger)

	uploads, err := storage.NewLocal(cfg.Storage.UploadDir, logger)
	if err != nil {
		logger.Error("failed to prepare upload dir", "error", err)
		os.Exit(1)
	}
	artifacts, err := storage.NewLocal(cfg.Storage.ArtifactDir, logger)
	if err != nil {
		logger.Error("failed to prepare artifact dir", "error", err)
		os.Exit(1)
	}

	// Wire the pipeline
	ocrx := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		Timeout:       cfg.OCR.Timeout,
	}, logger)
	fx := extract.New(extract.WithLogger(logger))
	records := repository.NewDocumentRecordRepository(db, logger)
	proc := pipeline.NewProcessor(
		uploads, artifacts,
		extract.NewOCRAdapter(ocrx, logger),
		fx,
		records,
		export.NewWriter(logger, nil),
		pipeline.Options{MaxUploadBytes: cfg.Storage.MaxUploadBytes},
		logger,
	)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, nil)
	users := user.NewService(repository.NewUserRepository(db, logger), tokens, logger)
	if err := users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		logger.Error("failed to bootstrap admin", "error", err)
		os.Exit(1)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Processor:      proc,
		Records:        records,
		Users:          users,
		Tokens:         tokens,
		Fields:         store,
		Reports:        report.NewGenerator(logger, nil),
		Artifacts:      artifacts,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		HealthCheck: func(ctx context.Context) error {
			return server.PingDB(ctx, db, logger, 2*time.Second)
		},
		Logger: logger,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcSrv := server.NewGRPCServer(server.NewExtractionService(fx, store, logger), tokens, logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("grpc serving", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	grpcSrv.Shutdown()
	logger.Info("stopped")
}
