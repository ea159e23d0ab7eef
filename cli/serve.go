package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ragdesk/config"
	"ragdesk/cron"
	"ragdesk/handlers"
	"ragdesk/middleware"
	"ragdesk/routes"
	"ragdesk/services/documents"
	"ragdesk/services/intelligence"
	"ragdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchDir string

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API",
		Run:   runServe,
	}
	cmd.Flags().StringVar(&watchDir, "watch", "", "Auto-ingest files dropped into this directory (default: $WATCH_DIR)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	mustValidate()
	logger := utils.GetLogger()
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{withChat: true})
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize: %v", err)
	}
	defer a.Close()

	if config.AppConfig.NotifyAsync {
		if _, err := utils.InitQueueCache(); err != nil {
			logger.Sugar().Warnf("main: task queue unreachable, confirmations will wait: %v", err)
		}
		cron.InitConfirmationWorker(ctx, logger)
	}
	utils.StartHealthMonitor(ctx, utils.RedisClients(), a.storePinger())

	if watchDir == "" {
		watchDir = config.AppConfig.WatchDir
	}
	if watchDir != "" {
		startWatcher(ctx, a, watchDir, logger)
	}

	var transcriber handlers.Transcriber
	if config.AppConfig.GoogleServiceAccountFile != "" {
		stt, err := intelligence.NewSpeechTranscriber(ctx, config.AppConfig.GoogleServiceAccountFile)
		if err != nil {
			logger.Sugar().Warnf("main: voice chat disabled: %v", err)
		} else {
			defer stt.Close()
			transcriber = stt
		}
	}

	router := newRouter(a, transcriber, logger)
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	logger.Sugar().Info("main: server stopped gracefully")
}

func newRouter(a *app, transcriber handlers.Transcriber, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(handlers.ContextLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin, logger))

	chatHandler := handlers.NewChatHandler(a.chat)
	socketHandler := handlers.NewChatSocketHandler(a.chat, nil)
	documentHandler := handlers.NewDocumentHandler(a.ingestor, config.AppConfig.CleanDocuments)

	// Assemble the handler bundle.
	hb := &handlers.HandlerBundle{
		ChatHandler:        chatHandler.Chat,
		ChatHistoryHandler: chatHandler.History,
		ClearChatHandler:   chatHandler.Clear,
		ChatSocketHandler:  socketHandler.Serve,

		UploadDocumentHandler: documentHandler.Upload,
		ClearDocumentsHandler: documentHandler.Clear,
		DocumentStatsHandler:  documentHandler.Stats,

		HealthHandler: handlers.Health,
	}
	if transcriber != nil {
		hb.VoiceChatHandler = handlers.NewVoiceHandler(transcriber, a.chat).VoiceChat
	}

	routes.RegisterRoutes(router, hb)
	return router
}

func startWatcher(ctx context.Context, a *app, dir string, logger *zap.Logger) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Sugar().Warnf("main: cannot create watch dir %s: %v", dir, err)
		return
	}
	w, err := documents.NewWatcher(a.ingestor, config.AppConfig.CleanDocuments, logger)
	if err != nil {
		logger.Sugar().Warnf("main: folder watch disabled: %v", err)
		return
	}
	go func() {
		logger.Sugar().Infof("main: watching %s for new documents", dir)
		if err := w.Watch(ctx, dir); err != nil {
			logger.Sugar().Errorf("main: folder watch stopped: %v", err)
		}
	}()
}
