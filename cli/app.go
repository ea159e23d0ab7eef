package cli

import (
	"context"
	"errors"
	"fmt"

	"ragdesk/config"
	"ragdesk/cron"
	"ragdesk/database"
	"ragdesk/database/vectorstore"
	"ragdesk/services/booking"
	"ragdesk/services/chat"
	"ragdesk/services/documents"
	"ragdesk/services/intelligence"
	"ragdesk/services/notification"
	"ragdesk/services/retrieval"
	"ragdesk/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// app holds every long-lived component built from AppConfig.
type app struct {
	logger   *zap.Logger
	gemini   *intelligence.GeminiClient
	store    vectorstore.Store
	chat     *chat.Service
	ingestor *documents.Ingestor
	closers  []func() error
}

type appOptions struct {
	// withChat builds the dialogue and answer pipeline; ingest-only commands skip it.
	withChat bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg := config.AppConfig
	a := &app{logger: utils.GetLogger()}

	gemini, err := intelligence.NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.GeminiModel, cfg.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	a.gemini = gemini
	a.closers = append(a.closers, gemini.Close)

	store, err := openVectorStore(ctx, gemini.Embedder(cfg.EmbeddingDimension))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	a.ingestor, err = documents.NewIngestor(
		cfg.DataDir,
		documents.NewExtractor(),
		documents.NewCleaner(gemini, cfg.CleanChunkSize, a.logger),
		documents.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		store,
		a.logger,
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	if opts.withChat {
		if err := a.buildChat(); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) buildChat() error {
	cfg := config.AppConfig

	sessions, err := openSessionStore()
	if err != nil {
		return err
	}
	notifier, err := a.openNotifier()
	if err != nil {
		return err
	}
	table, err := config.LoadKeywordTable(cfg.IntentKeywordsFile)
	if err != nil {
		return err
	}

	engine := booking.NewDialogueEngine(
		booking.NewIntentClassifier(table),
		booking.NewParser(a.gemini, a.logger),
		booking.NewFinalizer(notifier, a.logger, booking.WithStepDelay(cfg.FinalizeStepDelay)),
		a.logger,
		booking.WithIdleTimeout(cfg.BookingIdleTimeout),
	)
	reranker := retrieval.NewReranker(a.store, a.logger,
		retrieval.WithWeights(retrieval.Weights{
			Vector:    cfg.RerankVectorWeight,
			Lexical:   cfg.RerankLexicalWeight,
			Heuristic: cfg.RerankHeuristicWeight,
		}),
		retrieval.WithOverfetch(cfg.RetrievalOverfetch),
	)
	a.chat = chat.NewService(engine, reranker, a.gemini, sessions, a.logger,
		chat.WithTopK(cfg.RetrievalTopK),
		chat.WithHistoryTurns(utils.HistoryDisplayTurns),
	)
	return nil
}

func openVectorStore(ctx context.Context, embedder vectorstore.Embedder) (vectorstore.Store, error) {
	cfg := config.AppConfig
	switch cfg.VectorStore {
	case "sqlite":
		return vectorstore.NewSQLiteStore(cfg.SQLitePath, embedder)
	case "mongo":
		client, err := database.InitDB(ctx)
		if err != nil {
			return nil, err
		}
		return vectorstore.NewMongoStore(database.ChunkCollection(client), cfg.MongoVectorIndex, embedder), nil
	case "qdrant":
		return vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
		}, embedder), nil
	default:
		return vectorstore.NewMemoryStore(embedder), nil
	}
}

func openSessionStore() (intelligence.SessionStore, error) {
	cfg := config.AppConfig
	if cfg.SessionBackend == "redis" {
		client, err := utils.InitSessionCache()
		if err != nil {
			return nil, err
		}
		return intelligence.NewRedisSessionStore(client, cfg.SessionTTL, cfg.SessionHistoryLimit), nil
	}
	return intelligence.NewMemorySessionStore(), nil
}

func (a *app) openNotifier() (booking.Notifier, error) {
	if !config.AppConfig.NotifyAsync {
		return notification.NewLogNotifier(a.logger), nil
	}
	queue := asynq.NewClient(cron.QueueRedisOpt())
	a.closers = append(a.closers, queue.Close)
	return notification.NewAsyncNotifier(queue, a.logger)
}

// storePinger reports the vector store as healthy while Stats succeeds.
func (a *app) storePinger() utils.Pinger {
	return utils.PingFunc(func(ctx context.Context) error {
		_, err := a.store.Stats(ctx)
		return err
	})
}

// Close releases resources in reverse order of creation.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	for _, c := range utils.RedisClients() {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := database.CloseDB(context.Background()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
