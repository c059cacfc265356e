// Package app wires the server's components together with a dig container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/manyidi1774/LegalBuddy/internal/config"
	"github.com/manyidi1774/LegalBuddy/internal/handler"
	"github.com/manyidi1774/LegalBuddy/internal/llm"
	natsclient "github.com/manyidi1774/LegalBuddy/internal/nats"
	"github.com/manyidi1774/LegalBuddy/internal/service"
	"github.com/manyidi1774/LegalBuddy/internal/session"
	"github.com/manyidi1774/LegalBuddy/internal/store"
	"github.com/manyidi1774/LegalBuddy/pkg/logger"
)

const connectTimeout = 15 * time.Second

// App owns the dependency container and the resources opened by it.
type App struct {
	container *dig.Container
	log       *logger.Logger

	mu      sync.Mutex
	closers []func(context.Context) error
}

// New registers every constructor. Nothing is connected until Handler is
// called.
func New(cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{
		container: dig.New(),
		log:       log,
	}

	providers := []interface{}{
		func() *config.Config { return cfg },
		func() *logger.Logger { return log },
		a.provideStore,
		a.provideSessionStore,
		provideSessionManager,
		a.provideLLM,
		a.provideEvents,
		service.NewChatService,
		handler.NewChatHandler,
		handler.NewPreferencesHandler,
		func(st store.Store, log *logger.Logger) *handler.HealthHandler {
			return handler.NewHealthHandler(st, log)
		},
		NewRouter,
	}
	for _, p := range providers {
		if err := a.container.Provide(p); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}

	return a, nil
}

// Handler builds the HTTP handler and everything it depends on.
func (a *App) Handler() (http.Handler, error) {
	var h http.Handler
	if err := a.container.Invoke(func(router http.Handler) { h = router }); err != nil {
		return nil, err
	}
	return h, nil
}

// Close releases resources in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.mu.Lock()
	a.closers = append(a.closers, fn)
	a.mu.Unlock()
}

func (a *App) provideStore(cfg *config.Config) (store.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	var (
		st  store.Store
		err error
	)
	switch cfg.StoreBackend {
	case store.BackendMongo:
		st, err = store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.MongoURI, Database: cfg.MongoDatabase})
	case store.BackendPostgres:
		st, err = store.NewPostgresStore(ctx, cfg.PostgresDSN)
	case store.BackendMemory:
		st = store.NewMemoryStore()
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	a.onClose(st.Close)
	a.log.Info("chat store ready", zap.String("backend", cfg.StoreBackend))
	return store.Instrument(st, cfg.StoreBackend), nil
}

func (a *App) provideSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.SessionStore {
	case session.StoreMemory:
		return session.NewMemoryStore(), nil
	case session.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		rs, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return rs.Close() })
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func provideSessionManager(cfg *config.Config, st session.Store) (*session.Manager, error) {
	return session.NewManager(st, session.ManagerConfig{
		Secret:       cfg.SessionSecret,
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.SessionCookieSecure,
	})
}

// provideLLM never fails: a provider that cannot be built is replaced by one
// that always errors, so chats still get the fallback reply.
func (a *App) provideLLM(cfg *config.Config) llm.Client {
	client, err := llm.NewClient(context.Background(), llm.Config{
		Provider:    llm.Provider(cfg.LLMProvider),
		APIKey:      cfg.LLMAPIKey(),
		Model:       cfg.LLMModel(),
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})
	if err != nil {
		a.log.Warn("completion provider unavailable, replies will use the fallback text",
			zap.String("provider", cfg.LLMProvider),
			zap.Error(err),
		)
		return llm.Unavailable{}
	}

	if c, ok := client.(interface{ Close() error }); ok {
		a.onClose(func(context.Context) error { return c.Close() })
	}
	a.log.Info("completion provider ready", zap.String("provider", client.Name()))
	return client
}

// provideEvents returns a NATS publisher, or a no-op one when NATS is not
// configured or unreachable.
func (a *App) provideEvents(cfg *config.Config, log *logger.Logger) service.EventPublisher {
	if cfg.NATSURL == "" {
		return natsclient.NopPublisher{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Warn("failed to connect to NATS, activity events disabled", zap.Error(err))
		return natsclient.NopPublisher{}
	}

	publisher := natsclient.NewPublisher(client)
	if err := publisher.EnsureStream(ctx); err != nil {
		log.Warn("failed to ensure event stream, activity events disabled", zap.Error(err))
		client.Close()
		return natsclient.NopPublisher{}
	}

	a.onClose(func(context.Context) error {
		client.Close()
		return nil
	})
	log.Info("activity events enabled", zap.String("stream", natsclient.StreamName))
	return publisher
}
