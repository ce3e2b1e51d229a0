package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"cardbot/internal/bot"
	"cardbot/internal/config"
	"cardbot/internal/game"
	"cardbot/internal/moderation"
	"cardbot/internal/storage"
	"cardbot/internal/storage/file"
	"cardbot/internal/storage/rediskv"
	"cardbot/internal/storage/sqlitekv"
	"cardbot/internal/storage/stubs"
)

// marketSweepInterval is how often expired listings are returned to their
// sellers independently of market reads.
const marketSweepInterval = 10 * time.Minute

// App wires the store, the game engine, the bot and the HTTP server.
type App struct {
	config *config.Config
	store  storage.Store
	bot    *bot.Bot
	timers *moderation.Timers
	market *game.Market
	duels  *game.Duels
	trades *game.Trades
	server *http.Server
	logger *zap.Logger
}

// New creates and initializes an application instance.
func New() (*App, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	app := &App{config: cfg, logger: logger}

	logger.Info("Starting card bot")

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initBot(); err != nil {
		return nil, err
	}
	app.initHTTPServer()

	return app, nil
}

// initStore selects and initializes the persistence backend.
func (a *App) initStore() error {
	var (
		store storage.Store
		err   error
	)
	switch a.config.Store.Type {
	case "mock":
		a.logger.Info("Using in-memory mock store")
		store = stubs.NewMockStore()
	case "file":
		a.logger.Info("Using JSON file store", zap.String("path", a.config.Store.FilePath))
		store = file.New(a.config.Store.FilePath)
	case "sqlite":
		a.logger.Info("Using SQLite store", zap.String("path", a.config.Store.SQLitePath))
		store, err = sqlitekv.New(a.config.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open SQLite store: %w", err)
		}
	case "redis":
		a.logger.Info("Using Redis store", zap.String("addr", a.config.Store.RedisAddress()))
		store, err = rediskv.New(rediskv.Options{
			Addr:     a.config.Store.RedisAddress(),
			Password: a.config.Store.RedisPassword,
			DB:       a.config.Store.RedisDB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	default:
		return fmt.Errorf("unknown store type %q", a.config.Store.Type)
	}

	ctx := context.Background()
	if err := store.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	a.logger.Info("Store initialized")

	a.store = store
	return nil
}

// initBot builds the game engine and the Telegram transport on top of it.
func (a *App) initBot() error {
	// One update is handled per goroutine, so the shared source must be
	// safe for concurrent draws.
	rng := game.NewLockedRand(time.Now().UnixNano())
	locks := game.NewKeyedMutex()
	deck := game.DefaultDeck()

	ledger := game.NewLedger(a.store, locks, a.logger)
	gate := game.NewGate(a.store, locks, nil)
	market := game.NewMarket(a.store, ledger, nil, a.logger)
	shop := game.NewShop(a.store, deck, rng, nil, a.logger)
	duels := game.NewDuels(ledger, deck, rng, nil, a.logger)
	trades := game.NewTrades(ledger, nil, a.logger)

	flood := moderation.NewFloodGate(a.config.Moderation.FloodLimit, a.config.Moderation.FloodWindow, nil)
	timers := moderation.NewTimers(a.store, nil, a.logger)
	settings := moderation.NewSettings(a.store)

	telegramBot, err := bot.NewBot(a.config, bot.Deps{
		Ledger:   ledger,
		Gate:     gate,
		Deck:     deck,
		Market:   market,
		Shop:     shop,
		Duels:    duels,
		Trades:   trades,
		Flood:    flood,
		Timers:   timers,
		Settings: settings,
		RNG:      rng,
		Logger:   a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	// Bind the restore callback and re-arm deadlines persisted by a
	// previous run.
	timers.Bind(telegramBot.HandleModTimer)
	if err := timers.Rearm(context.Background()); err != nil {
		a.logger.Warn("failed to re-arm moderation timers", zap.Error(err))
	}

	a.bot = telegramBot
	a.timers = timers
	a.market = market
	a.duels = duels
	a.trades = trades
	return nil
}

// initHTTPServer sets up health checks and the webhook endpoint.
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mode := "polling"
		if a.config.Telegram.WebhookMode {
			mode = "webhook"
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Card bot is running (mode: %s)", mode)
	})

	mux.HandleFunc("/telegram-webhook", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			a.logger.Warn("failed to decode webhook update", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Respond quickly; the update is processed in the background.
		go a.bot.HandleWebhookUpdate(update)
		w.WriteHeader(http.StatusOK)
	})

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      mux,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	go func() {
		a.logger.Info("Starting HTTP server", zap.Int("port", a.config.Server.Port))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
}

// sweepLoop periodically expires stale market listings and pending
// proposals so they are cleaned up even when nobody touches them.
func (a *App) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(marketSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sweepOnce(ctx)
		}
	}
}

func (a *App) sweepOnce(ctx context.Context) {
	n, err := a.market.SweepExpired(ctx)
	if err != nil {
		a.logger.Warn("market sweep failed", zap.Error(err))
	} else if n > 0 {
		a.logger.Info("expired market listings returned", zap.Int("count", n))
	}

	if n := a.duels.Sweep(); n > 0 {
		a.logger.Info("expired duel challenges dropped", zap.Int("count", n))
	}
	if n := a.trades.Sweep(); n > 0 {
		a.logger.Info("expired trade offers dropped", zap.Int("count", n))
	}
}

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go a.sweepLoop(sweepCtx)

	if a.config.Telegram.WebhookMode {
		a.logger.Info("Starting bot in webhook mode", zap.String("webhook_url", a.config.Telegram.WebhookURL))
		if err := a.bot.StartWebhook(a.config.Telegram.WebhookURL); err != nil {
			return fmt.Errorf("failed to set up webhook: %w", err)
		}
	} else {
		go func() {
			a.logger.Info("Starting bot in polling mode")
			if err := a.bot.Start(); err != nil {
				a.logger.Fatal("Failed to start bot", zap.Error(err))
			}
		}()
	}

	<-sigChan
	a.logger.Info("Shutting down")
	return a.Shutdown()
}

// Shutdown stops the HTTP server and closes the store.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("store close error", zap.Error(err))
	}
	_ = a.logger.Sync()
	return nil
}
