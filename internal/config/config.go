package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Telegram   TelegramConfig
	Server     ServerConfig
	Store      StoreConfig
	Game       GameConfig
	Moderation ModerationConfig
}

// TelegramConfig holds bot API settings.
type TelegramConfig struct {
	Token string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// WebhookMode switches from long polling to webhook delivery.
	WebhookMode bool   `envconfig:"WEBHOOK_MODE" default:"false"`
	WebhookURL  string `envconfig:"WEBHOOK_URL" default:""`

	// PaymentToken is the provider token for invoices. Empty selects
	// Telegram Stars.
	PaymentToken string `envconfig:"PAYMENT_PROVIDER_TOKEN" default:""`
}

// ServerConfig holds HTTP server settings (health checks and webhook).
type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"5s"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Type is one of: file, sqlite, redis, mock.
	Type string `envconfig:"STORE_TYPE" default:"file"`

	FilePath   string `envconfig:"STORE_FILE_PATH" default:"./data/bot_data.json"`
	SQLitePath string `envconfig:"STORE_SQLITE_PATH" default:"./data/cardbot.db"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// RedisAddress returns the Redis address in host:port format.
func (s *StoreConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", s.RedisHost, s.RedisPort)
}

// GameConfig holds the economy tunables.
type GameConfig struct {
	DrawCooldown  time.Duration `envconfig:"DRAW_COOLDOWN" default:"1h"`
	LuckyCooldown time.Duration `envconfig:"LUCKY_COOLDOWN" default:"24h"`
	MineCooldown  time.Duration `envconfig:"MINE_COOLDOWN" default:"10m"`
	PokerCooldown time.Duration `envconfig:"POKER_COOLDOWN" default:"30m"`

	MineRewardMin int `envconfig:"MINE_REWARD_MIN" default:"5"`
	MineRewardMax int `envconfig:"MINE_REWARD_MAX" default:"25"`

	// SlotPrice is the invoice amount for one extra sell slot, in the
	// smallest unit of the payment currency.
	SlotPrice int `envconfig:"SLOT_PRICE" default:"50"`
}

// ModerationConfig holds the group moderation thresholds.
type ModerationConfig struct {
	FloodLimit  int           `envconfig:"FLOOD_LIMIT" default:"5"`
	FloodWindow time.Duration `envconfig:"FLOOD_WINDOW" default:"10s"`
	FloodMute   time.Duration `envconfig:"FLOOD_MUTE_DURATION" default:"10m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Telegram.WebhookMode && cfg.Telegram.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
	}
	if cfg.Game.MineRewardMax < cfg.Game.MineRewardMin {
		return nil, fmt.Errorf("MINE_REWARD_MAX must be >= MINE_REWARD_MIN")
	}
	return &cfg, nil
}
