package services

import (
	"log/slog"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	AI        AIConfig
	JWT       JWTConfig
	WebSocket WebSocketConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type AIConfig struct {
	GeminiAPIKey string
}

type JWTConfig struct {
	Secret string
}

type WebSocketConfig struct {
	AllowedOrigins string
}

// configKeys maps every viper key to its environment variable and default.
var configKeys = []struct {
	key string
	env string
	def string
}{
	{"server.port", "SERVER_PORT", "8080"},
	{"websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS", ""},
	{"gemini.api_key", "GEMINI_API_KEY", ""},
	{"jwt.secret", "JWT_SECRET", ""},
	{"database.url", "DATABASE_URL", ""},
	{"database.seed", "DATABASE_SEED", "true"},
	{"database.log_level", "DATABASE_LOG_LEVEL", "silent"},
	{"database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS", "10"},
	{"database.max_open_conns", "DATABASE_MAX_OPEN_CONNS", "100"},
}

// LoadConfig loads configuration from environment variables and a local
// .env file, with env vars taking precedence.
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	for _, c := range configKeys {
		viper.SetDefault(c.key, c.def)
		viper.BindEnv(c.key, c.env)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		AI: AIConfig{
			GeminiAPIKey: viper.GetString("gemini.api_key"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
	}
}
