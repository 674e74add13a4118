package config

import (
	"fmt"

	"ecomledger/internal/db"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
}

// KafkaConfig holds the ingestion event publisher settings. Publishing is
// disabled when no brokers are configured.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// PipelineConfig holds batch processor tuning knobs.
type PipelineConfig struct {
	ChunkSize int
	SkipLimit int
}

// Config aggregates all application settings.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Kafka    KafkaConfig
	Pipeline PipelineConfig
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: db.DefaultConfig(),
		Kafka:    KafkaConfig{Topic: "file.ingested"},
		Pipeline: PipelineConfig{ChunkSize: 100, SkipLimit: 100},
	}
}

// Load reads config.yaml from configPath, with environment overrides.
func Load(configPath string) (Config, error) {
	// Start with defaults
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()      // allow environment overrides
	v.SetEnvPrefix("APP") // map env vars like APP_DATABASE_HOST

	// Optional: Map nested keys to flat env vars
	v.BindEnv("server.port")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("kafka.brokers")
	v.BindEnv("kafka.topic")
	v.BindEnv("pipeline.chunk_size")
	v.BindEnv("pipeline.skip_limit")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	// Override defaults if values exist
	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("kafka.brokers") {
		cfg.Kafka.Brokers = v.GetStringSlice("kafka.brokers")
	}
	if v.IsSet("kafka.topic") {
		cfg.Kafka.Topic = v.GetString("kafka.topic")
	}
	if v.IsSet("pipeline.chunk_size") {
		cfg.Pipeline.ChunkSize = v.GetInt("pipeline.chunk_size")
	}
	if v.IsSet("pipeline.skip_limit") {
		cfg.Pipeline.SkipLimit = v.GetInt("pipeline.skip_limit")
	}

	return cfg, nil
}
