package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
	Watch     WatchConfig     `yaml:"watch"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// MessagingConfig defines the order-feed backend.
type MessagingConfig struct {
	Backend    string      `yaml:"backend"` // "mqtt" or "kafka"
	MQTT       MQTTConfig  `yaml:"mqtt"`
	Kafka      KafkaConfig `yaml:"kafka"`
	FeedTopic  string      `yaml:"feed_topic"`
	EventTopic string      `yaml:"event_topic"`
	ClientID   string      `yaml:"client_id"`
}

type MQTTConfig struct {
	Broker string `yaml:"broker"`
	Port   int    `yaml:"port"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// WatchConfig controls the SLA timer loop.
type WatchConfig struct {
	TickInterval       time.Duration `yaml:"tick_interval"`
	DefaultPrepMinutes int           `yaml:"default_prep_minutes"`
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "platewatch.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "platewatch",
				User:     "platewatch",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8084,
			SessionSecret: "change-me-in-production",
		},
		Messaging: MessagingConfig{
			Backend: "kafka",
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "platewatch",
			},
			FeedTopic:  "orders.active",
			EventTopic: "orders.events",
			ClientID:   "platewatch",
		},
		Watch: WatchConfig{
			TickInterval:       time.Second,
			DefaultPrepMinutes: 20,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// normalize backfills zero values that would break the watch loop.
func (c *Config) normalize() {
	if c.Watch.TickInterval <= 0 {
		c.Watch.TickInterval = time.Second
	}
	if c.Watch.DefaultPrepMinutes <= 0 {
		c.Watch.DefaultPrepMinutes = 20
	}
}
