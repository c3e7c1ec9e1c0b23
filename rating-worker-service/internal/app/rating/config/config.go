package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config настройки Rating Worker: Postgres (чтение отзывов для сверки),
// Redis (агрегаты по пользователям), Kafka (события отзывов) и cron
type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	CronSchedule CronScheduleConfig
	HTTP         HTTPConfig
}

// DatabaseConfig та же БД, что у feedback-service; worker только читает reviews
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	DedupTTL time.Duration // Сколько хранится id обработанного события
}

type KafkaConfig struct {
	Brokers      []string
	Topics       []string // review.created, review.updated, review.deleted
	GroupID      string
	MinBytes     int
	MaxBytes     int
	RetryBackoff time.Duration // Пауза перед повторной обработкой сообщения
}

type CronScheduleConfig struct {
	Reconcile string // Расписание пересчета агрегатов из Postgres
}

type HTTPConfig struct {
	Port string
}

func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "feedback"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 1),
			DedupTTL: time.Duration(getEnvInt("RATING_EVENT_DEDUP_TTL_HOURS", 24)) * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topics:       splitList(getEnv("KAFKA_TOPICS", "review.created,review.updated,review.deleted")),
			GroupID:      getEnv("KAFKA_GROUP_ID", "rating-worker-group"),
			MinBytes:     getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes:     getEnvInt("KAFKA_MAX_BYTES", 10e6),
			RetryBackoff: time.Duration(getEnvInt("KAFKA_RETRY_BACKOFF_MS", 1000)) * time.Millisecond,
		},
		CronSchedule: CronScheduleConfig{
			Reconcile: getEnv("CRON_RECONCILE", "@hourly"),
		},
		HTTP: HTTPConfig{
			Port: getEnv("HTTP_PORT", "8081"),
		},
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must not be empty")
	}
	if len(cfg.Kafka.Topics) == 0 {
		return nil, fmt.Errorf("KAFKA_TOPICS must not be empty")
	}
	if cfg.Redis.DedupTTL <= 0 {
		return nil, fmt.Errorf("RATING_EVENT_DEDUP_TTL_HOURS must be positive")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *HTTPConfig) Address() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
