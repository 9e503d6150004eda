package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr       string
	MySQLDSN       string
	RedisAddr      string
	KafkaBroker    string
	MovementTopic  string
	WorkerCount    int
	EventQueueSize int
}

// Load reads configuration from the environment, falling back to
// defaults suitable for local development.
func Load() Config {
	return Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:       getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/stockledger?parseTime=true"),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		KafkaBroker:    getenv("KAFKA_BROKER", "localhost:9092"),
		MovementTopic:  getenv("MOVEMENT_TOPIC", "stock-movements"),
		WorkerCount:    getenvInt("WORKER_COUNT", 4),
		EventQueueSize: getenvInt("EVENT_QUEUE_SIZE", 10000),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
