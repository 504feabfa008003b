package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramBotToken string
	DatabaseURL      string

	// Telegram ID сотрудников через запятую (ADMIN_CHAT_ID)
	AdminIDs []int64

	// Анти-спам
	RateLimitMessages int
	RateLimitSeconds  int
	DedupSeconds      int

	// Health-check сервер для супервизора
	HealthAddr string

	// Фоновое переподключение к БД
	StoreRetryInterval time.Duration
	StoreRetryAttempts int

	// LLM для трека «свободный вопрос» (опционально)
	LLMEnabled     bool
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	OpenAITimeout  time.Duration
	OpenAIMaxTok   int

	// Почтовая копия уведомлений (опционально, включается при MAIL_HOST)
	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailTo   []string
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken:   os.Getenv("BOT_TOKEN"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RateLimitMessages:  envInt("RATE_LIMIT_MESSAGES", 3),
		RateLimitSeconds:   envInt("RATE_LIMIT_SECONDS", 5),
		DedupSeconds:       envInt("DEDUP_SECONDS", 30),
		HealthAddr:         envStr("HEALTH_ADDR", ":8080"),
		StoreRetryInterval: time.Duration(envInt("STORE_RETRY_SECONDS", 15)) * time.Second,
		StoreRetryAttempts: envInt("STORE_RETRY_ATTEMPTS", 20),
		LLMEnabled:         envBool("LLM_ENABLED", false),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        envStr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      envStr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAITimeout:      time.Duration(envInt("OPENAI_TIMEOUT_SECONDS", 20)) * time.Second,
		OpenAIMaxTok:       envInt("OPENAI_MAX_TOKENS", 500),
		MailHost:           os.Getenv("MAIL_HOST"),
		MailPort:           envInt("MAIL_PORT", 587),
		MailUser:           os.Getenv("MAIL_USER"),
		MailPass:           os.Getenv("MAIL_PASS"),
		MailTo:             splitList(os.Getenv("MAIL_TO")),
	}

	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("не задан BOT_TOKEN")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("не задан DATABASE_URL")
	}

	ids, err := ParseAdminIDs(os.Getenv("ADMIN_CHAT_ID"))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("не задан ADMIN_CHAT_ID")
	}
	cfg.AdminIDs = ids

	return cfg, nil
}

// ParseAdminIDs разбирает "123, 456,789" в список Telegram ID
func ParseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("некорректный ADMIN_CHAT_ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsAdmin сообщает, входит ли пользователь в список сотрудников
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
