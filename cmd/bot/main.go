package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/antispam"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/bot"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/config"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/database"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/funnel"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/health"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/llm"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/notify"
)

func main() {
	log.Println("Загрузка конфигурации...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// База данных. Недоступность не фатальна: переподключение идёт
	// в фоне, бот тем временем принимает события.
	log.Println("Подключение к базе данных...")
	db, err := database.New(cfg.DatabaseURL, cfg.StoreRetryInterval, cfg.StoreRetryAttempts)
	if err != nil {
		log.Fatalf("Не удалось открыть базу данных: %v", err)
	}
	defer db.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Ошибка создания бота: %v", err)
	}
	log.Printf("Авторизован как @%s", api.Self.UserName)

	var mailer *notify.Mailer
	if cfg.MailHost != "" && len(cfg.MailTo) > 0 {
		mailer = notify.NewMailer(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailTo)
		log.Printf("Почтовая копия уведомлений включена (%d адресов)", len(cfg.MailTo))
	}
	notifier := notify.New(api, cfg.AdminIDs, mailer)

	var llmClient *llm.Client
	if cfg.LLMEnabled && cfg.OpenAIAPIKey != "" {
		llmClient = llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL,
			cfg.OpenAITimeout, cfg.OpenAIMaxTok)
		log.Printf("Автоответ LLM включён (%s)", cfg.OpenAIModel)
	}

	guard := antispam.New(cfg.RateLimitMessages, cfg.RateLimitSeconds, cfg.DedupSeconds)
	go guard.RunGC(ctx.Done(), time.Minute)

	engine := funnel.NewEngine(funnel.NewStateStore(), db, notifier)
	b := bot.New(api, cfg, db, engine, guard, notifier, llmClient)

	health.Start(cfg.HealthAddr)

	log.Println("Бот запущен, ожидаю события...")
	if err := b.Start(ctx); err != nil {
		log.Fatalf("Ошибка обработки событий: %v", err)
	}
	log.Println("Бот остановлен")
}
