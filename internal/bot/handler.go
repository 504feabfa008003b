package bot

import (
	"context"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/antispam"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/config"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/database"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/funnel"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/llm"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/notify"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/locales"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

// Приветствия, запускающие воронку наравне с /start
var greetings = map[string]bool{
	"привет":       true,
	"здравствуйте": true,
	"добрый день":  true,
	"начать":       true,
	"hi":           true,
	"hello":        true,
}

// Bot связывает Telegram-транспорт с движком воронки
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	db       *database.DB
	engine   *funnel.Engine
	guard    *antispam.Guard
	notifier *notify.Notifier
	llm      *llm.Client // nil — автоответ выключен

	// Обновления обрабатываются по горутине на событие; события одного
	// пользователя при этом сериализуются, иначе два быстрых сообщения
	// наперегонки мутируют общее состояние воронки
	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// New создаёт нового бота поверх готового клиента Telegram
func New(api *tgbotapi.BotAPI, cfg *config.Config, db *database.DB, engine *funnel.Engine,
	guard *antispam.Guard, notifier *notify.Notifier, llmClient *llm.Client) *Bot {

	return &Bot{
		api:      api,
		cfg:      cfg,
		db:       db,
		engine:   engine,
		guard:    guard,
		notifier: notifier,
		llm:      llmClient,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (b *Bot) userLock(userID int64) *sync.Mutex {
	b.locksMu.Lock()
	defer b.locksMu.Unlock()
	l := b.locks[userID]
	if l == nil {
		l = &sync.Mutex{}
		b.locks[userID] = l
	}
	return l
}

// Start запускает обработку обновлений
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

// handleUpdate обрабатывает входящее обновление. Паника в обработчике
// не должна уронить цикл: одно сбойное событие не трогает остальные.
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Паника при обработке обновления %d: %v", update.UpdateID, r)
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message != nil {
		b.handleMessage(update.Message)
	}
}

// handleMessage обрабатывает текстовые сообщения и контакты
func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	user := userFrom(msg.From, msg.Chat.ID)

	lock := b.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	// Контакт всегда минует анти-спам. Вне воронки пересылается
	// именно номер: msg.Text у контактного сообщения пуст.
	if msg.Contact != nil {
		phone := msg.Contact.PhoneNumber
		b.renderOutcome(user, b.engine.Contact(user, phone), phone)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		// Фото, документы, стикеры: в воронке им делать нечего
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.showCard(user, b.engine.Start(user), 0)
		case "help":
			b.send(user.ChatID, locales.Get().Common.Help)
		case "leads", "lead", "status", "export", "test":
			b.handleAdminCommand(user, msg)
		default:
			b.send(user.ChatID, locales.Get().Common.Help)
		}
		return
	}

	if greetings[strings.ToLower(text)] && b.engine.CardID(user.ID) == 0 {
		b.showCard(user, b.engine.Start(user), 0)
		return
	}

	if !b.guard.Allow(user.ID, text, false) {
		return // молча: анти-спам не показывает ошибок
	}

	b.renderOutcome(user, b.engine.Text(user, text), text)
}

// handleCallback обрабатывает нажатия inline-кнопок
func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	user := userFrom(cb.From, cb.Message.Chat.ID)

	lock := b.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	// Отвечаем сразу, чтобы убрать «часики»
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("Ошибка ответа на callback: %v", err)
	}

	ev, ok := funnel.ParseCallback(cb.Data)
	if !ok {
		log.Printf("Неизвестный callback %q от пользователя %d", cb.Data, user.ID)
		return
	}

	switch ev.Kind {
	case funnel.EventAdminProgress, funnel.EventAdminCall:
		b.handleAdminCallback(user, cb, ev)
		return
	case funnel.EventAction:
		b.handleAfterSubmit(user, ev.Value)
		return
	}

	// Карточка — это сообщение, на котором нажали кнопку
	b.engine.SetCard(user.ID, cb.Message.MessageID)
	b.renderOutcome(user, b.engine.Select(user, ev), "")
}

// handleAfterSubmit — кнопки под подтверждением заявки
func (b *Bot) handleAfterSubmit(user models.User, action string) {
	loc := locales.Get()
	switch action {
	case "docs":
		b.send(user.ChatID, loc.Funnel.AfterSubmit.Docs)
	case "details":
		b.send(user.ChatID, loc.Funnel.AfterSubmit.Details)
	case "call":
		b.send(user.ChatID, loc.Funnel.AfterSubmit.Call)
	}
}

// renderOutcome доводит результат движка до пользователя
func (b *Bot) renderOutcome(user models.User, outcome *funnel.Outcome, rawText string) {
	loc := locales.Get()

	if outcome.Forward {
		// Состояния нет: сообщение уходит сотрудникам, пользователь
		// получает подтверждение — молча терять ввод нельзя
		if rawText != "" {
			if err := b.notifier.ForwardText(user, rawText); err != nil {
				log.Printf("Пересылка сообщения пользователя %d: %v", user.ID, err)
			}
		}
		b.send(user.ChatID, loc.Common.TextReceived)
		return
	}

	cardID := b.engine.CardID(user.ID)
	if outcome.Final != nil {
		cardID = outcome.Final.CardMessageID
	}
	if outcome.Prompt != nil {
		b.showCard(user, outcome.Prompt, cardID)
	}

	if outcome.Final != nil {
		b.answerQuestionLead(user, outcome.Final.Lead)
	}
}

// answerQuestionLead — необязательный автоответ LLM на свободный вопрос
func (b *Bot) answerQuestionLead(user models.User, lead *models.Lead) {
	if b.llm == nil || lead.ServiceType != models.ServiceQuestion || lead.Comment == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.OpenAITimeout)
	defer cancel()

	answer, err := b.llm.Answer(ctx, lead.Comment)
	if err != nil {
		log.Printf("Автоответ на вопрос пользователя %d не получился: %v", user.ID, err)
		return
	}
	b.send(user.ChatID, answer)
}

// showCard отправляет новую карточку или редактирует существующую.
// Если редактирование не удалось (карточка удалена или слишком старая),
// отправляется новое сообщение, и оно становится карточкой.
func (b *Bot) showCard(user models.User, p *funnel.Prompt, cardID int) {
	loc := locales.Get()
	keyboard := toInlineKeyboard(p.Choices)

	if p.RemoveKeyboard {
		// Reply-клавиатуру можно убрать только отдельным сообщением
		bye := tgbotapi.NewMessage(user.ChatID, loc.Funnel.PhoneSaved)
		bye.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
		if _, err := b.api.Send(bye); err != nil {
			log.Printf("Не удалось убрать клавиатуру: %v", err)
		}
	}

	sentID := 0
	if !p.NewCard && cardID > 0 {
		edit := tgbotapi.NewEditMessageText(user.ChatID, cardID, p.Text)
		edit.ParseMode = tgbotapi.ModeHTML
		if keyboard != nil {
			edit.ReplyMarkup = keyboard
		}
		if _, err := b.api.Send(edit); err == nil {
			sentID = cardID
		} else {
			log.Printf("Не удалось отредактировать карточку %d: %v", cardID, err)
		}
	}

	if sentID == 0 {
		msg := tgbotapi.NewMessage(user.ChatID, p.Text)
		msg.ParseMode = tgbotapi.ModeHTML
		if keyboard != nil {
			msg.ReplyMarkup = *keyboard
		}
		sent, err := b.api.Send(msg)
		if err != nil {
			// Разметка могла не понравиться Telegram — карточку
			// терять нельзя, повторяем без неё
			msg.ParseMode = ""
			sent, err = b.api.Send(msg)
		}
		if err != nil {
			log.Printf("Не удалось отправить карточку: %v", err)
			return
		}
		sentID = sent.MessageID
	}

	b.engine.SetCard(user.ID, sentID)

	if p.RequestContact {
		hint := tgbotapi.NewMessage(user.ChatID, loc.Funnel.PhoneHint)
		hint.ReplyMarkup = tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButtonContact(loc.Funnel.Buttons.SharePhone),
			),
		)
		if _, err := b.api.Send(hint); err != nil {
			log.Printf("Не удалось показать кнопку контакта: %v", err)
		}
	}
}

// send отправляет HTML-сообщение; при отказе разметки (например, ответ
// LLM с угловыми скобками) повторяет попытку простым текстом
func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err == nil {
		return
	}

	plain := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(plain); err != nil {
		log.Printf("Не удалось отправить сообщение в чат %d: %v", chatID, err)
	}
}

// toInlineKeyboard переводит ряды вариантов движка в разметку Telegram
func toInlineKeyboard(rows [][]funnel.Choice) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	var kbRows [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var btns []tgbotapi.InlineKeyboardButton
		for _, c := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Token))
		}
		kbRows = append(kbRows, btns)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &kb
}

func userFrom(from *tgbotapi.User, chatID int64) models.User {
	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return models.User{
		ID:       from.ID,
		ChatID:   chatID,
		Username: from.UserName,
		FullName: fullName,
	}
}
