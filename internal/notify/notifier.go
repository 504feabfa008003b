// Package notify доставляет уведомления о лидах фиксированному
// списку сотрудников. Получатели независимы: отказ одного не мешает
// доставке остальным.
package notify

import (
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/funnel"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/locales"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

// Sender — минимальный срез Telegram API, нужный нотификатору
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Notifier struct {
	sender   Sender
	adminIDs []int64
	mailer   *Mailer // nil — почтовая копия выключена
}

func New(sender Sender, adminIDs []int64, mailer *Mailer) *Notifier {
	return &Notifier{sender: sender, adminIDs: adminIDs, mailer: mailer}
}

// NotifyLead рассылает карточку лида каждому сотруднику.
// Возвращает nil при доставке хотя бы одному получателю; частичные
// отказы только логируются. Кнопки статуса и телефона добавляются,
// когда лид сохранён и у него есть ID.
func (n *Notifier) NotifyLead(lead *models.Lead) error {
	loc := locales.Get()

	id := "—"
	if lead.ID > 0 {
		id = fmt.Sprintf("%d", lead.ID)
	}
	text := fmt.Sprintf(loc.Notify.NewLead, id, FormatLead(lead))

	var keyboard *tgbotapi.InlineKeyboardMarkup
	if lead.ID > 0 {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(loc.Notify.TakeProgress, fmt.Sprintf("adm:progress:%d", lead.ID)),
				tgbotapi.NewInlineKeyboardButtonData(loc.Notify.ShowPhone, fmt.Sprintf("adm:call:%d", lead.ID)),
			),
		)
		keyboard = &kb
	}

	delivered := 0
	for _, adminID := range n.adminIDs {
		if err := n.sendTo(adminID, text, keyboard); err != nil {
			log.Printf("Не удалось уведомить сотрудника %d: %v", adminID, err)
			continue
		}
		delivered++
	}

	if n.mailer != nil {
		if err := n.mailer.Send(fmt.Sprintf("Новый лид #%s", id), FormatLeadPlain(lead)); err != nil {
			log.Printf("Почтовая копия лида #%s не отправлена: %v", id, err)
		}
	}

	if delivered == 0 {
		return errors.New("лид не доставлен ни одному сотруднику")
	}
	if delivered < len(n.adminIDs) {
		log.Printf("Лид #%s доставлен %d из %d сотрудников", id, delivered, len(n.adminIDs))
	}
	return nil
}

// ForwardText пересылает сотрудникам сообщение, пришедшее вне воронки
func (n *Notifier) ForwardText(user models.User, text string) error {
	loc := locales.Get()

	who := user.FullName
	if user.Username != "" {
		who += " (@" + user.Username + ")"
	}
	who += fmt.Sprintf(" · id %d", user.ID)

	body := fmt.Sprintf(loc.Notify.Forwarded, who, text)
	delivered := 0
	for _, adminID := range n.adminIDs {
		if err := n.sendTo(adminID, body, nil); err != nil {
			log.Printf("Не удалось переслать сообщение сотруднику %d: %v", adminID, err)
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return errors.New("сообщение не доставлено ни одному сотруднику")
	}
	return nil
}

// SendTest шлёт тестовое уведомление и возвращает отчёт по получателям
func (n *Notifier) SendTest(from string) []string {
	loc := locales.Get()
	results := make([]string, 0, len(n.adminIDs))
	for _, adminID := range n.adminIDs {
		// Нарочно без разметки: тест должен дойти в любом случае
		msg := tgbotapi.NewMessage(adminID, fmt.Sprintf(loc.Notify.Test, from))
		if _, err := n.sender.Send(msg); err != nil {
			results = append(results, fmt.Sprintf("❌ %d — %v", adminID, err))
		} else {
			results = append(results, fmt.Sprintf("✅ %d — OK", adminID))
		}
	}
	return results
}

// sendTo отправляет HTML-сообщение; при отказе разметки повторяет
// попытку простым текстом
func (n *Notifier) sendTo(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := n.sender.Send(msg); err == nil {
		return nil
	}

	plain := tgbotapi.NewMessage(chatID, stripTags(text))
	if keyboard != nil {
		plain.ReplyMarkup = *keyboard
	}
	_, err := n.sender.Send(plain)
	return err
}

// FormatLead — HTML-сводка лида для уведомления
func FormatLead(lead *models.Lead) string {
	var b strings.Builder

	who := lead.FullName
	if lead.Username != "" {
		who += " (@" + lead.Username + ")"
	}
	fmt.Fprintf(&b, "👤 %s\n", who)
	if lead.Phone != "" {
		fmt.Fprintf(&b, "📱 %s\n", lead.Phone)
	}

	switch lead.ServiceType {
	case models.ServiceCustoms:
		fmt.Fprintf(&b, "🛃 Таможенное оформление\n")
		fmt.Fprintf(&b, "📦 %s, происхождение: %s\n", funnel.Label(lead.CargoType), funnel.Label(lead.Country))
		fmt.Fprintf(&b, "💵 ~$%.0f по инвойсу\n", lead.DeclaredValue)
		fmt.Fprintf(&b, "⏰ %s\n", funnel.Label(lead.Urgency))
	case models.ServiceDelivery:
		fmt.Fprintf(&b, "🌍 %s → %s\n", funnel.Label(lead.Country), lead.CityFrom)
		fmt.Fprintf(&b, "📦 %s, %.0f кг, %.1f м³\n", funnel.Label(lead.CargoType), lead.WeightKg, lead.VolumeM3)
		fmt.Fprintf(&b, "⏰ %s | %s\n", funnel.Label(lead.Urgency), funnel.Label(lead.Incoterms))
	case models.ServiceQuestion:
		fmt.Fprintf(&b, "❓ Свободный вопрос\n")
	}

	if lead.Comment != "" {
		fmt.Fprintf(&b, "💬 %s\n", lead.Comment)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatLeadPlain — сводка без разметки для почтовой копии
func FormatLeadPlain(lead *models.Lead) string {
	return stripTags(FormatLead(lead))
}

func stripTags(s string) string {
	r := strings.NewReplacer("<b>", "", "</b>", "", "<i>", "", "</i>", "", "<code>", "", "</code>", "")
	return r.Replace(s)
}
