package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/database"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/funnel"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/locales"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

var statusEmoji = map[string]string{
	models.StatusNew:        "🆕",
	models.StatusInProgress: "🔄",
	models.StatusWon:        "✅",
	models.StatusLost:       "❌",
}

// handleAdminCommand — команды сотрудников. Всё, кроме /test,
// доступно только ID из ADMIN_CHAT_ID; чужие команды игнорируются молча.
func (b *Bot) handleAdminCommand(user models.User, msg *tgbotapi.Message) {
	cmd := msg.Command()
	if cmd != "test" && !b.cfg.IsAdmin(user.ID) {
		return
	}

	switch cmd {
	case "leads":
		b.cmdLeads(user, msg.CommandArguments())
	case "lead":
		b.cmdLead(user, msg.CommandArguments())
	case "status":
		b.cmdStatus(user, msg.CommandArguments())
	case "export":
		b.cmdExport(user)
	case "test":
		b.cmdTest(user)
	}
}

// cmdLeads — последние N лидов (по умолчанию 10)
func (b *Bot) cmdLeads(user models.User, args string) {
	loc := locales.Get()

	limit := 10
	if fields := strings.Fields(args); len(fields) > 0 {
		if n, err := strconv.Atoi(fields[0]); err == nil && n > 0 {
			limit = n
		}
	}

	leads, err := b.db.ListLeads(context.Background(), limit)
	if err != nil {
		b.reportStoreError(user, err)
		return
	}
	if len(leads) == 0 {
		b.send(user.ChatID, loc.Admin.NoLeads)
		return
	}

	lines := []string{fmt.Sprintf(loc.Admin.LeadsHeader, len(leads))}
	for _, ld := range leads {
		emoji := statusEmoji[ld.Status]
		if emoji == "" {
			emoji = "❓"
		}
		lines = append(lines, fmt.Sprintf("%s <b>#%d</b> | %s | %s | %s",
			emoji, ld.ID, funnel.Label(ld.Country), ld.Status,
			ld.CreatedAt.Format("02.01 15:04")))
	}
	b.send(user.ChatID, strings.Join(lines, "\n"))
}

// cmdLead — карточка одного лида
func (b *Bot) cmdLead(user models.User, args string) {
	loc := locales.Get()

	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		b.send(user.ChatID, loc.Admin.LeadUsage)
		return
	}

	lead, err := b.db.GetLead(context.Background(), id)
	if err != nil {
		b.reportStoreError(user, err)
		return
	}
	if lead == nil {
		b.send(user.ChatID, loc.Admin.LeadNotFound)
		return
	}

	uname := ""
	if lead.Username != "" {
		uname = " (@" + lead.Username + ")"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Лид #%d</b>\n\n", lead.ID)
	fmt.Fprintf(&sb, "👤 %s%s\n", lead.FullName, uname)
	fmt.Fprintf(&sb, "📱 %s\n", lead.Phone)
	fmt.Fprintf(&sb, "🏷 Услуга: %s\n", funnel.Label(lead.ServiceType))
	switch lead.ServiceType {
	case models.ServiceCustoms:
		fmt.Fprintf(&sb, "📦 %s, происхождение: %s\n", funnel.Label(lead.CargoType), funnel.Label(lead.Country))
		fmt.Fprintf(&sb, "💵 ~$%.0f по инвойсу | ⏰ %s\n", lead.DeclaredValue, funnel.Label(lead.Urgency))
	case models.ServiceDelivery:
		fmt.Fprintf(&sb, "🌍 %s → %s\n", funnel.Label(lead.Country), lead.CityFrom)
		fmt.Fprintf(&sb, "📦 %s\n", funnel.Label(lead.CargoType))
		fmt.Fprintf(&sb, "⚖️ %.0f кг | 📐 %.1f м³ | %s\n", lead.WeightKg, lead.VolumeM3, funnel.Label(lead.Incoterms))
	}
	fmt.Fprintf(&sb, "📊 Статус: <b>%s</b>\n", lead.Status)
	fmt.Fprintf(&sb, "📅 %s", lead.CreatedAt.Format("02.01.2006 15:04"))
	if lead.Comment != "" {
		fmt.Fprintf(&sb, "\n💬 %s", lead.Comment)
	}
	b.send(user.ChatID, sb.String())
}

// cmdStatus — смена статуса лида
func (b *Bot) cmdStatus(user models.User, args string) {
	loc := locales.Get()

	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.send(user.ChatID, loc.Admin.StatusUsage)
		return
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		b.send(user.ChatID, loc.Admin.StatusBadID)
		return
	}
	status := strings.ToUpper(fields[1])
	if !models.ValidStatuses[status] {
		b.send(user.ChatID, fmt.Sprintf(loc.Admin.StatusInvalid,
			"NEW, IN_PROGRESS, WON, LOST"))
		return
	}

	ok, err := b.db.UpdateLeadStatus(context.Background(), id, status)
	if err != nil {
		b.reportStoreError(user, err)
		return
	}
	if !ok {
		b.send(user.ChatID, loc.Admin.LeadNotFound)
		return
	}
	b.send(user.ChatID, fmt.Sprintf(loc.Admin.StatusSet, statusEmoji[status], id, status))
}

// cmdExport — выгрузка всех лидов в CSV
func (b *Bot) cmdExport(user models.User) {
	loc := locales.Get()

	leads, err := b.db.ExportAllLeads(context.Background())
	if err != nil {
		b.reportStoreError(user, err)
		return
	}
	if len(leads) == 0 {
		b.send(user.ChatID, loc.Admin.ExportEmpty)
		return
	}

	doc := tgbotapi.NewDocument(user.ChatID, tgbotapi.FileBytes{
		Name:  "leads.csv",
		Bytes: LeadsCSV(leads),
	})
	doc.Caption = fmt.Sprintf(loc.Admin.ExportCaption, len(leads))
	if _, err := b.api.Send(doc); err != nil {
		log.Printf("Не удалось отправить CSV: %v", err)
	}
}

// cmdTest — тестовое уведомление; доступно всем для проверки связи
func (b *Bot) cmdTest(user models.User) {
	results := b.notifier.SendTest(user.FullName)
	b.send(user.ChatID, "<b>Тест уведомлений:</b>\n\n"+strings.Join(results, "\n"))
}

// handleAdminCallback — кнопки под уведомлением о лиде
func (b *Bot) handleAdminCallback(user models.User, cb *tgbotapi.CallbackQuery, ev funnel.Event) {
	loc := locales.Get()

	if !b.cfg.IsAdmin(user.ID) {
		alert := tgbotapi.NewCallbackWithAlert(cb.ID, loc.Admin.NoAccess)
		if _, err := b.api.Request(alert); err != nil {
			log.Printf("Ошибка ответа на callback: %v", err)
		}
		return
	}

	switch ev.Kind {
	case funnel.EventAdminProgress:
		ok, err := b.db.UpdateLeadStatus(context.Background(), ev.LeadID, models.StatusInProgress)
		if err != nil {
			b.reportStoreError(user, err)
			return
		}
		if !ok {
			b.send(user.ChatID, loc.Admin.LeadNotFound)
			return
		}
		// Кнопки с уведомления снимаем: лид уже разобран
		clear := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
			tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
		if _, err := b.api.Send(clear); err != nil {
			log.Printf("Не удалось снять кнопки уведомления: %v", err)
		}
		b.send(user.ChatID, fmt.Sprintf(loc.Admin.TakenProgress, ev.LeadID))

	case funnel.EventAdminCall:
		lead, err := b.db.GetLead(context.Background(), ev.LeadID)
		if err != nil {
			b.reportStoreError(user, err)
			return
		}
		if lead == nil {
			b.send(user.ChatID, loc.Admin.LeadNotFound)
			return
		}
		b.send(user.ChatID, fmt.Sprintf(loc.Admin.ClientPhone, lead.Phone))
	}
}

func (b *Bot) reportStoreError(user models.User, err error) {
	loc := locales.Get()
	if errors.Is(err, database.ErrUnavailable) {
		b.send(user.ChatID, loc.Admin.StoreDown)
		return
	}
	log.Printf("Ошибка хранилища в админ-команде: %v", err)
	b.send(user.ChatID, loc.Admin.StoreDown)
}

// Порядок колонок экспорта фиксирован
var csvHeader = []string{
	"id", "telegram_id", "username", "full_name", "service_type",
	"country", "city_from", "cargo_type", "weight_kg", "volume_m3",
	"urgency", "incoterms", "declared_value", "phone", "comment",
	"status", "created_at", "updated_at",
}

// LeadsCSV кодирует лиды в CSV. Файл начинается с UTF-8 BOM,
// иначе Excel показывает кириллицу кракозябрами.
func LeadsCSV(leads []*models.Lead) []byte {
	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")

	w := csv.NewWriter(&buf)
	_ = w.Write(csvHeader)
	for _, ld := range leads {
		_ = w.Write([]string{
			strconv.FormatInt(ld.ID, 10),
			strconv.FormatInt(ld.TelegramID, 10),
			ld.Username,
			ld.FullName,
			ld.ServiceType,
			ld.Country,
			ld.CityFrom,
			ld.CargoType,
			formatFloat(ld.WeightKg),
			formatFloat(ld.VolumeM3),
			ld.Urgency,
			ld.Incoterms,
			formatFloat(ld.DeclaredValue),
			ld.Phone,
			ld.Comment,
			ld.Status,
			ld.CreatedAt.Format("2006-01-02 15:04:05"),
			ld.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
