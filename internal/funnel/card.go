package funnel

import (
	"fmt"
	"html"
	"strings"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/locales"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

// RenderCard — чистая функция: накопленное состояние + текст вопроса →
// текст карточки. Карточка показывает только уже заполненные поля,
// индикатор прогресса активного трека и вопрос текущего шага.
func RenderCard(state *models.ConversationState, question, warn string) string {
	loc := locales.Get()
	var b strings.Builder

	b.WriteString(loc.Funnel.CardHeader)

	if lines := summaryLines(state); len(lines) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(lines, "\n"))
	}

	if cur, total := progress(state); total > 0 {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf(loc.Funnel.Progress, cur, total))
	}

	b.WriteString("\n\n")
	if warn != "" {
		b.WriteString(warn)
		b.WriteString("\n\n")
	}
	b.WriteString(question)
	return b.String()
}

// summaryLines перечисляет заполненные поля активного черновика.
// Пустое поле не даёт строки; токены пресетов переводятся в подписи,
// а нераспознанные значения выводятся как есть (но не сырыми токенами).
func summaryLines(state *models.ConversationState) []string {
	loc := locales.Get()
	f := loc.Funnel.Fields
	var lines []string

	// Значения могут быть ручным вводом пользователя: карточка уходит
	// с ParseMode=HTML, сырые угловые скобки ломают отправку
	add := func(field, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("• %s: %s", field, html.EscapeString(value)))
		}
	}

	switch {
	case state.Customs != nil:
		d := state.Customs
		add(f.Service, Label(models.ServiceCustoms))
		add(f.Cargo, labelOrText(d.CargoType))
		add(f.Country, labelOrText(d.Country))
		if d.InvoiceValue != "" {
			add(f.Value, DisplayValue(d.InvoiceValue, "$"))
		}
		add(f.Urgency, labelOrText(d.Urgency))
		add(f.Phone, d.Phone)
		add(f.Comment, d.Comment)

	case state.Delivery != nil:
		d := state.Delivery
		add(f.Service, Label(models.ServiceDelivery))
		add(f.Country, labelOrText(d.Country))
		add(f.City, d.CityFrom)
		add(f.Cargo, labelOrText(d.CargoType))
		if d.Weight != "" {
			add(f.Weight, DisplayValue(d.Weight, "кг"))
		}
		if d.Volume != "" {
			add(f.Volume, DisplayValue(d.Volume, "м³"))
		}
		add(f.Urgency, labelOrText(d.Urgency))
		add(f.Terms, labelOrText(d.Incoterms))
		add(f.Phone, d.Phone)
		add(f.Comment, d.Comment)

	case state.Question != nil:
		add(f.Service, Label(models.ServiceQuestion))
	}
	return lines
}

func labelOrText(v string) string {
	return Label(v)
}
