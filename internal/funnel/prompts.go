package funnel

import (
	"fmt"
	"html"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/locales"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

// promptFor строит карточку текущего шага: вопрос, сводка накопленных
// ответов и клавиатура. Вызывается и при возврате назад — клавиатура
// предыдущего шага восстанавливается из уже накопленного состояния.
func (e *Engine) promptFor(state *models.ConversationState, warn string) *Prompt {
	loc := locales.Get()
	q := loc.Funnel.Questions

	var question string
	var choices [][]Choice
	requestContact := false
	removeKeyboard := false

	switch state.Step {
	case StepService:
		question = q.Service
		choices = choiceRows(StepService, Services, 1, false)

	case StepCustomsCargo:
		if state.AwaitingText {
			question = loc.Funnel.Manual.Cargo
			choices = backRow()
		} else {
			question = q.CustomsCargo
			choices = choiceRows(StepCustomsCargo, CustomsCargoTypes, 2, true)
		}

	case StepCustomsCountry:
		if state.AwaitingText {
			question = loc.Funnel.Manual.Country
			choices = backRow()
		} else {
			question = q.CustomsCountry
			choices = choiceRows(StepCustomsCountry, Countries, 2, true)
		}

	case StepInvoiceValue:
		if state.AwaitingText {
			question = loc.Funnel.Manual.Value
			choices = backRow()
		} else {
			question = q.InvoiceValue
			choices = bucketRows(StepInvoiceValue, ValueBuckets)
		}

	case StepCustomsUrgency:
		question = q.CustomsUrgency
		choices = choiceRows(StepCustomsUrgency, CustomsUrgencyOptions, 1, true)

	case StepCountry:
		if state.AwaitingText {
			question = loc.Funnel.Manual.Country
			choices = backRow()
		} else {
			question = q.Country
			choices = choiceRows(StepCountry, Countries, 2, true)
		}

	case StepCity:
		country := ""
		if state.Delivery != nil {
			// Страна могла быть введена вручную через «другая»
			country = html.EscapeString(Label(state.Delivery.Country))
		}
		question = fmt.Sprintf(q.City, country)
		choices = backRow()

	case StepCargoType:
		if state.AwaitingText {
			question = loc.Funnel.Manual.Cargo
			choices = backRow()
		} else {
			question = q.CargoType
			choices = choiceRows(StepCargoType, CargoTypes, 2, true)
		}

	case StepWeight:
		if state.AwaitingText {
			question = loc.Funnel.Manual.Weight
			choices = backRow()
		} else {
			question = q.Weight
			choices = bucketRows(StepWeight, WeightBuckets)
		}

	case StepVolume:
		if state.AwaitingText {
			question = loc.Funnel.Manual.Volume
			choices = backRow()
		} else {
			question = q.Volume
			choices = bucketRows(StepVolume, VolumeBuckets)
		}

	case StepUrgency:
		question = q.Urgency
		choices = choiceRows(StepUrgency, UrgencyOptions, 1, true)

	case StepIncoterms:
		question = q.Incoterms
		choices = choiceRows(StepIncoterms, IncotermsOptions, 2, true)

	case StepPhone:
		question = q.Phone
		choices = backRow()
		requestContact = true

	case StepComment:
		question = q.Comment
		choices = append(skipRow(), backRow()...)
		removeKeyboard = true

	case StepFreeQuestion:
		question = q.FreeQuestion
		choices = backRow()
	}

	return &Prompt{
		Text:           RenderCard(state, question, warn),
		Choices:        choices,
		RequestContact: requestContact,
		RemoveKeyboard: removeKeyboard,
	}
}

// choiceRows раскладывает варианты шага по рядам из perRow кнопок
func choiceRows(step string, list []Choice, perRow int, withBack bool) [][]Choice {
	var rows [][]Choice
	var row []Choice
	for _, c := range list {
		row = append(row, Choice{Label: c.Label, Token: CallbackFor(step, c.Token)})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if withBack {
		rows = append(rows, backRow()...)
	}
	return rows
}

// bucketRows — пресеты числового шага + кнопка ручного ввода + назад
func bucketRows(step string, list []Choice) [][]Choice {
	loc := locales.Get()
	rows := choiceRows(step, list, 2, false)
	rows = append(rows, []Choice{{Label: loc.Funnel.Buttons.Manual, Token: CallbackFor(step, TokenManual)}})
	rows = append(rows, backRow()...)
	return rows
}

func backRow() [][]Choice {
	loc := locales.Get()
	return [][]Choice{{{Label: loc.Funnel.Buttons.Back, Token: "back"}}}
}

func skipRow() [][]Choice {
	loc := locales.Get()
	return [][]Choice{{{Label: loc.Funnel.Buttons.Skip, Token: "skip"}}}
}

// afterSubmitRows — быстрые действия после отправки заявки
func afterSubmitRows() [][]Choice {
	loc := locales.Get()
	return [][]Choice{
		{{Label: "📎 Добавить документы", Token: "action:docs"}},
		{{Label: "✏️ Уточнить детали", Token: "action:details"}},
		{{Label: "📞 Связаться с менеджером", Token: "action:call"}},
		{{Label: loc.Funnel.Buttons.Restart, Token: "restart"}},
	}
}
