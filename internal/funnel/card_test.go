package funnel_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/funnel"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

func TestCardShowsOnlyFilledFields(t *testing.T) {
	state := &models.ConversationState{
		Step:     funnel.StepCity,
		Delivery: &models.DeliveryDraft{Country: "china"},
	}

	card := funnel.RenderCard(state, "Из какого города отправка?", "")

	assert.Contains(t, card, "Страна: 🇨🇳 Китай")
	assert.NotContains(t, card, "Город:")
	assert.NotContains(t, card, "Вес:")
	assert.NotContains(t, card, "Телефон:")
}

func TestCardProgressPerTrack(t *testing.T) {
	delivery := &models.ConversationState{
		Step:     funnel.StepCity,
		Delivery: &models.DeliveryDraft{Country: "china"},
	}
	assert.Contains(t, funnel.RenderCard(delivery, "q", ""), "Шаг 2 из 9")

	customs := &models.ConversationState{
		Step:    funnel.StepInvoiceValue,
		Customs: &models.CustomsDraft{CargoType: "electronics", Country: "china"},
	}
	assert.Contains(t, funnel.RenderCard(customs, "q", ""), "Шаг 3 из 6")

	// Выбор услуги и свободный вопрос индикатора не имеют
	start := &models.ConversationState{Step: funnel.StepService}
	assert.NotContains(t, funnel.RenderCard(start, "q", ""), "Шаг ")
}

func TestCardPresetAndManualValues(t *testing.T) {
	state := &models.ConversationState{
		Step: funnel.StepUrgency,
		Delivery: &models.DeliveryDraft{
			Country:   "turkey",
			CityFrom:  "Стамбул",
			CargoType: "свежие фрукты",
			Weight:    "w_100_500",
			Volume:    "2,5",
		},
	}

	card := funnel.RenderCard(state, "q", "")

	assert.Contains(t, card, "Вес: 100–500 кг", "токен пресета показывается подписью диапазона")
	assert.Contains(t, card, "Объём: 2.5 м³", "ручной ввод показывается числом с единицей")
	assert.Contains(t, card, "Груз: свежие фрукты", "ручной текст выводится как есть")
}

func TestCardEscapesUserInput(t *testing.T) {
	state := &models.ConversationState{
		Step: funnel.StepPhone,
		Delivery: &models.DeliveryDraft{
			Country:   "china",
			CityFrom:  "Гуанчжоу <br>",
			CargoType: "запчасти <b>и</b> крепёж",
		},
	}

	card := funnel.RenderCard(state, "q", "")

	// Карточка уходит с ParseMode=HTML: сырой ввод не должен её ломать
	assert.Contains(t, card, "&lt;br&gt;")
	assert.Contains(t, card, "&lt;b&gt;и&lt;/b&gt;")
	assert.NotContains(t, card, "<br>")
}

func TestCardWarnPrecedesQuestion(t *testing.T) {
	state := &models.ConversationState{
		Step:     funnel.StepWeight,
		Delivery: &models.DeliveryDraft{Country: "china", CityFrom: "Иу", CargoType: "general"},
	}

	card := funnel.RenderCard(state, "Примерный вес груза?", "⚠️ Введите число больше 0.")
	warnAt := strings.Index(card, "⚠️")
	questionAt := strings.Index(card, "Примерный вес")
	assert.True(t, warnAt >= 0 && questionAt > warnAt, "предупреждение идёт перед вопросом")
}
