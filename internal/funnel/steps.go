package funnel

import "github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"

// Шаги воронки. Общий хвост phone → comment разделяют оба
// структурированных трека; free_question минует все шаги.
const (
	StepService = "service_select"

	// Трек «таможенное оформление»
	StepCustomsCargo   = "customs_cargo"
	StepCustomsCountry = "customs_country"
	StepInvoiceValue   = "invoice_value"
	StepCustomsUrgency = "customs_urgency"

	// Трек «доставка»
	StepCountry   = "country"
	StepCity      = "city"
	StepCargoType = "cargo_type"
	StepWeight    = "weight"
	StepVolume    = "volume"
	StepUrgency   = "urgency"
	StepIncoterms = "incoterms"

	// Общий хвост
	StepPhone   = "phone"
	StepComment = "comment"

	// Лёгкий трек
	StepFreeQuestion = "free_question"
)

var customsTrack = []string{
	StepService, StepCustomsCargo, StepCustomsCountry,
	StepInvoiceValue, StepCustomsUrgency, StepPhone, StepComment,
}

var deliveryTrack = []string{
	StepService, StepCountry, StepCity, StepCargoType, StepWeight,
	StepVolume, StepUrgency, StepIncoterms, StepPhone, StepComment,
}

// trackSteps возвращает последовательность шагов активного трека
func trackSteps(state *models.ConversationState) []string {
	switch state.ServiceType() {
	case models.ServiceCustoms:
		return customsTrack
	case models.ServiceDelivery:
		return deliveryTrack
	case models.ServiceQuestion:
		return []string{StepService, StepFreeQuestion}
	}
	return []string{StepService}
}

func stepIndex(track []string, step string) int {
	for i, s := range track {
		if s == step {
			return i
		}
	}
	return -1
}

// nextStep возвращает следующий шаг трека, "" в конце
func nextStep(state *models.ConversationState) string {
	track := trackSteps(state)
	i := stepIndex(track, state.Step)
	if i < 0 || i+1 >= len(track) {
		return ""
	}
	return track[i+1]
}

// prevStep возвращает предыдущий шаг трека, "" в начале
func prevStep(state *models.ConversationState) string {
	track := trackSteps(state)
	i := stepIndex(track, state.Step)
	if i <= 0 {
		return ""
	}
	return track[i-1]
}

// progress возвращает номер шага и длину активного трека для индикатора
// «Шаг N из M». Шаг выбора услуги и свободный вопрос индикатора не имеют.
func progress(state *models.ConversationState) (current, total int) {
	if state.Step == StepService || state.Step == StepFreeQuestion {
		return 0, 0
	}
	track := trackSteps(state)
	i := stepIndex(track, state.Step)
	if i <= 0 {
		return 0, 0
	}
	return i, len(track) - 1
}
