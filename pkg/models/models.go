package models

import "time"

// Типы услуг, выбираемые на первом шаге воронки
const (
	ServiceCustoms  = "customs"
	ServiceDelivery = "delivery"
	ServiceQuestion = "question"
)

// Статусы лида
const (
	StatusNew        = "NEW"
	StatusInProgress = "IN_PROGRESS"
	StatusWon        = "WON"
	StatusLost       = "LOST"
)

// ValidStatuses — допустимые значения для команды /status
var ValidStatuses = map[string]bool{
	StatusNew:        true,
	StatusInProgress: true,
	StatusWon:        true,
	StatusLost:       true,
}

// Lead — сохранённая заявка клиента.
// Какое подмножество полей заполнено, определяет ServiceType;
// неиспользуемые поля остаются пустыми/нулевыми, а не NULL.
type Lead struct {
	ID            int64
	TelegramID    int64
	Username      string
	FullName      string
	ServiceType   string
	Country       string  // страна отправки / происхождения товара
	CityFrom      string  // только delivery
	CargoType     string
	WeightKg      float64 // только delivery
	VolumeM3      float64 // только delivery
	Urgency       string
	Incoterms     string  // только delivery
	DeclaredValue float64 // только customs, USD
	Phone         string
	Comment       string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User — участник диалога из Telegram-обновления
type User struct {
	ID       int64
	ChatID   int64
	Username string
	FullName string
}

// CustomsDraft — накопленные ответы трека «таможенное оформление».
// Значения хранятся как сырые токены пресетов либо введённый текст;
// в числа они превращаются только при финализации.
type CustomsDraft struct {
	CargoType    string
	Country      string
	InvoiceValue string
	Urgency      string
	Phone        string
	Comment      string
}

// DeliveryDraft — накопленные ответы трека «доставка груза»
type DeliveryDraft struct {
	Country   string
	CityFrom  string
	CargoType string
	Weight    string
	Volume    string
	Urgency   string
	Incoterms string
	Phone     string
	Comment   string
}

// QuestionDraft — трек «свободный вопрос», без структурированных шагов
type QuestionDraft struct {
	Text string
}

// ConversationState представляет текущее состояние пользователя в воронке.
// Живёт только в памяти процесса: потерянное состояние означает
// «активной воронки нет» и обрабатывается сценарием восстановления.
type ConversationState struct {
	UserID        int64
	ChatID        int64
	Step          string
	AwaitingText  bool // шаг с пресетами ждёт ручной ввод (выбрано «другое»)
	CardMessageID int  // ID сообщения-карточки, редактируемого на каждом шаге

	// Ровно один черновик не равен nil — он и задаёт активный трек
	Customs  *CustomsDraft
	Delivery *DeliveryDraft
	Question *QuestionDraft
}

// ServiceType возвращает трек активного черновика
func (s *ConversationState) ServiceType() string {
	switch {
	case s.Customs != nil:
		return ServiceCustoms
	case s.Delivery != nil:
		return ServiceDelivery
	case s.Question != nil:
		return ServiceQuestion
	}
	return ""
}
