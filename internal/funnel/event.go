package funnel

import (
	"strconv"
	"strings"
)

// EventKind — вид события, пришедшего callback-кнопкой
type EventKind int

const (
	EventSelect EventKind = iota // выбор варианта на шаге
	EventBack                    // возврат на предыдущий шаг
	EventSkip                    // пропуск комментария
	EventRestart                 // начать воронку заново
	EventAdminProgress           // сотрудник берёт лид в работу
	EventAdminCall               // сотрудник запрашивает телефон
	EventAction                  // кнопки после отправки заявки
)

// Event — разобранное callback-событие. Строка "prefix:value"
// декодируется один раз на границе и дальше не парсится.
type Event struct {
	Kind   EventKind
	Step   string
	Value  string
	LeadID int64
}

// ParseCallback разбирает callback data в структурированное событие.
// Формат выбора: "opt:<шаг>:<токен>". Возвращает false для чужих
// или повреждённых строк.
func ParseCallback(data string) (Event, bool) {
	switch data {
	case "back":
		return Event{Kind: EventBack}, true
	case "skip":
		return Event{Kind: EventSkip}, true
	case "restart":
		return Event{Kind: EventRestart}, true
	}

	parts := strings.Split(data, ":")
	switch parts[0] {
	case "opt":
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return Event{}, false
		}
		return Event{Kind: EventSelect, Step: parts[1], Value: parts[2]}, true
	case "adm":
		if len(parts) != 3 {
			return Event{}, false
		}
		id, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Event{}, false
		}
		switch parts[1] {
		case "progress":
			return Event{Kind: EventAdminProgress, LeadID: id}, true
		case "call":
			return Event{Kind: EventAdminCall, LeadID: id}, true
		}
	case "action":
		if len(parts) == 2 && parts[1] != "" {
			return Event{Kind: EventAction, Value: parts[1]}, true
		}
	}
	return Event{}, false
}

// CallbackFor — обратная операция: callback data для варианта шага
func CallbackFor(step, token string) string {
	return "opt:" + step + ":" + token
}
