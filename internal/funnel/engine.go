package funnel

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/locales"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

// LeadSaver — то, что движку нужно от хранилища лидов
type LeadSaver interface {
	SaveLead(ctx context.Context, lead *models.Lead) (int64, error)
}

// Notifier рассылает уведомление о лиде сотрудникам.
// nil означает «доставлено хотя бы одному получателю»;
// частичные отказы нотификатор логирует сам.
type Notifier interface {
	NotifyLead(lead *models.Lead) error
}

// Prompt — содержимое карточки для следующего шага
type Prompt struct {
	Text           string
	Choices        [][]Choice // ряды inline-кнопок; Token — готовая callback data
	RequestContact bool       // показать reply-клавиатуру «поделиться контактом»
	RemoveKeyboard bool       // убрать reply-клавиатуру
	NewCard        bool       // отправить новое сообщение вместо редактирования
}

// FinalResult — итог финализации воронки
type FinalResult struct {
	Lead      *models.Lead
	LeadID    int64
	SaveErr   error
	NotifyErr error

	// Карточка завершённой воронки: состояние уже очищено,
	// поэтому ID сообщения передаётся явно
	CardMessageID int
}

// Outcome — результат обработки одного события
type Outcome struct {
	Prompt    *Prompt
	Restarted bool // состояние было потеряно, воронка перезапущена
	Forward   bool // текст вне воронки, переслать сотрудникам
	Final     *FinalResult
}

// Engine — конечный автомат воронки. Состояния хранятся во внедрённом
// StateStore по ID пользователя; блокировок сверх этого не требуется:
// транспорт сериализует события одного чата.
type Engine struct {
	states   *StateStore
	leads    LeadSaver
	notifier Notifier
}

func NewEngine(states *StateStore, leads LeadSaver, notifier Notifier) *Engine {
	return &Engine{states: states, leads: leads, notifier: notifier}
}

// Start начинает новую воронку (команда /start или приветствие).
// Существующее состояние отбрасывается.
func (e *Engine) Start(user models.User) *Prompt {
	loc := locales.Get()
	return e.restart(user, loc.Common.Welcome)
}

// restart создаёт свежее состояние и карточку выбора услуги
func (e *Engine) restart(user models.User, prefix string) *Prompt {
	state := &models.ConversationState{UserID: user.ID, ChatID: user.ChatID, Step: StepService}
	e.states.Put(state)

	loc := locales.Get()
	text := loc.Funnel.Questions.Service
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	return &Prompt{
		Text:    text,
		Choices: choiceRows(StepService, Services, 1, false),
		NewCard: true,
	}
}

// Select обрабатывает callback-событие воронки
func (e *Engine) Select(user models.User, ev Event) *Outcome {
	if ev.Kind == EventRestart {
		return &Outcome{Prompt: e.restart(user, "")}
	}

	state := e.states.Get(user.ID)
	if state == nil {
		// Состояние потеряно (например, после рестарта процесса).
		// Молча игнорировать нельзя: начинаем заново с пояснением.
		loc := locales.Get()
		return &Outcome{Prompt: e.restart(user, loc.Common.SessionExpired), Restarted: true}
	}

	switch ev.Kind {
	case EventBack:
		return e.back(state)
	case EventSkip:
		if state.Step == StepComment {
			e.setField(state, StepComment, "")
			return e.finalize(state, user)
		}
		return &Outcome{Prompt: e.promptFor(state, "")}
	case EventSelect:
		if ev.Step != state.Step {
			// Нажата кнопка уже пройденного шага — перерисуем текущий
			return &Outcome{Prompt: e.promptFor(state, "")}
		}
		return e.applySelection(state, user, ev.Value)
	}
	return &Outcome{Prompt: e.promptFor(state, "")}
}

// Text обрабатывает свободный текст пользователя
func (e *Engine) Text(user models.User, text string) *Outcome {
	state := e.states.Get(user.ID)
	if state == nil {
		// Текст вне воронки пересылается сотрудникам, а не теряется
		return &Outcome{Forward: true}
	}

	loc := locales.Get()
	text = strings.TrimSpace(text)

	switch state.Step {
	case StepService:
		return &Outcome{Prompt: e.promptFor(state, loc.Funnel.Errors.ChooseOption)}

	case StepCustomsCargo, StepCargoType, StepCustomsCountry, StepCountry, StepCity:
		if !validPlace(text) {
			return &Outcome{Prompt: e.promptFor(state, loc.Funnel.Errors.Place)}
		}
		e.setField(state, state.Step, text)
		return e.advance(state)

	case StepWeight, StepVolume, StepInvoiceValue:
		if _, ok := validNumber(text); !ok {
			return &Outcome{Prompt: e.promptFor(state, loc.Funnel.Errors.Number)}
		}
		e.setField(state, state.Step, text)
		return e.advance(state)

	case StepUrgency, StepCustomsUrgency, StepIncoterms:
		return &Outcome{Prompt: e.promptFor(state, loc.Funnel.Errors.ChooseOption)}

	case StepPhone:
		if !validPhone(text) {
			return &Outcome{Prompt: e.promptFor(state, loc.Funnel.Errors.Phone)}
		}
		e.setField(state, StepPhone, text)
		return e.advance(state)

	case StepComment:
		e.setField(state, StepComment, text)
		return e.finalize(state, user)

	case StepFreeQuestion:
		if !validPlace(text) {
			return &Outcome{Prompt: e.promptFor(state, loc.Funnel.Errors.Place)}
		}
		state.Question.Text = text
		return e.finalize(state, user)
	}
	return &Outcome{Prompt: e.promptFor(state, "")}
}

// Contact обрабатывает отправку контакта на шаге телефона
func (e *Engine) Contact(user models.User, phone string) *Outcome {
	state := e.states.Get(user.ID)
	if state == nil {
		return &Outcome{Forward: true}
	}
	if state.Step != StepPhone {
		return &Outcome{Prompt: e.promptFor(state, "")}
	}
	e.setField(state, StepPhone, phone)
	return e.advance(state)
}

// SetCard запоминает ID сообщения-карточки
func (e *Engine) SetCard(userID int64, messageID int) {
	if state := e.states.Get(userID); state != nil {
		state.CardMessageID = messageID
		e.states.Put(state)
	}
}

// CardID возвращает ID карточки активной воронки (0 — карточки нет)
func (e *Engine) CardID(userID int64) int {
	if state := e.states.Get(userID); state != nil {
		return state.CardMessageID
	}
	return 0
}

// applySelection применяет выбор варианта на текущем шаге
func (e *Engine) applySelection(state *models.ConversationState, user models.User, token string) *Outcome {
	if state.Step == StepService {
		switch token {
		case models.ServiceCustoms:
			state.Customs = &models.CustomsDraft{}
			state.Delivery, state.Question = nil, nil
		case models.ServiceDelivery:
			state.Delivery = &models.DeliveryDraft{}
			state.Customs, state.Question = nil, nil
		case models.ServiceQuestion:
			state.Question = &models.QuestionDraft{}
			state.Customs, state.Delivery = nil, nil
		default:
			return &Outcome{Prompt: e.promptFor(state, "")}
		}
		return e.advance(state)
	}

	if token == TokenOther || token == TokenManual {
		// Вариант «другое/вручную»: шаг тот же, ждём текст
		state.AwaitingText = true
		e.states.Put(state)
		return &Outcome{Prompt: e.promptFor(state, "")}
	}

	e.setField(state, state.Step, token)
	return e.advance(state)
}

// back возвращает на предыдущий шаг, восстанавливая его вопрос и кнопки
func (e *Engine) back(state *models.ConversationState) *Outcome {
	if state.AwaitingText {
		state.AwaitingText = false
		e.states.Put(state)
		return &Outcome{Prompt: e.promptFor(state, "")}
	}
	if prev := prevStep(state); prev != "" {
		state.Step = prev
		e.states.Put(state)
	}
	return &Outcome{Prompt: e.promptFor(state, "")}
}

// advance переводит состояние на следующий шаг
func (e *Engine) advance(state *models.ConversationState) *Outcome {
	state.AwaitingText = false
	state.Step = nextStep(state)
	e.states.Put(state)
	return &Outcome{Prompt: e.promptFor(state, "")}
}

// setField записывает значение шага в черновик активного трека
func (e *Engine) setField(state *models.ConversationState, step, value string) {
	switch {
	case state.Customs != nil:
		d := state.Customs
		switch step {
		case StepCustomsCargo:
			d.CargoType = value
		case StepCustomsCountry:
			d.Country = value
		case StepInvoiceValue:
			d.InvoiceValue = value
		case StepCustomsUrgency:
			d.Urgency = value
		case StepPhone:
			d.Phone = value
		case StepComment:
			d.Comment = value
		}
	case state.Delivery != nil:
		d := state.Delivery
		switch step {
		case StepCountry:
			d.Country = value
		case StepCity:
			d.CityFrom = value
		case StepCargoType:
			d.CargoType = value
		case StepWeight:
			d.Weight = value
		case StepVolume:
			d.Volume = value
		case StepUrgency:
			d.Urgency = value
		case StepIncoterms:
			d.Incoterms = value
		case StepPhone:
			d.Phone = value
		case StepComment:
			d.Comment = value
		}
	}
	e.states.Put(state)
}

// finalize завершает воронку: токены пресетов превращаются в числа,
// лид сохраняется и рассылается сотрудникам. Состояние очищается
// безусловно — даже после ошибок, чтобы не оставить сессию зависшей.
func (e *Engine) finalize(state *models.ConversationState, user models.User) *Outcome {
	defer e.states.Delete(user.ID)

	lead := BuildLead(state, user)

	id, saveErr := e.leads.SaveLead(context.Background(), lead)
	if saveErr != nil {
		log.Printf("Не удалось сохранить лид пользователя %d: %v", user.ID, saveErr)
	} else {
		lead.ID = id
	}

	// Уведомление идёт по данным из памяти и при неудачном сохранении
	notifyErr := e.notifier.NotifyLead(lead)
	if notifyErr != nil {
		log.Printf("Лид пользователя %d не доставлен ни одному сотруднику: %v", user.ID, notifyErr)
	}

	loc := locales.Get()
	var text string
	switch {
	case lead.ServiceType == models.ServiceQuestion:
		text = loc.Funnel.QuestionReceived
	case saveErr != nil:
		text = loc.Funnel.ConfirmUnsaved
	default:
		text = fmt.Sprintf(loc.Funnel.Confirm, id)
	}
	if notifyErr != nil {
		// Никто из сотрудников не получил обращение — пользователь
		// должен узнать об этом на любом треке, включая вопрос
		text += loc.Funnel.NotifyCaveat
	}

	prompt := &Prompt{Text: text}
	if lead.ServiceType != models.ServiceQuestion {
		prompt.Choices = afterSubmitRows()
	}

	return &Outcome{
		Prompt: prompt,
		Final: &FinalResult{
			Lead: lead, LeadID: id, SaveErr: saveErr, NotifyErr: notifyErr,
			CardMessageID: state.CardMessageID,
		},
	}
}

// BuildLead превращает накопленное состояние в плоскую запись лида
func BuildLead(state *models.ConversationState, user models.User) *models.Lead {
	lead := &models.Lead{
		TelegramID:  user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		ServiceType: state.ServiceType(),
		Status:      models.StatusNew,
	}

	switch {
	case state.Customs != nil:
		d := state.Customs
		lead.CargoType = d.CargoType
		lead.Country = d.Country
		lead.DeclaredValue = ResolveValue(d.InvoiceValue)
		lead.Urgency = d.Urgency
		lead.Phone = d.Phone
		lead.Comment = d.Comment
	case state.Delivery != nil:
		d := state.Delivery
		lead.Country = d.Country
		lead.CityFrom = d.CityFrom
		lead.CargoType = d.CargoType
		lead.WeightKg = ResolveWeight(d.Weight)
		lead.VolumeM3 = ResolveVolume(d.Volume)
		lead.Urgency = d.Urgency
		lead.Incoterms = d.Incoterms
		lead.Phone = d.Phone
		lead.Comment = d.Comment
	case state.Question != nil:
		lead.Comment = state.Question.Text
	}
	return lead
}
