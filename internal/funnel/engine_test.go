package funnel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/internal/funnel"
	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

type MockSaver struct {
	mock.Mock
}

func (m *MockSaver) SaveLead(ctx context.Context, lead *models.Lead) (int64, error) {
	args := m.Called(ctx, lead)
	return args.Get(0).(int64), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyLead(lead *models.Lead) error {
	return m.Called(lead).Error(0)
}

var testUser = models.User{ID: 100, ChatID: 100, Username: "ivan", FullName: "Иван Петров"}

func newEngine(t *testing.T) (*funnel.Engine, *funnel.StateStore, *MockSaver, *MockNotifier) {
	t.Helper()
	store := funnel.NewStateStore()
	saver := &MockSaver{}
	notifier := &MockNotifier{}
	return funnel.NewEngine(store, saver, notifier), store, saver, notifier
}

func selectToken(e *funnel.Engine, step, token string) *funnel.Outcome {
	ev, ok := funnel.ParseCallback(funnel.CallbackFor(step, token))
	if !ok {
		panic("bad callback " + step + ":" + token)
	}
	return e.Select(testUser, ev)
}

func TestDeliveryScenarioEndToEnd(t *testing.T) {
	e, store, saver, notifier := newEngine(t)

	saver.On("SaveLead", mock.Anything, mock.Anything).Return(int64(7), nil)
	notifier.On("NotifyLead", mock.Anything).Return(nil)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, "china")
	e.Text(testUser, "Гуанчжоу")
	selectToken(e, funnel.StepCargoType, funnel.TokenOther)
	e.Text(testUser, "электроника")
	selectToken(e, funnel.StepWeight, "w_100_500")
	selectToken(e, funnel.StepVolume, "v_1_5")
	selectToken(e, funnel.StepUrgency, "standard")
	selectToken(e, funnel.StepIncoterms, "exw")
	e.Text(testUser, "+79991234567")

	skip, _ := funnel.ParseCallback("skip")
	out := e.Select(testUser, skip)

	require.NotNil(t, out.Final)
	lead := out.Final.Lead
	assert.Equal(t, models.ServiceDelivery, lead.ServiceType)
	assert.Equal(t, "china", lead.Country)
	assert.Equal(t, "Гуанчжоу", lead.CityFrom)
	assert.Equal(t, "электроника", lead.CargoType)
	assert.Equal(t, 300.0, lead.WeightKg)
	assert.Equal(t, 3.0, lead.VolumeM3)
	assert.Equal(t, "standard", lead.Urgency)
	assert.Equal(t, "exw", lead.Incoterms)
	assert.Equal(t, "+79991234567", lead.Phone)
	assert.Equal(t, "", lead.Comment)
	assert.Equal(t, models.StatusNew, lead.Status)
	assert.Equal(t, int64(7), out.Final.LeadID)

	assert.Contains(t, out.Prompt.Text, "#7")
	assert.Nil(t, store.Get(testUser.ID), "состояние должно очищаться после финализации")

	var tokens []string
	for _, row := range out.Prompt.Choices {
		for _, c := range row {
			tokens = append(tokens, c.Token)
		}
	}
	assert.Contains(t, tokens, "restart", "после заявки можно начать новую")

	saver.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestCustomsTrackAccumulatesOnlyItsFields(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceCustoms)
	selectToken(e, funnel.StepCustomsCargo, "electronics")
	selectToken(e, funnel.StepCustomsCountry, "china")

	state := store.Get(testUser.ID)
	require.NotNil(t, state)
	require.NotNil(t, state.Customs)
	assert.Nil(t, state.Delivery)
	assert.Nil(t, state.Question)

	// Заполнены ровно шаги 1..2, дальше пусто
	assert.Equal(t, "electronics", state.Customs.CargoType)
	assert.Equal(t, "china", state.Customs.Country)
	assert.Empty(t, state.Customs.InvoiceValue)
	assert.Empty(t, state.Customs.Urgency)
	assert.Empty(t, state.Customs.Phone)
	assert.Equal(t, funnel.StepInvoiceValue, state.Step)
}

func TestBackThenRedoIsIdempotent(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, "china")
	e.Text(testUser, "Шанхай")

	before := *store.Get(testUser.ID).Delivery
	stepBefore := store.Get(testUser.ID).Step

	back, _ := funnel.ParseCallback("back")
	e.Select(testUser, back)
	assert.Equal(t, funnel.StepCity, store.Get(testUser.ID).Step)

	e.Text(testUser, "Шанхай")

	after := store.Get(testUser.ID)
	assert.Equal(t, before, *after.Delivery)
	assert.Equal(t, stepBefore, after.Step)
}

func TestBackRebuildsCityQuestionFromCountry(t *testing.T) {
	e, _, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, "turkey")
	e.Text(testUser, "Стамбул")

	back, _ := funnel.ParseCallback("back")
	out := e.Select(testUser, back)

	// Вопрос про город восстановлен с учётом уже выбранной страны
	assert.Contains(t, out.Prompt.Text, "Турция")
}

func TestOtherOptionKeepsStepAndAwaitsText(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, funnel.TokenOther)

	state := store.Get(testUser.ID)
	assert.Equal(t, funnel.StepCountry, state.Step)
	assert.True(t, state.AwaitingText)

	e.Text(testUser, "Вьетнам")
	state = store.Get(testUser.ID)
	assert.Equal(t, "Вьетнам", state.Delivery.Country)
	assert.Equal(t, funnel.StepCity, state.Step)
	assert.False(t, state.AwaitingText)
}

func TestNumericValidationRepromptsWithoutAdvance(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, "china")
	e.Text(testUser, "Гуанчжоу")
	selectToken(e, funnel.StepCargoType, "general")

	for _, bad := range []string{"abc", "-5", "0", ""} {
		out := e.Text(testUser, bad)
		assert.Equal(t, funnel.StepWeight, store.Get(testUser.ID).Step, "ввод %q не должен продвигать шаг", bad)
		assert.Contains(t, out.Prompt.Text, "⚠️")
	}

	e.Text(testUser, "250,5")
	state := store.Get(testUser.ID)
	assert.Equal(t, "250,5", state.Delivery.Weight)
	assert.Equal(t, funnel.StepVolume, state.Step)
}

func TestPhoneValidation(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceCustoms)
	selectToken(e, funnel.StepCustomsCargo, "equipment")
	selectToken(e, funnel.StepCustomsCountry, "uae")
	selectToken(e, funnel.StepInvoiceValue, "val_1000")
	selectToken(e, funnel.StepCustomsUrgency, "standard")

	out := e.Text(testUser, "123")
	assert.Equal(t, funnel.StepPhone, store.Get(testUser.ID).Step)
	assert.Contains(t, out.Prompt.Text, "⚠️")

	out = e.Text(testUser, "привет-привет")
	assert.Equal(t, funnel.StepPhone, store.Get(testUser.ID).Step, "телефон без цифр не принимается")

	e.Text(testUser, "+7 999 123-45-67")
	assert.Equal(t, funnel.StepComment, store.Get(testUser.ID).Step)
}

func TestContactShareFillsPhone(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceCustoms)
	selectToken(e, funnel.StepCustomsCargo, "food")
	selectToken(e, funnel.StepCustomsCountry, "israel")
	selectToken(e, funnel.StepInvoiceValue, "val_50000")
	selectToken(e, funnel.StepCustomsUrgency, "urgent")

	e.Contact(testUser, "+79990001122")
	state := store.Get(testUser.ID)
	assert.Equal(t, "+79990001122", state.Customs.Phone)
	assert.Equal(t, funnel.StepComment, state.Step)
}

func TestSaveFailureStillConfirmsAndNotifies(t *testing.T) {
	e, store, saver, notifier := newEngine(t)

	saver.On("SaveLead", mock.Anything, mock.Anything).Return(int64(0), errors.New("база недоступна"))
	notifier.On("NotifyLead", mock.MatchedBy(func(lead *models.Lead) bool {
		return lead.ServiceType == models.ServiceDelivery && lead.Phone == "+79991234567"
	})).Return(nil)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, "china")
	e.Text(testUser, "Гуанчжоу")
	selectToken(e, funnel.StepCargoType, "general")
	selectToken(e, funnel.StepWeight, "w_100")
	selectToken(e, funnel.StepVolume, "v_1")
	selectToken(e, funnel.StepUrgency, "express")
	selectToken(e, funnel.StepIncoterms, "fob")
	e.Text(testUser, "+79991234567")
	out := e.Text(testUser, "перезвоните после обеда")

	require.NotNil(t, out.Final)
	assert.Error(t, out.Final.SaveErr)
	assert.Contains(t, out.Prompt.Text, "принята", "пользователь получает подтверждение несмотря на отказ БД")
	assert.Nil(t, store.Get(testUser.ID))

	notifier.AssertExpectations(t)
}

func TestTotalNotifyFailureAddsCaveat(t *testing.T) {
	e, _, saver, notifier := newEngine(t)

	saver.On("SaveLead", mock.Anything, mock.Anything).Return(int64(3), nil)
	notifier.On("NotifyLead", mock.Anything).Return(errors.New("никому не доставлено"))

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceCustoms)
	selectToken(e, funnel.StepCustomsCargo, "textile")
	selectToken(e, funnel.StepCustomsCountry, "turkey")
	selectToken(e, funnel.StepInvoiceValue, "val_1000_10000")
	selectToken(e, funnel.StepCustomsUrgency, "standard")
	e.Text(testUser, "+79991112233")

	skip, _ := funnel.ParseCallback("skip")
	out := e.Select(testUser, skip)

	require.NotNil(t, out.Final)
	assert.Error(t, out.Final.NotifyErr)
	assert.Contains(t, out.Prompt.Text, "могли пока не увидеть")
}

func TestQuestionNotifyFailureEscalatedToUser(t *testing.T) {
	e, _, saver, notifier := newEngine(t)

	saver.On("SaveLead", mock.Anything, mock.Anything).Return(int64(0), errors.New("база недоступна"))
	notifier.On("NotifyLead", mock.Anything).Return(errors.New("никому не доставлено"))

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceQuestion)
	out := e.Text(testUser, "Когда перезвоните по моей прошлой заявке?")

	require.NotNil(t, out.Final)
	assert.Error(t, out.Final.SaveErr)
	assert.Error(t, out.Final.NotifyErr)
	// Вопрос ни сохранён, ни доставлен — молчаливое «передан менеджеру» недопустимо
	assert.Contains(t, out.Prompt.Text, "Вопрос передан")
	assert.Contains(t, out.Prompt.Text, "могли пока не увидеть")
}

func TestFreeQuestionTrack(t *testing.T) {
	e, store, saver, notifier := newEngine(t)

	saver.On("SaveLead", mock.Anything, mock.Anything).Return(int64(11), nil)
	notifier.On("NotifyLead", mock.MatchedBy(func(lead *models.Lead) bool {
		return lead.ServiceType == models.ServiceQuestion &&
			lead.Comment == "Сколько стоит доставка из Шэньчжэня?"
	})).Return(nil)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceQuestion)
	assert.Equal(t, funnel.StepFreeQuestion, store.Get(testUser.ID).Step)

	out := e.Text(testUser, "Сколько стоит доставка из Шэньчжэня?")
	require.NotNil(t, out.Final)
	assert.Nil(t, store.Get(testUser.ID))

	notifier.AssertExpectations(t)
}

func TestStaleCallbackRestartsAtServiceSelect(t *testing.T) {
	e, store, _, _ := newEngine(t)

	// Состояния нет — callback со «старого» шага срочности
	ev, _ := funnel.ParseCallback(funnel.CallbackFor(funnel.StepUrgency, "standard"))
	out := e.Select(testUser, ev)

	assert.True(t, out.Restarted)
	assert.Contains(t, out.Prompt.Text, "Сессия устарела")

	state := store.Get(testUser.ID)
	require.NotNil(t, state)
	assert.Equal(t, funnel.StepService, state.Step)
}

func TestStaleTextIsForwarded(t *testing.T) {
	e, _, _, _ := newEngine(t)

	out := e.Text(testUser, "мой груз застрял на таможне, помогите")
	assert.True(t, out.Forward)
	assert.Nil(t, out.Prompt)
}

func TestStaleContactIsForwarded(t *testing.T) {
	e, _, _, _ := newEngine(t)

	// Контакт без активной воронки тоже уходит сотрудникам
	out := e.Contact(testUser, "+79991234567")
	assert.True(t, out.Forward)
	assert.Nil(t, out.Prompt)
}

func TestRestartDiscardsState(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, "china")

	restart, _ := funnel.ParseCallback("restart")
	e.Select(testUser, restart)

	state := store.Get(testUser.ID)
	require.NotNil(t, state)
	assert.Equal(t, funnel.StepService, state.Step)
	assert.Nil(t, state.Delivery)
}

func TestSelectionFromOldStepRerendersCurrent(t *testing.T) {
	e, store, _, _ := newEngine(t)

	e.Start(testUser)
	selectToken(e, funnel.StepService, models.ServiceDelivery)
	selectToken(e, funnel.StepCountry, "china")

	// Повторное нажатие кнопки уже пройденного шага
	out := selectToken(e, funnel.StepCountry, "turkey")
	state := store.Get(testUser.ID)
	assert.Equal(t, funnel.StepCity, state.Step)
	assert.Equal(t, "china", state.Delivery.Country, "старый выбор не перезаписывается")
	assert.NotNil(t, out.Prompt)
}
