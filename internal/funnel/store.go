package funnel

import (
	"sync"

	"github.com/Boris31145/Telegram-bot-for-TE-GROUP/pkg/models"
)

// StateStore хранит состояния воронки по ID пользователя.
// Явно внедряется в Engine, чтобы каждый тест работал со своим
// хранилищем. На пользователя приходится не больше одного состояния;
// отсутствие состояния означает «активной воронки нет».
type StateStore struct {
	mu     sync.RWMutex
	states map[int64]*models.ConversationState
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[int64]*models.ConversationState)}
}

func (s *StateStore) Get(userID int64) *models.ConversationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[userID]
}

func (s *StateStore) Put(state *models.ConversationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.UserID] = state
}

func (s *StateStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
