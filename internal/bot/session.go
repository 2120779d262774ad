package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vitrina-crm/internal/repositories"
)

// Состояния диалога. Пустое состояние — агент просто ходит по меню.
const (
	stateAwaitPhone      = "await_phone"
	stateAwaitClientName = "await_client_name"
	stateAwaitRecallTime = "await_recall_time"
	stateAwaitComment    = "await_comment"
)

const sessionTTL = 30 * 24 * time.Hour

// Session — диалоговое состояние чата. Живёт в redis, чтобы рестарт
// бота не разлогинивал агентов.
type Session struct {
	Phone            string `json:"phone,omitempty"`
	State            string `json:"state,omitempty"`
	PendingVitrinaID int64  `json:"pending_vitrina_id,omitempty"`
	PendingStatus    string `json:"pending_status,omitempty"`
}

func (s *Session) LoggedIn() bool { return s.Phone != "" }

type SessionStore struct {
	cache repositories.CacheRepositoryInterface
}

func NewSessionStore(cache repositories.CacheRepositoryInterface) *SessionStore {
	return &SessionStore{cache: cache}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("vitrina:bot:session:%d", chatID)
}

// Get возвращает сессию чата; для незнакомого чата — пустую.
func (s *SessionStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	raw, err := s.cache.Get(ctx, sessionKey(chatID))
	if err != nil {
		if repositories.IsNotFound(err) {
			return &Session{}, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// Битую сессию проще начать заново, чем чинить.
		return &Session{}, nil
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, chatID int64, session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, sessionKey(chatID), string(raw), sessionTTL)
}

func (s *SessionStore) Clear(ctx context.Context, chatID int64) error {
	return s.cache.Del(ctx, sessionKey(chatID))
}
