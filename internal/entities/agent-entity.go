package entities

import "time"

const (
	AgentRoleAgent = "agent"
	AgentRoleRop   = "rop"
)

// Agent — агент витрины. Телефон нормализован (7XXXXXXXXXX) и служит
// первичным ключом; chat_ids — множество telegram-чатов для уведомлений.
type Agent struct {
	Phone           string
	Name            string
	ChatIDs         []string
	Role            string
	PropertyClasses []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasChat проверяет привязку чата без учёта порядка элементов.
func (a *Agent) HasChat(chatID string) bool {
	for _, id := range a.ChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
