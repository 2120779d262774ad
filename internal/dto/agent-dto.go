package dto

// AgentDTO — агент витрины.
type AgentDTO struct {
	Phone           string   `json:"agent_phone"`
	Name            string   `json:"agent_name"`
	ChatIDs         []string `json:"chat_ids"`
	Role            string   `json:"role"`
	PropertyClasses []string `json:"property_classes"`
}

type CreateAgentDTO struct {
	Phone           string   `json:"agent_phone" validate:"required,kz_phone"`
	Name            string   `json:"agent_name" validate:"required"`
	Role            string   `json:"role" validate:"omitempty,oneof=agent rop"`
	PropertyClasses []string `json:"property_classes"`
}

type UpdateAgentDTO struct {
	Name            *string  `json:"agent_name,omitempty"`
	Role            *string  `json:"role,omitempty" validate:"omitempty,oneof=agent rop"`
	PropertyClasses []string `json:"property_classes,omitempty"`
}
