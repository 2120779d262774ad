package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/repositories"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

type AgentServiceInterface interface {
	List(ctx context.Context) ([]dto.AgentDTO, error)
	FindByPhone(ctx context.Context, phone string) (*dto.AgentDTO, error)
	FindByChatID(ctx context.Context, chatID string) (*dto.AgentDTO, error)
	Create(ctx context.Context, payload dto.CreateAgentDTO) (*dto.AgentDTO, error)
	Update(ctx context.Context, phone string, payload dto.UpdateAgentDTO) error
	Delete(ctx context.Context, phone string) error
	BindChat(ctx context.Context, phone, chatID string) (*dto.AgentDTO, error)
	UnbindChat(ctx context.Context, phone, chatID string) error
	ImportFromCSV(ctx context.Context, r io.Reader) (int, error)
}

type AgentService struct {
	agentRepo repositories.AgentRepositoryInterface
	logger    *zap.Logger
}

func NewAgentService(agentRepo repositories.AgentRepositoryInterface, logger *zap.Logger) AgentServiceInterface {
	return &AgentService{agentRepo: agentRepo, logger: logger}
}

func (s *AgentService) List(ctx context.Context) ([]dto.AgentDTO, error) {
	agents, err := s.agentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("список агентов: %w", err)
	}
	out := make([]dto.AgentDTO, 0, len(agents))
	for i := range agents {
		out = append(out, dto.FromAgentEntity(&agents[i]))
	}
	return out, nil
}

func (s *AgentService) FindByPhone(ctx context.Context, phone string) (*dto.AgentDTO, error) {
	normalized, err := utils.NormalizeKazakhPhoneNumber(phone)
	if err != nil {
		return nil, err
	}
	agent, err := s.agentRepo.FindByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	out := dto.FromAgentEntity(agent)
	return &out, nil
}

func (s *AgentService) FindByChatID(ctx context.Context, chatID string) (*dto.AgentDTO, error) {
	agent, err := s.agentRepo.FindByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	out := dto.FromAgentEntity(agent)
	return &out, nil
}

func (s *AgentService) Create(ctx context.Context, payload dto.CreateAgentDTO) (*dto.AgentDTO, error) {
	phone, err := utils.NormalizeKazakhPhoneNumber(payload.Phone)
	if err != nil {
		return nil, err
	}
	role := payload.Role
	if role == "" {
		role = entities.AgentRoleAgent
	}
	agent := entities.Agent{
		Phone:           phone,
		Name:            strings.TrimSpace(payload.Name),
		Role:            role,
		PropertyClasses: payload.PropertyClasses,
	}
	if err := s.agentRepo.Create(ctx, agent); err != nil {
		return nil, err
	}
	out := dto.FromAgentEntity(&agent)
	return &out, nil
}

func (s *AgentService) Update(ctx context.Context, phone string, payload dto.UpdateAgentDTO) error {
	normalized, err := utils.NormalizeKazakhPhoneNumber(phone)
	if err != nil {
		return err
	}
	return s.agentRepo.Update(ctx, normalized, payload.Name, payload.Role, payload.PropertyClasses)
}

func (s *AgentService) Delete(ctx context.Context, phone string) error {
	normalized, err := utils.NormalizeKazakhPhoneNumber(phone)
	if err != nil {
		return err
	}
	return s.agentRepo.Delete(ctx, normalized)
}

// BindChat привязывает telegram-чат к агенту при логине в боте.
// Повторная привязка того же чата безвредна.
func (s *AgentService) BindChat(ctx context.Context, phone, chatID string) (*dto.AgentDTO, error) {
	normalized, err := utils.NormalizeKazakhPhoneNumber(phone)
	if err != nil {
		return nil, err
	}
	if err := s.agentRepo.AddChatID(ctx, normalized, chatID); err != nil {
		return nil, err
	}
	agent, err := s.agentRepo.FindByPhone(ctx, normalized)
	if err != nil {
		return nil, err
	}
	s.logger.Info("чат привязан к агенту",
		zap.String("agent", normalized),
		zap.String("chat_id", chatID),
	)
	out := dto.FromAgentEntity(agent)
	return &out, nil
}

func (s *AgentService) UnbindChat(ctx context.Context, phone, chatID string) error {
	normalized, err := utils.NormalizeKazakhPhoneNumber(phone)
	if err != nil {
		return err
	}
	return s.agentRepo.RemoveChatID(ctx, normalized, chatID)
}

// ImportFromCSV разбирает файл агентов вида
//
//	phone,name,role,property_classes
//	87011234567,Айгерим Сапарова,agent,Бизнес|Комфорт
//
// и делает upsert по телефону. Уже привязанные chat_ids не трогаются.
// Плохие строки пропускаются с предупреждением, импорт не прерывают.
func (s *AgentService) ImportFromCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	imported := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("строка %d: %w", line+1, err)
		}
		line++

		if len(record) < 2 {
			s.logger.Warn("в строке CSV не хватает колонок", zap.Int("line", line))
			continue
		}
		// Заголовок, если он есть.
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "phone") {
			continue
		}

		phone, err := utils.NormalizeKazakhPhoneNumber(record[0])
		if err != nil {
			s.logger.Warn("телефон в CSV не разобран",
				zap.Int("line", line), zap.String("raw", record[0]))
			continue
		}
		name := strings.TrimSpace(record[1])
		if name == "" {
			s.logger.Warn("пустое имя агента в CSV", zap.Int("line", line))
			continue
		}

		agent := entities.Agent{Phone: phone, Name: name, Role: entities.AgentRoleAgent}
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			agent.Role = strings.TrimSpace(record[2])
		}
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			for _, class := range strings.Split(record[3], "|") {
				if c := strings.TrimSpace(class); c != "" {
					agent.PropertyClasses = append(agent.PropertyClasses, c)
				}
			}
		}

		if err := s.agentRepo.Upsert(ctx, agent); err != nil {
			return imported, fmt.Errorf("строка %d (%s): %w", line, phone, err)
		}
		imported++
	}

	if imported == 0 {
		return 0, apperrors.NewInvalidInputError("В файле не нашлось ни одного валидного агента.")
	}
	s.logger.Info("агенты импортированы из CSV", zap.Int("count", imported))
	return imported, nil
}
