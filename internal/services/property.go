package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/events"
	"vitrina-crm/internal/repositories"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/eventbus"
)

type PropertyServiceInterface interface {
	GetAgentContracts(ctx context.Context, agentName string, limit, offset uint64) ([]dto.PropertyDTO, uint64, error)
	FindByCrmID(ctx context.Context, crmID string) (*dto.PropertyDTO, error)
	FindByCrmIDForAgent(ctx context.Context, crmID, agentName string) (*dto.PropertyDTO, error)
	SearchByClientName(ctx context.Context, clientName, agentName string, limit, offset uint64) ([]dto.PropertyDTO, uint64, error)
	UpdateMarketing(ctx context.Context, crmID string, upd dto.UpdatePropertyDTO, agentLogin string) (*dto.PropertyDTO, error)
	Stats(ctx context.Context) (*dto.PropertyStatsDTO, error)
}

type PropertyService struct {
	propertyRepo repositories.PropertyRepositoryInterface
	bus          *eventbus.Bus
	logger       *zap.Logger
}

func NewPropertyService(
	propertyRepo repositories.PropertyRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) PropertyServiceInterface {
	return &PropertyService{
		propertyRepo: propertyRepo,
		bus:          bus,
		logger:       logger,
	}
}

func toPropertyDTOs(list []entities.Property) []dto.PropertyDTO {
	out := make([]dto.PropertyDTO, 0, len(list))
	for i := range list {
		out = append(out, dto.FromPropertyEntity(&list[i]))
	}
	return out
}

// GetAgentContracts отдаёт страницу сделок агента начиная с самых
// свежих по last_modified_at. Агент ищется по mop/rop/dd.
func (s *PropertyService) GetAgentContracts(ctx context.Context, agentName string, limit, offset uint64) ([]dto.PropertyDTO, uint64, error) {
	if agentName == "" {
		return nil, 0, apperrors.ErrAgentNotFound
	}
	list, total, err := s.propertyRepo.GetAgentContracts(ctx, agentName, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка сделок агента: %w", err)
	}
	return toPropertyDTOs(list), total, nil
}

func (s *PropertyService) FindByCrmID(ctx context.Context, crmID string) (*dto.PropertyDTO, error) {
	p, err := s.propertyRepo.FindByCrmID(ctx, crmID)
	if err != nil {
		return nil, err
	}
	out := dto.FromPropertyEntity(p)
	return &out, nil
}

// FindByCrmIDForAgent — как FindByCrmID, но сделка должна принадлежать
// агенту. Чужая сделка неотличима от отсутствующей.
func (s *PropertyService) FindByCrmIDForAgent(ctx context.Context, crmID, agentName string) (*dto.PropertyDTO, error) {
	p, err := s.propertyRepo.FindByCrmIDForAgent(ctx, crmID, agentName)
	if err != nil {
		return nil, err
	}
	out := dto.FromPropertyEntity(p)
	return &out, nil
}

func (s *PropertyService) SearchByClientName(ctx context.Context, clientName, agentName string, limit, offset uint64) ([]dto.PropertyDTO, uint64, error) {
	if len(clientName) < 3 {
		return nil, 0, apperrors.NewInvalidInputError("Для поиска по клиенту нужно минимум 3 символа.")
	}
	list, total, err := s.propertyRepo.SearchByClientName(ctx, clientName, agentName, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("поиск сделок по клиенту: %w", err)
	}
	return toPropertyDTOs(list), total, nil
}

// UpdateMarketing пишет только маркетинговые поля и помечает строку
// как изменённую ботом. Поля реквизитов сделки сюда не попадают.
func (s *PropertyService) UpdateMarketing(ctx context.Context, crmID string, upd dto.UpdatePropertyDTO, agentLogin string) (*dto.PropertyDTO, error) {
	if upd.Empty() {
		return nil, apperrors.NewInvalidInputError("Нет полей для обновления.")
	}

	if err := s.propertyRepo.UpdateMarketing(ctx, crmID, upd, entities.ModifiedByBot); err != nil {
		return nil, err
	}

	p, err := s.propertyRepo.FindByCrmID(ctx, crmID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.PropertyUpdatedEvent{
		CrmID:      crmID,
		AgentLogin: agentLogin,
		Fields:     updatedFields(upd),
	})
	s.logger.Info("сделка обновлена ботом",
		zap.String("crm_id", crmID),
		zap.String("agent", agentLogin),
	)

	out := dto.FromPropertyEntity(p)
	return &out, nil
}

func (s *PropertyService) Stats(ctx context.Context) (*dto.PropertyStatsDTO, error) {
	return s.propertyRepo.Stats(ctx)
}

func updatedFields(upd dto.UpdatePropertyDTO) []string {
	var fields []string
	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}
	add("category", upd.Category != nil)
	add("collage", upd.Collage != nil)
	add("prof_collage", upd.ProfCollage != nil)
	add("krisha", upd.Krisha != nil)
	add("instagram", upd.Instagram != nil)
	add("tiktok", upd.Tiktok != nil)
	add("mailing", upd.Mailing != nil)
	add("stream", upd.Stream != nil)
	add("shows", upd.Shows != nil)
	add("analytics", upd.Analytics != nil)
	add("price_update", upd.PriceUpdate != nil)
	add("provide_analytics", upd.ProvideAnalytics != nil)
	add("push_for_price", upd.PushForPrice != nil)
	add("status", upd.Status != nil)
	return fields
}
