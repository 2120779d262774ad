package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/events"
	"vitrina-crm/internal/repositories"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/eventbus"
	"vitrina-crm/pkg/types"
	"vitrina-crm/pkg/utils"
)

// Кэш списка классов жилья: DISTINCT по всей таблице, незачем гонять
// его на каждое открытие меню.
const propertyClassesCacheKey = "vitrina:property_classes"
const propertyClassesCacheTTL = 10 * time.Minute

type ListingServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]dto.ListingDTO, uint64, error)
	FindByVitrinaID(ctx context.Context, vitrinaID int64) (*dto.ListingDTO, error)
	LatestUnclaimedForAgent(ctx context.Context, agentPhone string, limit uint64) ([]dto.ListingDTO, error)
	Claim(ctx context.Context, vitrinaID int64, payload dto.ClaimListingDTO) (*dto.ListingDTO, error)
	UpdateStatus(ctx context.Context, vitrinaID int64, payload dto.UpdateListingStatusDTO) error
	PropertyClasses(ctx context.Context) ([]string, error)
}

type ListingService struct {
	parsedRepo repositories.ParsedPropertyRepositoryInterface
	agentRepo  repositories.AgentRepositoryInterface
	cache      repositories.CacheRepositoryInterface
	bus        *eventbus.Bus
	logger     *zap.Logger
}

func NewListingService(
	parsedRepo repositories.ParsedPropertyRepositoryInterface,
	agentRepo repositories.AgentRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) ListingServiceInterface {
	return &ListingService{
		parsedRepo: parsedRepo,
		agentRepo:  agentRepo,
		cache:      cache,
		bus:        bus,
		logger:     logger,
	}
}

func toListingDTOs(list []entities.ParsedProperty) []dto.ListingDTO {
	out := make([]dto.ListingDTO, 0, len(list))
	for i := range list {
		out = append(out, dto.FromParsedPropertyEntity(&list[i]))
	}
	return out
}

func (s *ListingService) List(ctx context.Context, filter types.Filter) ([]dto.ListingDTO, uint64, error) {
	list, total, err := s.parsedRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("выборка объявлений: %w", err)
	}
	return toListingDTOs(list), total, nil
}

func (s *ListingService) FindByVitrinaID(ctx context.Context, vitrinaID int64) (*dto.ListingDTO, error) {
	p, err := s.parsedRepo.FindByVitrinaID(ctx, vitrinaID)
	if err != nil {
		return nil, err
	}
	out := dto.FromParsedPropertyEntity(p)
	return &out, nil
}

// LatestUnclaimedForAgent отдаёт свободные объявления по классам
// агента. Пустой список классов означает «подходит всё».
func (s *ListingService) LatestUnclaimedForAgent(ctx context.Context, agentPhone string, limit uint64) ([]dto.ListingDTO, error) {
	phone, err := utils.NormalizeKazakhPhoneNumber(agentPhone)
	if err != nil {
		return nil, err
	}
	agent, err := s.agentRepo.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	list, err := s.parsedRepo.LatestUnclaimed(ctx, agent.PropertyClasses, limit)
	if err != nil {
		return nil, fmt.Errorf("выборка свободных объявлений: %w", err)
	}
	return toListingDTOs(list), nil
}

// Claim закрепляет объявление за агентом. Гонку двух агентов решает
// условный UPDATE в репозитории: проигравший получает ErrAlreadyClaimed.
func (s *ListingService) Claim(ctx context.Context, vitrinaID int64, payload dto.ClaimListingDTO) (*dto.ListingDTO, error) {
	phone, err := utils.NormalizeKazakhPhoneNumber(payload.AgentPhone)
	if err != nil {
		return nil, err
	}
	if _, err := s.agentRepo.FindByPhone(ctx, phone); err != nil {
		return nil, apperrors.ErrAgentNotFound
	}

	if err := s.parsedRepo.Claim(ctx, vitrinaID, phone); err != nil {
		return nil, err
	}

	p, err := s.parsedRepo.FindByVitrinaID(ctx, vitrinaID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.ListingClaimedEvent{Listing: *p, AgentPhone: phone})
	s.logger.Info("объявление закреплено",
		zap.Int64("vitrina_id", vitrinaID),
		zap.String("agent", phone),
	)

	out := dto.FromParsedPropertyEntity(p)
	return &out, nil
}

// UpdateStatus меняет статус обработки. "Перезвонить" без времени не
// принимаем: такая строка никогда не попадёт в выборку перезвонов.
func (s *ListingService) UpdateStatus(ctx context.Context, vitrinaID int64, payload dto.UpdateListingStatusDTO) error {
	if payload.Status == entities.ObjectStatusRecall {
		if payload.RecallTime == nil {
			return apperrors.NewInvalidInputError("Для статуса 'Перезвонить' укажите время перезвона.")
		}
		if payload.RecallTime.Before(time.Now()) {
			return apperrors.NewInvalidInputError("Время перезвона уже прошло.")
		}
	}

	recallTime := payload.RecallTime
	if payload.Status != entities.ObjectStatusRecall {
		// Смена статуса снимает запланированный перезвон.
		recallTime = nil
	}

	return s.parsedRepo.UpdateStatus(ctx, vitrinaID, payload.Status, recallTime, payload.Description)
}

func (s *ListingService) PropertyClasses(ctx context.Context) ([]string, error) {
	if cached, err := s.cache.Get(ctx, propertyClassesCacheKey); err == nil && cached != "" {
		return utils.SplitCached(cached), nil
	} else if err != nil && !repositories.IsNotFound(err) {
		s.logger.Warn("кэш классов жилья недоступен", zap.Error(err))
	}

	classes, err := s.parsedRepo.DistinctPropertyClasses(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, propertyClassesCacheKey, utils.JoinCached(classes), propertyClassesCacheTTL); err != nil {
		s.logger.Warn("не удалось записать кэш классов жилья", zap.Error(err))
	}
	return classes, nil
}
