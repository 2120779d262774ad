package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vitrina-crm/internal/events"
	"vitrina-crm/internal/repositories"
	"vitrina-crm/pkg/eventbus"
)

const recallBatchLimit = 100

// TTL дедупликации покрывает любой сбой между публикацией события и
// очисткой времени перезвона.
const recallDedupTTL = 24 * time.Hour

type RecallServiceInterface interface {
	Run(ctx context.Context) (int, error)
}

// RecallService раз в минуту находит объявления с наступившим временем
// перезвона и шлёт агентам напоминания. Напоминание одноразовое:
// после отправки stats_recall_time очищается, а ключ в redis страхует
// от повтора, если очистка не успела до следующего тика.
type RecallService struct {
	parsedRepo repositories.ParsedPropertyRepositoryInterface
	cache      repositories.CacheRepositoryInterface
	bus        *eventbus.Bus
	logger     *zap.Logger
}

func NewRecallService(
	parsedRepo repositories.ParsedPropertyRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) RecallServiceInterface {
	return &RecallService{
		parsedRepo: parsedRepo,
		cache:      cache,
		bus:        bus,
		logger:     logger,
	}
}

func recallDedupKey(vitrinaID int64, recallTime time.Time) string {
	return fmt.Sprintf("vitrina:recall:%d:%d", vitrinaID, recallTime.Unix())
}

func (s *RecallService) Run(ctx context.Context) (int, error) {
	now := time.Now()
	due, err := s.parsedRepo.DueRecalls(ctx, now, recallBatchLimit)
	if err != nil {
		return 0, fmt.Errorf("выборка перезвонов: %w", err)
	}

	sent := 0
	for i := range due {
		listing := due[i]
		if listing.StatsRecallTime == nil {
			continue
		}

		first, err := s.cache.SetNX(ctx, recallDedupKey(listing.VitrinaID, *listing.StatsRecallTime), 1, recallDedupTTL)
		if err != nil {
			s.logger.Warn("redis недоступен, перезвон отложен до следующего тика",
				zap.Int64("vitrina_id", listing.VitrinaID), zap.Error(err))
			continue
		}
		if !first {
			// Уже отправляли, но stats_recall_time ещё не очищен.
			if err := s.parsedRepo.ClearRecall(ctx, listing.VitrinaID); err != nil {
				s.logger.Error("не удалось очистить время перезвона",
					zap.Int64("vitrina_id", listing.VitrinaID), zap.Error(err))
			}
			continue
		}

		s.bus.Publish(ctx, events.RecallDueEvent{Listing: listing, DueAt: *listing.StatsRecallTime})
		sent++

		if err := s.parsedRepo.ClearRecall(ctx, listing.VitrinaID); err != nil {
			s.logger.Error("не удалось очистить время перезвона",
				zap.Int64("vitrina_id", listing.VitrinaID), zap.Error(err))
		}
	}

	if sent > 0 {
		s.logger.Info("напоминания о перезвонах отправлены", zap.Int("count", sent))
	}
	return sent, nil
}
