package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/events"
	"vitrina-crm/internal/rbd"
	"vitrina-crm/internal/repositories"
	"vitrina-crm/pkg/config"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/eventbus"
)

// Блокировка на время прогона: два парсера параллельно друг другу
// только мешают, крон и ручной запуск не должны пересекаться.
const rbdSyncLockKey = "vitrina:rbd_sync:lock"
const rbdSyncLockTTL = 30 * time.Minute

type RBDSyncServiceInterface interface {
	Sync(ctx context.Context) (*dto.RBDSyncStatsDTO, error)
}

// RBDSyncService тянет свежие объявления из rbd.kz постранично и
// складывает их в parsed_properties. Прогон останавливается, когда
// подряд накапливается достаточно дубликатов: выдача отсортирована по
// свежести, дальше идут уже виденные строки.
type RBDSyncService struct {
	client     rbd.ClientInterface
	parsedRepo repositories.ParsedPropertyRepositoryInterface
	cache      repositories.CacheRepositoryInterface
	bus        *eventbus.Bus
	cfg        config.RBDConfig
	logger     *zap.Logger
}

func NewRBDSyncService(
	client rbd.ClientInterface,
	parsedRepo repositories.ParsedPropertyRepositoryInterface,
	cache repositories.CacheRepositoryInterface,
	bus *eventbus.Bus,
	cfg config.RBDConfig,
	logger *zap.Logger,
) RBDSyncServiceInterface {
	return &RBDSyncService{
		client:     client,
		parsedRepo: parsedRepo,
		cache:      cache,
		bus:        bus,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *RBDSyncService) Sync(ctx context.Context) (*dto.RBDSyncStatsDTO, error) {
	locked, err := s.cache.SetNX(ctx, rbdSyncLockKey, time.Now().Unix(), rbdSyncLockTTL)
	if err != nil {
		return nil, fmt.Errorf("блокировка прогона парсера: %w", err)
	}
	if !locked {
		return nil, apperrors.NewHttpError(http.StatusConflict, "Прогон парсера уже идёт.", nil, nil)
	}
	defer func() {
		if err := s.cache.Del(context.Background(), rbdSyncLockKey); err != nil {
			s.logger.Warn("не удалось снять блокировку парсера", zap.Error(err))
		}
	}()

	stats := &dto.RBDSyncStatsDTO{RunID: uuid.NewString()}
	log := s.logger.With(zap.String("run_id", stats.RunID))

	if err := s.client.Login(ctx); err != nil {
		return nil, fmt.Errorf("логин в rbd.kz: %w", err)
	}

	// При первичном наполнении порог дубликатов не действует:
	// выкачивается вся выдача целиком.
	existingTotal, err := s.parsedRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт объявлений: %w", err)
	}
	initialImport := existingTotal == 0
	log.Info("прогон парсера rbd.kz начат", zap.Bool("initial_import", initialImport))

	consecutiveDuplicates := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		supply, err := s.client.FetchPage(ctx, page)
		if err != nil {
			return stats, fmt.Errorf("страница %d: %w", page, err)
		}
		if len(supply.Store) == 0 {
			log.Info("выдача закончилась", zap.Int("page", page))
			break
		}
		stats.Pages++

		rows := make([]entities.ParsedProperty, 0, len(supply.Store))
		for _, item := range supply.Store {
			if row, ok := rbd.ItemToRow(item); ok {
				rows = append(rows, *row)
			}
		}
		if len(rows) == 0 {
			log.Warn("на странице не разобралось ни одного объявления", zap.Int("page", page))
			continue
		}

		ids := make([]int64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.RbdID)
		}
		existing, err := s.parsedRepo.ExistingRbdIDs(ctx, ids)
		if err != nil {
			return stats, fmt.Errorf("проверка дубликатов на странице %d: %w", page, err)
		}

		fresh := make([]entities.ParsedProperty, 0, len(rows))
		for _, row := range rows {
			if _, ok := existing[row.RbdID]; !ok {
				fresh = append(fresh, row)
			}
		}

		inserted := 0
		if len(fresh) > 0 {
			if inserted, err = s.parsedRepo.UpsertBatch(ctx, fresh); err != nil {
				return stats, fmt.Errorf("вставка страницы %d: %w", page, err)
			}
		}
		duplicates := len(rows) - inserted
		stats.Inserted += inserted
		stats.Duplicates += duplicates

		if inserted == 0 {
			consecutiveDuplicates += duplicates
		} else {
			consecutiveDuplicates = 0
		}
		log.Debug("страница обработана",
			zap.Int("page", page),
			zap.Int("inserted", inserted),
			zap.Int("duplicates", duplicates),
		)

		if !initialImport && consecutiveDuplicates >= s.cfg.MaxDuplicates {
			stats.Stopped = true
			log.Info("дальше идут уже виденные объявления, прогон остановлен",
				zap.Int("page", page),
				zap.Int("consecutive_duplicates", consecutiveDuplicates),
			)
			break
		}
	}

	if stats.Inserted > 0 {
		s.bus.Publish(ctx, events.ListingsImportedEvent{RunID: stats.RunID, Inserted: stats.Inserted})
	}
	log.Info("прогон парсера rbd.kz завершён",
		zap.Int("pages", stats.Pages),
		zap.Int("inserted", stats.Inserted),
		zap.Int("duplicates", stats.Duplicates),
		zap.Bool("stopped_on_duplicates", stats.Stopped),
	)
	return stats, nil
}
