package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/repositories"
	apperrors "vitrina-crm/pkg/errors"
)

// Исход слияния одной строки снапшота со строкой БД.
type mergeAction int

const (
	mergeInsert mergeAction = iota
	// Реквизиты сделки из таблицы, маркетинговые поля бота не трогаем.
	mergeDealOnly
	// Таблица свежее: переписываем и реквизиты, и маркетинговые поля.
	mergeFull
)

// decideMerge решает, чья правка главнее. Обе стороны пишут в одну
// строку properties; разводим их по last_modified_by/последней правке:
// правки бота моложе отметки таблицы переживают сверку.
func decideMerge(existing *entities.Property, rowModifiedAt time.Time) mergeAction {
	if existing == nil {
		return mergeInsert
	}
	if existing.LastModifiedBy == entities.ModifiedByBot && existing.LastModifiedAt.After(rowModifiedAt) {
		return mergeDealOnly
	}
	return mergeFull
}

// marketingFromSheetRow вынимает из строки снапшота редактируемые поля.
func marketingFromSheetRow(row dto.SheetRowDTO) dto.UpdatePropertyDTO {
	return dto.UpdatePropertyDTO{
		Category:         row.Category,
		Collage:          row.Collage,
		ProfCollage:      row.ProfCollage,
		Krisha:           row.Krisha,
		Instagram:        row.Instagram,
		Tiktok:           row.Tiktok,
		Mailing:          row.Mailing,
		Stream:           row.Stream,
		Shows:            row.Shows,
		Analytics:        row.Analytics,
		PriceUpdate:      row.PriceUpdate,
		ProvideAnalytics: row.ProvideAnalytics,
		PushForPrice:     row.PushForPrice,
		Status:           row.Status,
	}
}

type SheetSyncServiceInterface interface {
	Sync(ctx context.Context, req dto.SheetSyncRequestDTO) (*dto.SheetSyncResultDTO, error)
}

// SheetSyncService сверяет снапшот внешней таблицы с properties.
// Каждая строка обрабатывается в своей транзакции с блокировкой FOR
// UPDATE: упавшая строка не откатывает весь снапшот.
type SheetSyncService struct {
	txManager    repositories.TxManagerInterface
	propertyRepo repositories.PropertyRepositoryInterface
	logger       *zap.Logger
}

func NewSheetSyncService(
	txManager repositories.TxManagerInterface,
	propertyRepo repositories.PropertyRepositoryInterface,
	logger *zap.Logger,
) SheetSyncServiceInterface {
	return &SheetSyncService{
		txManager:    txManager,
		propertyRepo: propertyRepo,
		logger:       logger,
	}
}

func (s *SheetSyncService) Sync(ctx context.Context, req dto.SheetSyncRequestDTO) (*dto.SheetSyncResultDTO, error) {
	if len(req.Rows) == 0 {
		return nil, apperrors.NewInvalidInputError("Снапшот таблицы пуст.")
	}

	result := &dto.SheetSyncResultDTO{RunID: uuid.NewString()}
	now := time.Now()

	log := s.logger.With(zap.String("run_id", result.RunID))
	log.Info("сверка с таблицей начата", zap.Int("rows", len(req.Rows)))

	for i := range req.Rows {
		row := req.Rows[i]
		if row.CrmID == "" {
			log.Warn("строка снапшота без crm_id пропущена", zap.Int("row", i))
			result.Skipped++
			continue
		}

		if err := s.syncRow(ctx, row, now, result); err != nil {
			log.Error("строка снапшота не слита",
				zap.String("crm_id", row.CrmID), zap.Error(err))
			result.Skipped++
		}
	}

	log.Info("сверка с таблицей завершена",
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (s *SheetSyncService) syncRow(ctx context.Context, row dto.SheetRowDTO, now time.Time, result *dto.SheetSyncResultDTO) error {
	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.propertyRepo.FindForUpdate(ctx, tx, row.CrmID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("чтение строки под блокировкой: %w", err)
		}

		rowModifiedAt := row.ModifiedAtOrNow(now)
		action := decideMerge(existing, rowModifiedAt)

		inserted, err := s.propertyRepo.UpsertSheetRow(ctx, tx, row.ToPropertyEntity(), rowModifiedAt, action == mergeDealOnly)
		if err != nil {
			return err
		}

		if action != mergeDealOnly {
			if err := s.propertyRepo.ApplySheetMarketing(ctx, tx, row.CrmID, marketingFromSheetRow(row), rowModifiedAt); err != nil {
				return err
			}
		}

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		return nil
	})
}
