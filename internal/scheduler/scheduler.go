package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"vitrina-crm/internal/services"
	"vitrina-crm/pkg/config"
)

// Scheduler гоняет фоновые задачи витрины по расписанию из конфига:
// поминутные напоминания о перезвонах, периодический прогон парсера
// rbd.kz и ночной проход архиватора.
type Scheduler struct {
	cron    *cron.Cron
	recall  services.RecallServiceInterface
	rbdSync services.RBDSyncServiceInterface
	archive services.ArchiveServiceInterface
	cfg     config.CronConfig
	logger  *zap.Logger
}

func New(
	recall services.RecallServiceInterface,
	rbdSync services.RBDSyncServiceInterface,
	archive services.ArchiveServiceInterface,
	cfg config.CronConfig,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		recall:  recall,
		rbdSync: rbdSync,
		archive: archive,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start регистрирует задачи и запускает планировщик. ctx передаётся в
// каждую задачу: при остановке процесса долгие прогоны прерываются.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.RecallSpec, func() {
		if _, err := s.recall.Run(ctx); err != nil {
			s.logger.Error("задача перезвонов упала", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("расписание перезвонов %q: %w", s.cfg.RecallSpec, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.RBDSyncSpec, func() {
		if _, err := s.rbdSync.Sync(ctx); err != nil {
			s.logger.Error("прогон парсера упал", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("расписание парсера %q: %w", s.cfg.RBDSyncSpec, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.ArchiveSpec, func() {
		if _, err := s.archive.Run(ctx); err != nil {
			s.logger.Error("проход архиватора упал", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("расписание архиватора %q: %w", s.cfg.ArchiveSpec, err)
	}

	s.cron.Start()
	s.logger.Info("планировщик запущен",
		zap.String("recall", s.cfg.RecallSpec),
		zap.String("rbd_sync", s.cfg.RBDSyncSpec),
		zap.String("archive", s.cfg.ArchiveSpec),
	)
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущих задач.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("планировщик остановлен")
}
