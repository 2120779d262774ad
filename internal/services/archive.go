package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/repositories"
	"vitrina-crm/pkg/config"
)

type ArchiveServiceInterface interface {
	Run(ctx context.Context) (*dto.ArchiveStatsDTO, error)
}

// ArchiveService проверяет закреплённые объявления на krisha.kz и
// помечает снятые с публикации статусом "Архив". Снятое объявление
// отвечает 404 или 410.
type ArchiveService struct {
	parsedRepo repositories.ParsedPropertyRepositoryInterface
	httpClient *http.Client
	cfg        config.ArchiveConfig
	logger     *zap.Logger
}

func NewArchiveService(
	parsedRepo repositories.ParsedPropertyRepositoryInterface,
	cfg config.ArchiveConfig,
	logger *zap.Logger,
) ArchiveServiceInterface {
	return &ArchiveService{
		parsedRepo: parsedRepo,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
			// Редирект с карточки тоже означает, что объявления нет.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		cfg:    cfg,
		logger: logger,
	}
}

func (s *ArchiveService) Run(ctx context.Context) (*dto.ArchiveStatsDTO, error) {
	candidates, err := s.parsedRepo.ArchiveCandidates(ctx, uint64(s.cfg.BatchLimit))
	if err != nil {
		return nil, fmt.Errorf("кандидаты на архивацию: %w", err)
	}

	stats := &dto.ArchiveStatsDTO{}
	if len(candidates) == 0 {
		return stats, nil
	}

	jobs := make(chan repositories.ArchiveCandidate)
	var mu sync.Mutex
	var wg sync.WaitGroup

	workers := s.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for candidate := range jobs {
				gone, err := s.listingGone(ctx, candidate.KrishaID)
				if err != nil {
					s.logger.Warn("проверка объявления не удалась",
						zap.String("krisha_id", candidate.KrishaID), zap.Error(err))
					continue
				}

				mu.Lock()
				stats.Checked++
				mu.Unlock()

				if !gone {
					continue
				}
				if err := s.parsedRepo.MarkArchived(ctx, candidate.VitrinaID); err != nil {
					s.logger.Error("не удалось пометить объявление архивом",
						zap.Int64("vitrina_id", candidate.VitrinaID), zap.Error(err))
					continue
				}
				mu.Lock()
				stats.Archived++
				mu.Unlock()
			}
		}()
	}

	for _, candidate := range candidates {
		select {
		case jobs <- candidate:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return stats, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("проход архиватора завершён",
		zap.Int("candidates", len(candidates)),
		zap.Int("checked", stats.Checked),
		zap.Int("archived", stats.Archived),
	)
	return stats, nil
}

func (s *ArchiveService) listingGone(ctx context.Context, krishaID string) (bool, error) {
	url := fmt.Sprintf(s.cfg.URLTemplate, krishaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return true, nil
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return true, nil
	case resp.StatusCode == http.StatusOK:
		return false, nil
	default:
		return false, fmt.Errorf("неожиданный статус %d для %s", resp.StatusCode, url)
	}
}
