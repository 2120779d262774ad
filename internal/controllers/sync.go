package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/services"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

// SyncController — ручки интеграций: приём снапшота таблицы и ручной
// запуск фоновых прогонов (у крона те же сервисы).
type SyncController struct {
	sheetSync services.SheetSyncServiceInterface
	rbdSync   services.RBDSyncServiceInterface
	archive   services.ArchiveServiceInterface
	recall    services.RecallServiceInterface
	logger    *zap.Logger
}

func NewSyncController(
	sheetSync services.SheetSyncServiceInterface,
	rbdSync services.RBDSyncServiceInterface,
	archive services.ArchiveServiceInterface,
	recall services.RecallServiceInterface,
	logger *zap.Logger,
) *SyncController {
	return &SyncController{
		sheetSync: sheetSync,
		rbdSync:   rbdSync,
		archive:   archive,
		recall:    recall,
		logger:    logger,
	}
}

// SheetSync принимает снапшот строк внешней таблицы и сверяет его
// с properties.
func (c *SyncController) SheetSync(ctx echo.Context) error {
	var payload dto.SheetSyncRequestDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат снапшота", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	result, err := c.sheetSync.Sync(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, result, "Сверка выполнена", http.StatusOK)
}

func (c *SyncController) RunRBDSync(ctx echo.Context) error {
	stats, err := c.rbdSync.Sync(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, stats, "Прогон парсера выполнен", http.StatusOK)
}

func (c *SyncController) RunArchive(ctx echo.Context) error {
	stats, err := c.archive.Run(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, stats, "Проход архиватора выполнен", http.StatusOK)
}

// RunRecalls запускает внеочередную проверку перезвонов. У крона тот же
// сервис, дедупликация в redis не даст прислать напоминание дважды.
func (c *SyncController) RunRecalls(ctx echo.Context) error {
	sent, err := c.recall.Run(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]int{"sent": sent}, "Проверка перезвонов выполнена", http.StatusOK)
}
