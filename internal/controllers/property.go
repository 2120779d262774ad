package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/services"
	"vitrina-crm/pkg/contextkeys"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

type PropertyController struct {
	propertyService services.PropertyServiceInterface
	logger          *zap.Logger
}

func NewPropertyController(propertyService services.PropertyServiceInterface, logger *zap.Logger) *PropertyController {
	return &PropertyController{propertyService: propertyService, logger: logger}
}

// GetAgentContracts — сделки агента по имени (?agent=...), страницами.
func (c *PropertyController) GetAgentContracts(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	agentName := ctx.QueryParam("agent")
	if agentName == "" {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Параметр 'agent' обязателен", apperrors.ErrBadRequest, nil),
			c.logger,
		)
	}

	list, total, err := c.propertyService.GetAgentContracts(reqCtx, agentName, uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Сделки агента получены", http.StatusOK, total)
}

func (c *PropertyController) FindByCrmID(ctx echo.Context) error {
	res, err := c.propertyService.FindByCrmID(ctx.Request().Context(), ctx.Param("crm_id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Сделка найдена", http.StatusOK)
}

// SearchByClientName — поиск по имени клиента (?q=..., опционально ?agent=).
func (c *PropertyController) SearchByClientName(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.propertyService.SearchByClientName(
		reqCtx, ctx.QueryParam("q"), ctx.QueryParam("agent"), uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Поиск выполнен", http.StatusOK, total)
}

// UpdateMarketing правит маркетинговые поля сделки от имени оператора.
func (c *PropertyController) UpdateMarketing(ctx echo.Context) error {
	var payload dto.UpdatePropertyDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	login, _ := ctx.Request().Context().Value(contextkeys.LoginKey).(string)
	res, err := c.propertyService.UpdateMarketing(ctx.Request().Context(), ctx.Param("crm_id"), payload, login)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Сделка обновлена", http.StatusOK)
}

func (c *PropertyController) Stats(ctx echo.Context) error {
	res, err := c.propertyService.Stats(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Статистика получена", http.StatusOK)
}
