package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	"vitrina-crm/internal/services"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

type ListingController struct {
	listingService services.ListingServiceInterface
	logger         *zap.Logger
}

func NewListingController(listingService services.ListingServiceInterface, logger *zap.Logger) *ListingController {
	return &ListingController{listingService: listingService, logger: logger}
}

func parseVitrinaID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewHttpError(
			http.StatusBadRequest,
			"Неверный ID объявления",
			err,
			map[string]interface{}{"param": ctx.Param("id")},
		)
	}
	return id, nil
}

func (c *ListingController) List(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	list, total, err := c.listingService.List(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, list, "Список объявлений получен", http.StatusOK, total)
}

func (c *ListingController) Find(ctx echo.Context) error {
	id, err := parseVitrinaID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.listingService.FindByVitrinaID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Объявление найдено", http.StatusOK)
}

func (c *ListingController) Claim(ctx echo.Context) error {
	id, err := parseVitrinaID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.ClaimListingDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.listingService.Claim(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Объявление закреплено", http.StatusOK)
}

func (c *ListingController) UpdateStatus(ctx echo.Context) error {
	id, err := parseVitrinaID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.UpdateListingStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.listingService.UpdateStatus(ctx.Request().Context(), id, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Статус обновлён", http.StatusOK)
}

func (c *ListingController) PropertyClasses(ctx echo.Context) error {
	classes, err := c.listingService.PropertyClasses(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, classes, "Классы жилья получены", http.StatusOK)
}
