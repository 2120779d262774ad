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

type AgentController struct {
	agentService services.AgentServiceInterface
	logger       *zap.Logger
}

func NewAgentController(agentService services.AgentServiceInterface, logger *zap.Logger) *AgentController {
	return &AgentController{agentService: agentService, logger: logger}
}

func (c *AgentController) List(ctx echo.Context) error {
	agents, err := c.agentService.List(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, agents, "Список агентов получен", http.StatusOK, uint64(len(agents)))
}

func (c *AgentController) Find(ctx echo.Context) error {
	res, err := c.agentService.FindByPhone(ctx.Request().Context(), ctx.Param("phone"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Агент найден", http.StatusOK)
}

func (c *AgentController) Create(ctx echo.Context) error {
	var payload dto.CreateAgentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.agentService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Агент создан", http.StatusCreated)
}

func (c *AgentController) Update(ctx echo.Context) error {
	var payload dto.UpdateAgentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger,
		)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.agentService.Update(ctx.Request().Context(), ctx.Param("phone"), payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Агент обновлён", http.StatusOK)
}

func (c *AgentController) Delete(ctx echo.Context) error {
	if err := c.agentService.Delete(ctx.Request().Context(), ctx.Param("phone")); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Агент удалён", http.StatusOK)
}

// ImportCSV принимает файл агентов multipart-полем "file".
func (c *AgentController) ImportCSV(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Файл 'file' обязателен", err, nil),
			c.logger,
		)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Не удалось открыть файл", err, nil),
			c.logger,
		)
	}
	defer src.Close()

	imported, err := c.agentService.ImportFromCSV(ctx.Request().Context(), src)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]int{"imported": imported}, "Агенты импортированы", http.StatusOK)
}
