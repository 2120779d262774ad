package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/controllers"
	"vitrina-crm/internal/services"
)

func runAuthRouter(g *echo.Group, authService services.AuthServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewAuthController(authService, logger)

	g.POST("/auth/login", ctrl.Login)
	g.POST("/auth/refresh", ctrl.Refresh)
}
