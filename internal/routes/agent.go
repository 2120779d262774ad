package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/controllers"
	"vitrina-crm/internal/services"
)

func runAgentRouter(g *echo.Group, agentService services.AgentServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewAgentController(agentService, logger)

	g.GET("/agents", ctrl.List)
	g.GET("/agents/:phone", ctrl.Find)
	g.POST("/agents", ctrl.Create)
	g.POST("/agents/import", ctrl.ImportCSV)
	g.PUT("/agents/:phone", ctrl.Update)
	g.DELETE("/agents/:phone", ctrl.Delete)
}
