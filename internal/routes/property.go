package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/controllers"
	"vitrina-crm/internal/services"
)

func runPropertyRouter(g *echo.Group, propertyService services.PropertyServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewPropertyController(propertyService, logger)

	g.GET("/properties", ctrl.GetAgentContracts)
	g.GET("/properties/search", ctrl.SearchByClientName)
	g.GET("/properties/stats", ctrl.Stats)
	g.GET("/properties/:crm_id", ctrl.FindByCrmID)
	g.PATCH("/properties/:crm_id", ctrl.UpdateMarketing)
}
