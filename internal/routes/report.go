package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/controllers"
	"vitrina-crm/internal/services"
)

func runReportRouter(g *echo.Group, reportService services.ReportServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewReportController(reportService, logger)

	g.GET("/reports/listings.xlsx", ctrl.ListingsXLSX)
}
