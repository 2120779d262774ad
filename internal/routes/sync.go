package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/controllers"
	"vitrina-crm/internal/services"
)

func runSyncRouter(
	g *echo.Group,
	sheetSync services.SheetSyncServiceInterface,
	rbdSync services.RBDSyncServiceInterface,
	archive services.ArchiveServiceInterface,
	recall services.RecallServiceInterface,
	logger *zap.Logger,
) {
	ctrl := controllers.NewSyncController(sheetSync, rbdSync, archive, recall, logger)

	g.POST("/sync/sheet", ctrl.SheetSync)
	g.POST("/sync/rbd", ctrl.RunRBDSync)
	g.POST("/sync/archive", ctrl.RunArchive)
	g.POST("/sync/recalls", ctrl.RunRecalls)
}
