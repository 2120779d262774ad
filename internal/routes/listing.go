package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/controllers"
	"vitrina-crm/internal/services"
)

func runListingRouter(g *echo.Group, listingService services.ListingServiceInterface, logger *zap.Logger) {
	ctrl := controllers.NewListingController(listingService, logger)

	g.GET("/listings", ctrl.List)
	g.GET("/listings/classes", ctrl.PropertyClasses)
	g.GET("/listings/:id", ctrl.Find)
	g.POST("/listings/:id/claim", ctrl.Claim)
	g.PATCH("/listings/:id/status", ctrl.UpdateStatus)
}
