package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/bot"
	"vitrina-crm/internal/services"
	"vitrina-crm/pkg/middleware"
	"vitrina-crm/pkg/service"
)

// Deps — собранные в composition root сервисы. Бот и планировщик
// используют те же экземпляры, поэтому сервисы строятся не здесь.
type Deps struct {
	JWTService service.JWTService
	Auth       services.AuthServiceInterface
	Properties services.PropertyServiceInterface
	Listings   services.ListingServiceInterface
	Agents     services.AgentServiceInterface
	SheetSync  services.SheetSyncServiceInterface
	RBDSync    services.RBDSyncServiceInterface
	Archive    services.ArchiveServiceInterface
	Recall     services.RecallServiceInterface
	Reports    services.ReportServiceInterface
	Bot        *bot.Bot
	Logger     *zap.Logger
}

func InitRouter(e *echo.Echo, deps Deps) {
	deps.Logger.Info("InitRouter: регистрация маршрутов")

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(deps.JWTService, deps.Logger)
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, deps.Auth, deps.Logger)
	runPropertyRouter(secureGroup, deps.Properties, deps.Logger)
	runListingRouter(secureGroup, deps.Listings, deps.Logger)
	runAgentRouter(secureGroup, deps.Agents, deps.Logger)
	runSyncRouter(secureGroup, deps.SheetSync, deps.RBDSync, deps.Archive, deps.Recall, deps.Logger)
	runReportRouter(secureGroup, deps.Reports, deps.Logger)

	if deps.Bot != nil {
		runTelegramRouter(e, deps.Bot, deps.Logger)
	}
}
