package routes

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vitrina-crm/internal/bot"
)

// runTelegramRouter принимает webhook-апдейты telegram. Маршрут
// регистрируется всегда: в режиме long-poll он просто не получает
// трафика.
func runTelegramRouter(e *echo.Echo, b *bot.Bot, logger *zap.Logger) {
	e.POST("/telegram/webhook", func(c echo.Context) error {
		var update tgbotapi.Update
		if err := json.NewDecoder(c.Request().Body).Decode(&update); err != nil {
			logger.Warn("кривой webhook-апдейт", zap.Error(err))
			return c.NoContent(http.StatusBadRequest)
		}

		b.HandleUpdate(c.Request().Context(), update)
		return c.NoContent(http.StatusOK)
	})
}
