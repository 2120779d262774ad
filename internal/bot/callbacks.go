package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vitrina-crm/internal/dto"
	apperrors "vitrina-crm/pkg/errors"
	"vitrina-crm/pkg/utils"
)

// Статусы обработки, доступные из клавиатуры. Ключ — код в callback
// data, значение — текст, который попадёт в stats_object_status.
var callbackStatuses = map[string]string{
	"processed":  "Обработано",
	"irrelevant": "Неактуально",
	"recall":     "Перезвонить",
}

func listingStatusKeyboard(vitrinaID int64) tgbotapi.InlineKeyboardMarkup {
	data := func(code string) string {
		return fmt.Sprintf("lstatus:%d:%s", vitrinaID, code)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Обработано", data("processed")),
			tgbotapi.NewInlineKeyboardButtonData("❌ Неактуально", data("irrelevant")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📞 Перезвонить позже", data("recall")),
			tgbotapi.NewInlineKeyboardButtonData("💬 Комментарий", data("comment")),
		),
	)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID

	// Подтверждаем нажатие сразу, иначе у кнопки крутится спиннер.
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.Warn("callback ack не отправлен", zap.Error(err))
	}

	session, err := b.sessions.Get(ctx, chatID)
	if err != nil || !session.LoggedIn() {
		b.reply(chatID, "Сессия истекла. /start — войти заново.")
		return
	}

	parts := strings.SplitN(cb.Data, ":", 3)
	action := parts[0]

	b.logger.Debug("callback",
		zap.String("action", action),
		zap.String("data", cb.Data),
		zap.Int64("chat_id", chatID),
	)

	switch action {
	case "contracts":
		if len(parts) < 2 {
			return
		}
		page, err := strconv.Atoi(parts[1])
		if err != nil || page < 0 {
			return
		}
		b.sendContractsPage(ctx, chatID, session, page)

	case "prop":
		if len(parts) < 2 {
			return
		}
		b.sendPropertyCard(ctx, chatID, session, parts[1])

	case "edit":
		if len(parts) < 3 {
			return
		}
		b.handleEditField(ctx, chatID, session, parts[1], parts[2])

	case "claim":
		if len(parts) < 2 {
			return
		}
		vitrinaID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		b.handleClaim(ctx, chatID, session, vitrinaID)

	case "lstatus":
		if len(parts) < 3 {
			return
		}
		vitrinaID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return
		}
		b.handleListingStatus(ctx, chatID, session, vitrinaID, parts[2])
	}
}

// handleEditField применяет правку одного маркетингового поля из
// инлайн-кнопки и перерисовывает карточку.
func (b *Bot) handleEditField(ctx context.Context, chatID int64, session *Session, crmID, field string) {
	name, err := b.agentName(ctx, session)
	if err != nil {
		b.reply(chatID, "Ваш профиль агента не найден.")
		return
	}

	current, err := b.properties.FindByCrmIDForAgent(ctx, crmID, name)
	if err != nil {
		b.reply(chatID, "Сделка не найдена или закреплена не за вами.")
		return
	}

	var upd dto.UpdatePropertyDTO
	switch field {
	case "collage":
		upd.Collage = utils.ToPtr(!current.Collage)
	case "prof_collage":
		upd.ProfCollage = utils.ToPtr(!current.ProfCollage)
	case "analytics":
		upd.Analytics = utils.ToPtr(!current.Analytics)
	case "provide_analytics":
		upd.ProvideAnalytics = utils.ToPtr(!current.ProvideAnalytics)
	case "push_for_price":
		upd.PushForPrice = utils.ToPtr(!current.PushForPrice)
	case "shows":
		upd.Shows = utils.ToPtr(current.Shows + 1)
	default:
		return
	}

	updated, err := b.properties.UpdateMarketing(ctx, crmID, upd, session.Phone)
	if err != nil {
		b.logger.Error("правка поля не сохранилась",
			zap.String("crm_id", crmID), zap.String("field", field), zap.Error(err))
		b.reply(chatID, "Не удалось сохранить изменение.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, FormatPropertyCard(*updated))
	msg.ReplyMarkup = propertyEditKeyboard(*updated)
	msg.DisableWebPagePreview = true
	b.send(msg)
}

func (b *Bot) handleClaim(ctx context.Context, chatID int64, session *Session, vitrinaID int64) {
	listing, err := b.listings.Claim(ctx, vitrinaID, dto.ClaimListingDTO{AgentPhone: session.Phone})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyClaimed) {
			b.reply(chatID, "Это объявление уже взял другой агент.")
			return
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			b.reply(chatID, "Объявление больше недоступно.")
			return
		}
		b.logger.Error("закрепление не удалось",
			zap.Int64("vitrina_id", vitrinaID), zap.Error(err))
		b.reply(chatID, "Не удалось взять объявление, попробуйте позже.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, "Объявление закреплено за вами.\n\n"+FormatListingCard(*listing))
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = listingStatusKeyboard(vitrinaID)
	b.send(msg)
}

func (b *Bot) handleListingStatus(ctx context.Context, chatID int64, session *Session, vitrinaID int64, code string) {
	switch code {
	case "recall":
		session.State = stateAwaitRecallTime
		session.PendingVitrinaID = vitrinaID
		b.saveSession(ctx, chatID, session)
		b.reply(chatID, "Когда перезвонить? Формат: 31.12.2026 15:00")
		return
	case "comment":
		session.State = stateAwaitComment
		session.PendingVitrinaID = vitrinaID
		session.PendingStatus = "Обработано"
		b.saveSession(ctx, chatID, session)
		b.reply(chatID, "Напишите комментарий к объявлению:")
		return
	}

	status, ok := callbackStatuses[code]
	if !ok {
		return
	}
	if err := b.listings.UpdateStatus(ctx, vitrinaID, dto.UpdateListingStatusDTO{Status: status}); err != nil {
		b.logger.Error("статус объявления не сохранился",
			zap.Int64("vitrina_id", vitrinaID), zap.Error(err))
		b.reply(chatID, "Не удалось сохранить статус.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Статус «%s» сохранён.", status))
}
