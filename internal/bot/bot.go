package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vitrina-crm/internal/services"
	"vitrina-crm/pkg/config"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot — telegram-интерфейс витрины: личный кабинет агента по сделкам
// CRM и лента свободных объявлений.
type Bot struct {
	api        telegramAPI
	sessions   *SessionStore
	agents     services.AgentServiceInterface
	properties services.PropertyServiceInterface
	listings   services.ListingServiceInterface
	cfg        config.BotConfig
	logger     *zap.Logger
}

func New(
	cfg config.BotConfig,
	sessions *SessionStore,
	agents services.AgentServiceInterface,
	properties services.PropertyServiceInterface,
	listings services.ListingServiceInterface,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("создание bot api: %w", err)
	}
	return &Bot{
		api:        api,
		sessions:   sessions,
		agents:     agents,
		properties: properties,
		listings:   listings,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Run крутит long-poll до отмены контекста.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("бот запущен", zap.String("username", b.cfg.Username))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.HandleUpdate(ctx, update)
		}
	}
}

// SetupWebhook регистрирует webhook в telegram. Апдейты при этом
// приходят на POST /telegram/webhook, long-poll не используется.
func (b *Bot) SetupWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("конфигурация webhook: %w", err)
	}
	if _, err := b.api.Request(wh); err != nil {
		return fmt.Errorf("регистрация webhook: %w", err)
	}
	b.logger.Info("webhook зарегистрирован", zap.String("url", url))
	return nil
}

// HandleUpdate разбирает один апдейт. Вызывается и из long-poll, и из
// webhook-роута.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("паника в обработчике апдейта", zap.Any("panic", r))
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// SendToChat реализует отправку для слушателей событий.
func (b *Bot) SendToChat(ctx context.Context, chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("кривой chat_id %q: %w", chatID, err)
	}
	msg := tgbotapi.NewMessage(id, text)
	msg.DisableWebPagePreview = true
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("отправка сообщения не удалась", zap.Error(err))
	}
}
