package listeners

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vitrina-crm/internal/entities"
	"vitrina-crm/internal/events"
	"vitrina-crm/internal/repositories"
	"vitrina-crm/pkg/eventbus"
)

// TelegramSender шлёт текст в чат. Реализация живёт в internal/bot,
// слушатель знает только про интерфейс.
type TelegramSender interface {
	SendToChat(ctx context.Context, chatID string, text string) error
}

// NotificationListener переводит события шины в сообщения telegram:
// напоминания о перезвонах агенту, уведомления РОПам о закреплениях.
type NotificationListener struct {
	sender    TelegramSender
	agentRepo repositories.AgentRepositoryInterface
	logger    *zap.Logger
}

func NewNotificationListener(
	sender TelegramSender,
	agentRepo repositories.AgentRepositoryInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		sender:    sender,
		agentRepo: agentRepo,
		logger:    logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.RecallDueName, l.onRecallDue)
	bus.Subscribe(events.ListingClaimedName, l.onListingClaimed)
}

func (l *NotificationListener) onRecallDue(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.RecallDueEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	if e.Listing.StatsAgentGiven == nil {
		return nil
	}

	agent, err := l.agentRepo.FindByPhone(ctx, *e.Listing.StatsAgentGiven)
	if err != nil {
		return fmt.Errorf("агент для напоминания не найден: %w", err)
	}

	text := recallMessage(&e.Listing)
	return l.sendToAgent(ctx, agent, text)
}

func (l *NotificationListener) onListingClaimed(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.ListingClaimedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}

	agents, err := l.agentRepo.List(ctx)
	if err != nil {
		return err
	}

	agentName := e.AgentPhone
	for i := range agents {
		if agents[i].Phone == e.AgentPhone {
			agentName = fmt.Sprintf("%s (%s)", agents[i].Name, agents[i].Phone)
			break
		}
	}
	text := claimedMessage(&e.Listing, agentName)

	for i := range agents {
		if agents[i].Role != entities.AgentRoleRop || agents[i].Phone == e.AgentPhone {
			continue
		}
		if err := l.sendToAgent(ctx, &agents[i], text); err != nil {
			l.logger.Warn("уведомление РОПу не доставлено",
				zap.String("rop", agents[i].Phone), zap.Error(err))
		}
	}
	return nil
}

func (l *NotificationListener) sendToAgent(ctx context.Context, agent *entities.Agent, text string) error {
	if len(agent.ChatIDs) == 0 {
		l.logger.Warn("у агента нет привязанных чатов", zap.String("agent", agent.Phone))
		return nil
	}
	var lastErr error
	for _, chatID := range agent.ChatIDs {
		if err := l.sender.SendToChat(ctx, chatID, text); err != nil {
			l.logger.Warn("сообщение в чат не доставлено",
				zap.String("chat_id", chatID), zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

func recallMessage(p *entities.ParsedProperty) string {
	var b strings.Builder
	b.WriteString("Пора перезвонить по объявлению №")
	fmt.Fprintf(&b, "%d", p.VitrinaID)
	if p.Address != nil {
		b.WriteString("\nАдрес: " + *p.Address)
	}
	if p.Phones != nil {
		b.WriteString("\nТелефоны: " + *p.Phones)
	}
	if p.StatsDescription != nil && *p.StatsDescription != "" {
		b.WriteString("\nКомментарий: " + *p.StatsDescription)
	}
	return b.String()
}

func claimedMessage(p *entities.ParsedProperty, agentName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Объявление №%d взято в работу\nАгент: %s", p.VitrinaID, agentName)
	if p.Address != nil {
		b.WriteString("\nАдрес: " + *p.Address)
	}
	if p.PropertyClass != nil {
		b.WriteString("\nКласс: " + *p.PropertyClass)
	}
	return b.String()
}
