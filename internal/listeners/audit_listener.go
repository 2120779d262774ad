package listeners

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vitrina-crm/internal/events"
	"vitrina-crm/pkg/eventbus"
)

// AuditListener пишет в журнал, кто что поменял: правки карточек агентами
// и итоги прогонов парсера. Отдельный логгер-поток вместо таблицы аудита.
type AuditListener struct {
	logger *zap.Logger
}

func NewAuditListener(logger *zap.Logger) *AuditListener {
	return &AuditListener{logger: logger.Named("audit")}
}

func (l *AuditListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.PropertyUpdatedName, l.onPropertyUpdated)
	bus.Subscribe(events.ListingsImportedName, l.onListingsImported)
}

func (l *AuditListener) onPropertyUpdated(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.PropertyUpdatedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	l.logger.Info("контракт изменён",
		zap.String("crm_id", e.CrmID),
		zap.String("by", e.AgentLogin),
		zap.String("fields", strings.Join(e.Fields, ",")),
	)
	return nil
}

func (l *AuditListener) onListingsImported(_ context.Context, event eventbus.Event) error {
	e, ok := event.(events.ListingsImportedEvent)
	if !ok {
		return fmt.Errorf("неожиданный тип события: %T", event)
	}
	l.logger.Info("импорт объявлений завершён",
		zap.String("run_id", e.RunID),
		zap.Int("inserted", e.Inserted),
	)
	return nil
}
