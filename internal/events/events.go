package events

import (
	"time"

	"vitrina-crm/internal/entities"
)

const (
	ListingClaimedName   = "listing.claimed"
	PropertyUpdatedName  = "property.updated"
	RecallDueName        = "listing.recall_due"
	ListingsImportedName = "listings.imported"
)

// ListingClaimedEvent — агент закрепил объявление за собой.
type ListingClaimedEvent struct {
	Listing    entities.ParsedProperty
	AgentPhone string
}

func (e ListingClaimedEvent) Name() string { return ListingClaimedName }

// PropertyUpdatedEvent — бот поменял маркетинговые поля сделки.
type PropertyUpdatedEvent struct {
	CrmID      string
	AgentLogin string
	Fields     []string
}

func (e PropertyUpdatedEvent) Name() string { return PropertyUpdatedName }

// RecallDueEvent — наступило время перезвона по объявлению.
type RecallDueEvent struct {
	Listing entities.ParsedProperty
	DueAt   time.Time
}

func (e RecallDueEvent) Name() string { return RecallDueName }

// ListingsImportedEvent — парсер залил новую пачку объявлений.
type ListingsImportedEvent struct {
	RunID    string
	Inserted int
}

func (e ListingsImportedEvent) Name() string { return ListingsImportedName }
