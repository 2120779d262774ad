package dto

import (
	"time"

	"github.com/aarondl/null/v8"
)

// ListingDTO — спарсенное объявление для API и карточек бота.
type ListingDTO struct {
	VitrinaID int64 `json:"vitrina_id"`
	RbdID     int64 `json:"rbd_id"`

	KrishaID       null.String  `json:"krisha_id,omitempty"`
	KrishaDate     null.Time    `json:"krisha_date,omitempty"`
	ObjectType     null.String  `json:"object_type,omitempty"`
	Address        null.String  `json:"address,omitempty"`
	Complex        null.String  `json:"complex,omitempty"`
	Builder        null.String  `json:"builder,omitempty"`
	FlatType       null.String  `json:"flat_type,omitempty"`
	PropertyClass  null.String  `json:"property_class,omitempty"`
	Condition      null.String  `json:"condition,omitempty"`
	SellPrice      null.Float64 `json:"sell_price,omitempty"`
	SellPricePerM2 null.Float64 `json:"sell_price_per_m2,omitempty"`
	HouseNum       null.String  `json:"house_num,omitempty"`
	FloorNum       null.Int     `json:"floor_num,omitempty"`
	FloorCount     null.Int     `json:"floor_count,omitempty"`
	RoomCount      null.Int     `json:"room_count,omitempty"`
	Phones         null.String  `json:"phones,omitempty"`
	Description    null.String  `json:"description,omitempty"`
	Area           null.Float64 `json:"area,omitempty"`
	YearBuilt      null.Int     `json:"year_built,omitempty"`

	StatsAgentGiven   null.String `json:"stats_agent_given,omitempty"`
	StatsTimeGiven    null.Time   `json:"stats_time_given,omitempty"`
	StatsObjectStatus null.String `json:"stats_object_status,omitempty"`
	StatsRecallTime   null.Time   `json:"stats_recall_time,omitempty"`
	StatsDescription  null.String `json:"stats_description,omitempty"`
}

// ClaimListingDTO — закрепление объявления за агентом.
type ClaimListingDTO struct {
	AgentPhone string `json:"agent_phone" validate:"required,kz_phone"`
}

// UpdateListingStatusDTO — смена статуса обработки. При статусе
// "Перезвонить" время перезвона обязательно.
type UpdateListingStatusDTO struct {
	Status      string     `json:"status" validate:"required"`
	RecallTime  *time.Time `json:"recall_time,omitempty"`
	Description *string    `json:"description,omitempty"`
}
