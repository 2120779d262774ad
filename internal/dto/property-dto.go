package dto

import (
	"github.com/aarondl/null/v8"
)

// PropertyDTO — сделка CRM в том виде, в котором её отдаёт API и бот.
type PropertyDTO struct {
	CrmID string `json:"crm_id"`

	DateSigned     null.String `json:"date_signed,omitempty"`
	ContractNumber null.String `json:"contract_number,omitempty"`
	Mop            null.String `json:"mop,omitempty"`
	Rop            null.String `json:"rop,omitempty"`
	Dd             null.String `json:"dd,omitempty"`
	ClientName     null.String `json:"client_name,omitempty"`
	Address        null.String `json:"address,omitempty"`
	Complex        null.String `json:"complex,omitempty"`
	ContractPrice  null.String `json:"contract_price,omitempty"`
	Expires        null.String `json:"expires,omitempty"`

	Category         null.String `json:"category,omitempty"`
	Collage          bool        `json:"collage"`
	ProfCollage      bool        `json:"prof_collage"`
	Krisha           null.String `json:"krisha,omitempty"`
	Instagram        null.String `json:"instagram,omitempty"`
	Tiktok           null.String `json:"tiktok,omitempty"`
	Mailing          null.String `json:"mailing,omitempty"`
	Stream           null.String `json:"stream,omitempty"`
	Shows            int         `json:"shows"`
	Analytics        bool        `json:"analytics"`
	PriceUpdate      null.String `json:"price_update,omitempty"`
	ProvideAnalytics bool        `json:"provide_analytics"`
	PushForPrice     bool        `json:"push_for_price"`
	Status           string      `json:"status"`

	LastModifiedBy string `json:"last_modified_by"`
	LastModifiedAt string `json:"last_modified_at"`
	CreatedAt      string `json:"created_at"`
}

// UpdatePropertyDTO — частичное обновление маркетинговых полей ботом.
// Реквизиты сделки через этот DTO не меняются.
type UpdatePropertyDTO struct {
	Category         *string `json:"category,omitempty"`
	Collage          *bool   `json:"collage,omitempty"`
	ProfCollage      *bool   `json:"prof_collage,omitempty"`
	Krisha           *string `json:"krisha,omitempty"`
	Instagram        *string `json:"instagram,omitempty"`
	Tiktok           *string `json:"tiktok,omitempty"`
	Mailing          *string `json:"mailing,omitempty"`
	Stream           *string `json:"stream,omitempty"`
	Shows            *int    `json:"shows,omitempty" validate:"omitempty,gte=0"`
	Analytics        *bool   `json:"analytics,omitempty"`
	PriceUpdate      *string `json:"price_update,omitempty"`
	ProvideAnalytics *bool   `json:"provide_analytics,omitempty"`
	PushForPrice     *bool   `json:"push_for_price,omitempty"`
	Status           *string `json:"status,omitempty"`
}

// Empty сообщает, есть ли в DTO хоть одно поле для записи.
func (d UpdatePropertyDTO) Empty() bool {
	return d.Category == nil && d.Collage == nil && d.ProfCollage == nil &&
		d.Krisha == nil && d.Instagram == nil && d.Tiktok == nil &&
		d.Mailing == nil && d.Stream == nil && d.Shows == nil &&
		d.Analytics == nil && d.PriceUpdate == nil && d.ProvideAnalytics == nil &&
		d.PushForPrice == nil && d.Status == nil
}

// PropertyStatsDTO — сводка по таблице properties.
type PropertyStatsDTO struct {
	TotalRecords int64            `json:"total_records"`
	AgentsStats  map[string]int64 `json:"agents_stats"`
}
