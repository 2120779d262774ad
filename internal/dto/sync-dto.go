package dto

import "time"

// RBDSyncStatsDTO — итог одного прогона парсера rbd.kz.
type RBDSyncStatsDTO struct {
	RunID      string `json:"run_id"`
	Pages      int    `json:"pages"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Stopped    bool   `json:"stopped"`
}

// ArchiveStatsDTO — итог прохода архиватора по krisha.kz.
type ArchiveStatsDTO struct {
	Checked  int `json:"checked"`
	Archived int `json:"archived"`
}

// SheetRowDTO — строка внешней таблицы, уже разобранная до полей CRM.
// Snapshot передаётся снаружи: транспорт Google Sheets вне этого сервиса.
type SheetRowDTO struct {
	CrmID          string  `json:"crm_id" validate:"required"`
	DateSigned     *string `json:"date_signed,omitempty"`
	ContractNumber *string `json:"contract_number,omitempty"`
	Mop            *string `json:"mop,omitempty"`
	Rop            *string `json:"rop,omitempty"`
	Dd             *string `json:"dd,omitempty"`
	ClientName     *string `json:"client_name,omitempty"`
	Address        *string `json:"address,omitempty"`
	Complex        *string `json:"complex,omitempty"`
	ContractPrice  *string `json:"contract_price,omitempty"`
	Expires        *string `json:"expires,omitempty"`

	Category         *string    `json:"category,omitempty"`
	Collage          *bool      `json:"collage,omitempty"`
	ProfCollage      *bool      `json:"prof_collage,omitempty"`
	Krisha           *string    `json:"krisha,omitempty"`
	Instagram        *string    `json:"instagram,omitempty"`
	Tiktok           *string    `json:"tiktok,omitempty"`
	Mailing          *string    `json:"mailing,omitempty"`
	Stream           *string    `json:"stream,omitempty"`
	Shows            *int       `json:"shows,omitempty"`
	Analytics        *bool      `json:"analytics,omitempty"`
	PriceUpdate      *string    `json:"price_update,omitempty"`
	ProvideAnalytics *bool      `json:"provide_analytics,omitempty"`
	PushForPrice     *bool      `json:"push_for_price,omitempty"`
	Status           *string    `json:"status,omitempty"`
	ModifiedAt       *time.Time `json:"modified_at,omitempty"`
}

// SheetSyncRequestDTO — снапшот таблицы для сверки.
type SheetSyncRequestDTO struct {
	Rows []SheetRowDTO `json:"rows" validate:"required,dive"`
}

// SheetSyncResultDTO — итог сверки снапшота с БД.
type SheetSyncResultDTO struct {
	RunID    string `json:"run_id"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
}
