package entities

import "time"

// Писатели properties. Фиксируются в last_modified_by.
const (
	ModifiedByBot   = "BOT"
	ModifiedBySheet = "SHEET"
)

// Property — сделка CRM. Реквизиты сделки (mop/rop/dd, клиент, договор)
// приходят из внешней таблицы и ботом не редактируются; маркетинговые
// поля правит бот.
type Property struct {
	CrmID string

	DateSigned     *string
	ContractNumber *string
	Mop            *string
	Rop            *string
	Dd             *string
	ClientName     *string
	Address        *string
	Complex        *string
	ContractPrice  *string
	Expires        *string

	Category         *string
	Collage          bool
	ProfCollage      bool
	Krisha           *string
	Instagram        *string
	Tiktok           *string
	Mailing          *string
	Stream           *string
	Shows            int
	Analytics        bool
	PriceUpdate      *string
	ProvideAnalytics bool
	PushForPrice     bool
	Status           string

	LastModifiedBy string
	LastModifiedAt time.Time
	CreatedAt      time.Time
}
