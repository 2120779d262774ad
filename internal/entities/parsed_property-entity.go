package entities

import "time"

// Статусы обработки объявления агентом. Список открытый — колонка
// хранит произвольный текст, эти два участвуют в предикатах индексов.
const (
	ObjectStatusRecall   = "Перезвонить"
	ObjectStatusArchived = "Архив"
)

// ParsedProperty — спарсенное объявление. rbd_id уникален; krisha_id
// может повторяться у разных строк, актуальную выбирают по krisha_date.
type ParsedProperty struct {
	VitrinaID int64
	RbdID     int64

	KrishaID       *string
	KrishaDate     *time.Time
	ObjectType     *string
	Address        *string
	Complex        *string
	Builder        *string
	FlatType       *string
	PropertyClass  *string
	Condition      *string
	SellPrice      *float64
	SellPricePerM2 *float64
	AddressType    *string
	HouseNum       *string
	FloorNum       *int
	FloorCount     *int
	RoomCount      *int
	Phones         *string
	Description    *string
	CeilingHeight  *float64
	Area           *float64
	YearBuilt      *int
	WallType       *string

	StatsAgentGiven   *string
	StatsTimeGiven    *time.Time
	StatsObjectStatus *string
	StatsRecallTime   *time.Time
	StatsDescription  *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Claimed сообщает, закреплено ли объявление за агентом.
func (p *ParsedProperty) Claimed() bool {
	return p.StatsAgentGiven != nil && *p.StatsAgentGiven != ""
}
