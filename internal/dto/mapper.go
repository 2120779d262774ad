package dto

import (
	"time"

	"github.com/aarondl/null/v8"

	"vitrina-crm/internal/entities"
)

func nullIntFromPtr(p *int) null.Int {
	if p == nil {
		return null.Int{}
	}
	return null.IntFrom(*p)
}

// FromPropertyEntity собирает DTO сделки для API и бота.
func FromPropertyEntity(p *entities.Property) PropertyDTO {
	return PropertyDTO{
		CrmID: p.CrmID,

		DateSigned:     null.StringFromPtr(p.DateSigned),
		ContractNumber: null.StringFromPtr(p.ContractNumber),
		Mop:            null.StringFromPtr(p.Mop),
		Rop:            null.StringFromPtr(p.Rop),
		Dd:             null.StringFromPtr(p.Dd),
		ClientName:     null.StringFromPtr(p.ClientName),
		Address:        null.StringFromPtr(p.Address),
		Complex:        null.StringFromPtr(p.Complex),
		ContractPrice:  null.StringFromPtr(p.ContractPrice),
		Expires:        null.StringFromPtr(p.Expires),

		Category:         null.StringFromPtr(p.Category),
		Collage:          p.Collage,
		ProfCollage:      p.ProfCollage,
		Krisha:           null.StringFromPtr(p.Krisha),
		Instagram:        null.StringFromPtr(p.Instagram),
		Tiktok:           null.StringFromPtr(p.Tiktok),
		Mailing:          null.StringFromPtr(p.Mailing),
		Stream:           null.StringFromPtr(p.Stream),
		Shows:            p.Shows,
		Analytics:        p.Analytics,
		PriceUpdate:      null.StringFromPtr(p.PriceUpdate),
		ProvideAnalytics: p.ProvideAnalytics,
		PushForPrice:     p.PushForPrice,
		Status:           p.Status,

		LastModifiedBy: p.LastModifiedBy,
		LastModifiedAt: p.LastModifiedAt.Local().Format("2006-01-02 15:04:05"),
		CreatedAt:      p.CreatedAt.Local().Format("2006-01-02 15:04:05"),
	}
}

// FromParsedPropertyEntity собирает DTO объявления.
func FromParsedPropertyEntity(p *entities.ParsedProperty) ListingDTO {
	return ListingDTO{
		VitrinaID: p.VitrinaID,
		RbdID:     p.RbdID,

		KrishaID:       null.StringFromPtr(p.KrishaID),
		KrishaDate:     null.TimeFromPtr(p.KrishaDate),
		ObjectType:     null.StringFromPtr(p.ObjectType),
		Address:        null.StringFromPtr(p.Address),
		Complex:        null.StringFromPtr(p.Complex),
		Builder:        null.StringFromPtr(p.Builder),
		FlatType:       null.StringFromPtr(p.FlatType),
		PropertyClass:  null.StringFromPtr(p.PropertyClass),
		Condition:      null.StringFromPtr(p.Condition),
		SellPrice:      null.Float64FromPtr(p.SellPrice),
		SellPricePerM2: null.Float64FromPtr(p.SellPricePerM2),
		HouseNum:       null.StringFromPtr(p.HouseNum),
		FloorNum:       nullIntFromPtr(p.FloorNum),
		FloorCount:     nullIntFromPtr(p.FloorCount),
		RoomCount:      nullIntFromPtr(p.RoomCount),
		Phones:         null.StringFromPtr(p.Phones),
		Description:    null.StringFromPtr(p.Description),
		Area:           null.Float64FromPtr(p.Area),
		YearBuilt:      nullIntFromPtr(p.YearBuilt),

		StatsAgentGiven:   null.StringFromPtr(p.StatsAgentGiven),
		StatsTimeGiven:    null.TimeFromPtr(p.StatsTimeGiven),
		StatsObjectStatus: null.StringFromPtr(p.StatsObjectStatus),
		StatsRecallTime:   null.TimeFromPtr(p.StatsRecallTime),
		StatsDescription:  null.StringFromPtr(p.StatsDescription),
	}
}

func FromAgentEntity(a *entities.Agent) AgentDTO {
	chatIDs := a.ChatIDs
	if chatIDs == nil {
		chatIDs = []string{}
	}
	classes := a.PropertyClasses
	if classes == nil {
		classes = []string{}
	}
	return AgentDTO{
		Phone:           a.Phone,
		Name:            a.Name,
		ChatIDs:         chatIDs,
		Role:            a.Role,
		PropertyClasses: classes,
	}
}

// ToPropertyEntity переводит строку таблицы в сущность для upsert.
func (r SheetRowDTO) ToPropertyEntity() entities.Property {
	return entities.Property{
		CrmID:          r.CrmID,
		DateSigned:     r.DateSigned,
		ContractNumber: r.ContractNumber,
		Mop:            r.Mop,
		Rop:            r.Rop,
		Dd:             r.Dd,
		ClientName:     r.ClientName,
		Address:        r.Address,
		Complex:        r.Complex,
		ContractPrice:  r.ContractPrice,
		Expires:        r.Expires,
	}
}

// ModifiedAtOrNow: строки без отметки времени считаются изменёнными сейчас.
func (r SheetRowDTO) ModifiedAtOrNow(now time.Time) time.Time {
	if r.ModifiedAt != nil {
		return *r.ModifiedAt
	}
	return now
}
