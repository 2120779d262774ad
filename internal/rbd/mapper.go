package rbd

import (
	"strconv"
	"strings"
	"time"

	"vitrina-crm/internal/entities"
)

// Служебный хвост, который интерфейс rbd.kz дописывает к переведённым
// описаниям.
const translateSuffix = "Перевести Перевод может быть неточным Показать оригинал"

// Форматы дат, встречающиеся в выдаче.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04",
	"02.01.2006",
}

func toString(v interface{}) *string {
	if v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil
	}
	if s == "" {
		return nil
	}
	return &s
}

func toInt(v interface{}) *int {
	switch t := v.(type) {
	case float64:
		n := int(t)
		return &n
	case string:
		if t == "" {
			return nil
		}
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &n
		}
	}
	return nil
}

func toFloat(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if t == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return nil
}

func toTime(v interface{}) *time.Time {
	s := toString(v)
	if s == nil {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t
		}
	}
	return nil
}

// buildAddress склеивает адрес из город/район/тип улицы/название.
func buildAddress(item map[string]interface{}) *string {
	parts := make([]string, 0, 4)
	for _, key := range []string{"city__text", "district__text", "addressType__text", "addressName"} {
		if s := toString(item[key]); s != nil {
			parts = append(parts, *s)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, ", ")
	return &joined
}

// cleanDescription убирает хвост автоперевода из описания.
func cleanDescription(v interface{}) *string {
	s := toString(v)
	if s == nil {
		return nil
	}
	cleaned := strings.TrimSpace(strings.TrimSuffix(*s, translateSuffix))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// firstOf возвращает первое непустое значение из перечисленных ключей.
func firstOf(item map[string]interface{}, keys ...string) *string {
	for _, key := range keys {
		if s := toString(item[key]); s != nil {
			return s
		}
	}
	return nil
}

// ItemToRow переводит элемент выдачи supply-search в строку
// parsed_properties. Элементы без числового id отбрасываются.
func ItemToRow(item map[string]interface{}) (*entities.ParsedProperty, bool) {
	id := toInt(item["id"])
	if id == nil {
		return nil, false
	}

	row := &entities.ParsedProperty{
		RbdID:          int64(*id),
		KrishaID:       toString(item["krishaId"]),
		KrishaDate:     toTime(item["krishaDate"]),
		ObjectType:     toString(item["objectType__text"]),
		Address:        buildAddress(item),
		Complex:        firstOf(item, "complex__text", "complexName"),
		Builder:        firstOf(item, "builder__text", "builderName"),
		FlatType:       toString(item["flatType__text"]),
		PropertyClass:  toString(item["propertyClass__text"]),
		Condition:      toString(item["condition__text"]),
		SellPrice:      toFloat(firstNonNil(item, "sourceSellPrice", "sellPriceFull")),
		SellPricePerM2: toFloat(item["sellPriceMeter"]),
		AddressType:    toString(item["addressType__text"]),
		HouseNum:       toString(item["houseNum"]),
		FloorNum:       toInt(item["floorNum"]),
		FloorCount:     toInt(item["floorCount"]),
		RoomCount:      toInt(item["roomCount"]),
		Phones:         toString(item["phones"]),
		Description:    cleanDescription(item["memoPublic"]),
		CeilingHeight:  toFloat(item["ceilingHeight"]),
		Area:           toFloat(item["area"]),
		YearBuilt:      toInt(item["yearBuilt"]),
		WallType:       toString(item["wallType__text"]),

		StatsAgentGiven:   toString(item["statsAgentGiven"]),
		StatsTimeGiven:    toTime(item["statsTimeGiven"]),
		StatsObjectStatus: toString(item["statsObjectStatus"]),
		StatsRecallTime:   toTime(item["statsRecallTime"]),
		StatsDescription:  toString(item["statsDescription"]),
	}
	return row, true
}

func firstNonNil(item map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := item[key]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}
