package rbd

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrina-crm/internal/entities"
)

func TestItemToRow(t *testing.T) {
	item := map[string]interface{}{
		"id":                  float64(12345),
		"krishaId":            "987654321",
		"krishaDate":          "2025-06-01T10:30:00",
		"objectType__text":    "Квартира",
		"city__text":          "Алматы",
		"district__text":      "Бостандыкский",
		"addressType__text":   "ул.",
		"addressName":         "Сатпаева",
		"complexName":         "ЖК Легенда",
		"flatType__text":      "вторичка",
		"propertyClass__text": "комфорт",
		"sourceSellPrice":     float64(45000000),
		"sellPriceMeter":      "620000",
		"floorNum":            float64(5),
		"floorCount":          float64(12),
		"roomCount":           "3",
		"area":                float64(72.5),
		"memoPublic":          "Отличная квартира Перевести Перевод может быть неточным Показать оригинал",
		"statsAgentGiven":     nil,
	}

	row, ok := ItemToRow(item)
	require.True(t, ok)

	assert.Equal(t, int64(12345), row.RbdID)
	require.NotNil(t, row.KrishaID)
	assert.Equal(t, "987654321", *row.KrishaID)

	require.NotNil(t, row.KrishaDate)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC), *row.KrishaDate)

	require.NotNil(t, row.Address)
	assert.Equal(t, "Алматы, Бостандыкский, ул., Сатпаева", *row.Address)

	require.NotNil(t, row.Complex)
	assert.Equal(t, "ЖК Легенда", *row.Complex)

	require.NotNil(t, row.SellPrice)
	assert.Equal(t, float64(45000000), *row.SellPrice)

	require.NotNil(t, row.SellPricePerM2)
	assert.Equal(t, float64(620000), *row.SellPricePerM2)

	require.NotNil(t, row.RoomCount)
	assert.Equal(t, 3, *row.RoomCount)

	// хвост автоперевода срезается
	require.NotNil(t, row.Description)
	assert.Equal(t, "Отличная квартира", *row.Description)

	assert.Nil(t, row.StatsAgentGiven)
}

func TestItemToRow_SparseItem(t *testing.T) {
	// у объявления без атрибутов заполняется только rbd_id
	row, ok := ItemToRow(map[string]interface{}{"id": float64(77)})
	require.True(t, ok)

	want := &entities.ParsedProperty{RbdID: 77}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("ItemToRow() mismatch (-want +got):\n%s", diff)
	}
}

func TestItemToRow_WithoutID(t *testing.T) {
	_, ok := ItemToRow(map[string]interface{}{"krishaId": "1"})
	assert.False(t, ok)

	_, ok = ItemToRow(map[string]interface{}{"id": "not-a-number"})
	assert.False(t, ok)
}

func TestCleanDescription(t *testing.T) {
	assert.Nil(t, cleanDescription(nil))
	assert.Nil(t, cleanDescription(""))
	assert.Nil(t, cleanDescription(translateSuffix))

	got := cleanDescription("Просто описание")
	if assert.NotNil(t, got) {
		assert.Equal(t, "Просто описание", *got)
	}
}
