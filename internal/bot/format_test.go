package bot

import (
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"vitrina-crm/internal/dto"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "950", formatPrice(950))
	assert.Equal(t, "25 300 000", formatPrice(25300000))
	assert.Equal(t, "1 000", formatPrice(1000))
	assert.Equal(t, "-15 000", formatPrice(-15000))
}

func TestFormatListingCard(t *testing.T) {
	l := dto.ListingDTO{
		VitrinaID:      42,
		RbdID:          777,
		KrishaID:       null.StringFrom("1000123456"),
		KrishaDate:     null.TimeFrom(time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)),
		Address:        null.StringFrom("Алматы, Бостандыкский р-н, мкр Орбита-1"),
		PropertyClass:  null.StringFrom("Комфорт"),
		RoomCount:      null.IntFrom(3),
		Area:           null.Float64From(78.5),
		FloorNum:       null.IntFrom(5),
		FloorCount:     null.IntFrom(9),
		SellPrice:      null.Float64From(42500000),
		SellPricePerM2: null.Float64From(541401),
		Phones:         null.StringFrom("+7 701 123 45 67"),
	}

	card := FormatListingCard(l)

	assert.Contains(t, card, "Объявление №42")
	assert.Contains(t, card, "https://krisha.kz/a/show/1000123456")
	assert.Contains(t, card, "Комнат: 3, 78.5 м², этаж 5/9")
	assert.Contains(t, card, "Цена: 42 500 000 ₸ (541 401 ₸/м²)")
	assert.Contains(t, card, "Дата объявления: 15.03.2026")
	// Свободное объявление — блока обработки нет.
	assert.NotContains(t, card, "В работе у")
}

func TestFormatListingCardClaimed(t *testing.T) {
	l := dto.ListingDTO{
		VitrinaID:         7,
		StatsAgentGiven:   null.StringFrom("77011234567"),
		StatsObjectStatus: null.StringFrom("Перезвонить"),
		StatsRecallTime:   null.TimeFrom(time.Date(2026, 6, 1, 14, 30, 0, 0, time.UTC)),
	}

	card := FormatListingCard(l)

	assert.Contains(t, card, "В работе у: 77011234567")
	assert.Contains(t, card, "Статус: Перезвонить")
	assert.Contains(t, card, "Перезвон: 01.06.2026 14:30")
}

func TestFormatPropertyCard(t *testing.T) {
	p := dto.PropertyDTO{
		CrmID:          "CRM-1024",
		ClientName:     null.StringFrom("Асель Нурланова"),
		Address:        null.StringFrom("Алматы, ул. Абая 10"),
		Shows:          4,
		Collage:        true,
		Status:         "Размещено",
		LastModifiedBy: "BOT",
		LastModifiedAt: "2026-05-10 12:00:00",
	}

	card := FormatPropertyCard(p)

	assert.Contains(t, card, "Сделка CRM-1024")
	assert.Contains(t, card, "Клиент: Асель Нурланова")
	assert.Contains(t, card, "Показов: 4")
	assert.Contains(t, card, "Коллаж: ✅")
	assert.Contains(t, card, "Изменено: 2026-05-10 12:00:00 (BOT)")
	// Пустые поля в карточку не попадают.
	assert.NotContains(t, card, "Instagram")
}

func TestContractsPageMessage(t *testing.T) {
	contracts := []dto.PropertyDTO{
		{CrmID: "CRM-1", ClientName: null.StringFrom("Клиент Один")},
		{CrmID: "CRM-2"},
	}

	t.Run("первая страница из трёх", func(t *testing.T) {
		msg := contractsPageMessage(10, contracts, 0, 25, 10)
		assert.Contains(t, msg.Text, "стр. 1 из 3")

		kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		nav := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
		assert.Len(t, nav, 1)
		assert.Equal(t, "contracts:1", *nav[0].CallbackData)
	})

	t.Run("средняя страница с навигацией в обе стороны", func(t *testing.T) {
		msg := contractsPageMessage(10, contracts, 1, 25, 10)

		kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		nav := kb.InlineKeyboard[len(kb.InlineKeyboard)-1]
		assert.Len(t, nav, 2)
		assert.Equal(t, "contracts:0", *nav[0].CallbackData)
		assert.Equal(t, "contracts:2", *nav[1].CallbackData)
	})

	t.Run("единственная страница без навигации", func(t *testing.T) {
		msg := contractsPageMessage(10, contracts, 0, 2, 10)

		kb := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		// Только кнопки сделок.
		assert.Len(t, kb.InlineKeyboard, len(contracts))
	})
}
