package bot

import (
	"fmt"
	"strings"

	"github.com/aarondl/null/v8"

	"vitrina-crm/internal/dto"
)

func checkbox(v bool) string {
	if v {
		return "✅"
	}
	return "—"
}

func line(b *strings.Builder, label string, v null.String) {
	if v.Valid && v.String != "" {
		fmt.Fprintf(b, "%s: %s\n", label, v.String)
	}
}

// FormatPropertyCard — карточка сделки для чата.
func FormatPropertyCard(p dto.PropertyDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Сделка %s\n", p.CrmID)
	line(&b, "Клиент", p.ClientName)
	line(&b, "Адрес", p.Address)
	line(&b, "ЖК", p.Complex)
	line(&b, "Договор", p.ContractNumber)
	line(&b, "Подписан", p.DateSigned)
	line(&b, "Истекает", p.Expires)
	line(&b, "Цена по договору", p.ContractPrice)
	line(&b, "МОП", p.Mop)
	line(&b, "РОП", p.Rop)
	line(&b, "ДД", p.Dd)

	b.WriteString("\nМаркетинг:\n")
	line(&b, "Категория", p.Category)
	fmt.Fprintf(&b, "Коллаж: %s  Проф. коллаж: %s\n", checkbox(p.Collage), checkbox(p.ProfCollage))
	line(&b, "Крыша", p.Krisha)
	line(&b, "Instagram", p.Instagram)
	line(&b, "TikTok", p.Tiktok)
	line(&b, "Рассылка", p.Mailing)
	line(&b, "Стрим", p.Stream)
	fmt.Fprintf(&b, "Показов: %d\n", p.Shows)
	fmt.Fprintf(&b, "Аналитика: %s  Отправлена клиенту: %s\n", checkbox(p.Analytics), checkbox(p.ProvideAnalytics))
	fmt.Fprintf(&b, "Дожим по цене: %s\n", checkbox(p.PushForPrice))
	line(&b, "Обновление цены", p.PriceUpdate)
	fmt.Fprintf(&b, "Статус: %s\n", p.Status)
	fmt.Fprintf(&b, "\nИзменено: %s (%s)", p.LastModifiedAt, p.LastModifiedBy)
	return b.String()
}

// FormatContractLine — одна строка в списке сделок агента.
func FormatContractLine(p dto.PropertyDTO) string {
	parts := []string{p.CrmID}
	if p.ClientName.Valid && p.ClientName.String != "" {
		parts = append(parts, p.ClientName.String)
	}
	if p.Address.Valid && p.Address.String != "" {
		parts = append(parts, p.Address.String)
	}
	return strings.Join(parts, " · ")
}

// FormatListingCard — карточка спарсенного объявления.
func FormatListingCard(l dto.ListingDTO) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Объявление №%d\n", l.VitrinaID)
	if l.KrishaID.Valid && l.KrishaID.String != "" {
		fmt.Fprintf(&b, "Крыша: https://krisha.kz/a/show/%s\n", l.KrishaID.String)
	}
	line(&b, "Тип", l.ObjectType)
	line(&b, "Адрес", l.Address)
	line(&b, "ЖК", l.Complex)
	line(&b, "Класс", l.PropertyClass)
	line(&b, "Состояние", l.Condition)

	if l.RoomCount.Valid {
		fmt.Fprintf(&b, "Комнат: %d", l.RoomCount.Int)
		if l.Area.Valid {
			fmt.Fprintf(&b, ", %.1f м²", l.Area.Float64)
		}
		if l.FloorNum.Valid && l.FloorCount.Valid {
			fmt.Fprintf(&b, ", этаж %d/%d", l.FloorNum.Int, l.FloorCount.Int)
		}
		b.WriteString("\n")
	}
	if l.SellPrice.Valid {
		fmt.Fprintf(&b, "Цена: %s ₸", formatPrice(l.SellPrice.Float64))
		if l.SellPricePerM2.Valid {
			fmt.Fprintf(&b, " (%s ₸/м²)", formatPrice(l.SellPricePerM2.Float64))
		}
		b.WriteString("\n")
	}
	line(&b, "Телефоны", l.Phones)
	if l.KrishaDate.Valid {
		fmt.Fprintf(&b, "Дата объявления: %s\n", l.KrishaDate.Time.Format("02.01.2006"))
	}

	if l.StatsAgentGiven.Valid && l.StatsAgentGiven.String != "" {
		fmt.Fprintf(&b, "\nВ работе у: %s", l.StatsAgentGiven.String)
		if l.StatsObjectStatus.Valid && l.StatsObjectStatus.String != "" {
			fmt.Fprintf(&b, "\nСтатус: %s", l.StatsObjectStatus.String)
		}
		if l.StatsRecallTime.Valid {
			fmt.Fprintf(&b, "\nПерезвон: %s", l.StatsRecallTime.Time.Format("02.01.2006 15:04"))
		}
		if l.StatsDescription.Valid && l.StatsDescription.String != "" {
			fmt.Fprintf(&b, "\nКомментарий: %s", l.StatsDescription.String)
		}
	}
	return b.String()
}

// formatPrice разбивает целую часть на разряды: 25300000 -> "25 300 000".
func formatPrice(v float64) string {
	raw := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(raw, "-")
	if neg {
		raw = raw[1:]
	}

	var b strings.Builder
	for i, r := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
