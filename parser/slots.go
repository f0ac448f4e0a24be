package parser

import (
	"strings"

	"appointment-watcher/types"

	"github.com/PuerkitoBio/goquery"
)

// parseSlots собирает видимые карточки: h1 — день, h5 — месяц, h6 — время.
func parseSlots(doc *goquery.Document) []types.RawSlot {
	slots := make([]types.RawSlot, 0)

	doc.Find("#idHorasDisponiblesContainer .card").Each(func(i int, s *goquery.Selection) {
		if hidden(s) {
			return
		}

		slot := types.RawSlot{
			Day:   cleanText(s.Find("h1").First().Text()),
			Month: cleanText(s.Find("h5").First().Text()),
			Time:  normalizeTime(cleanText(s.Find("h6").First().Text())),
		}
		// карточки без одного из полей пропускаем
		if slot.Day == "" || slot.Month == "" || slot.Time == "" {
			return
		}
		slots = append(slots, slot)
	})

	return slots
}

func loaderVisible(doc *goquery.Document) bool {
	loader := doc.Find("#idBuscarHoraLoaderContainer").First()
	return loader.Length() > 0 && !hidden(loader)
}

func hidden(s *goquery.Selection) bool {
	style := strings.ReplaceAll(strings.ToLower(attrOr(s, "style", "")), " ", "")
	if strings.Contains(style, "display:none") {
		return true
	}
	return s.HasClass("d-none")
}

// cleanText схлопывает пробелы и переносы строк
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeTime преобразует время к формату "HH:MM" (добавляет ведущий 0 если нужно)
func normalizeTime(t string) string {
	parts := strings.Split(t, ":")
	if len(parts) != 2 {
		return t
	}

	hour := parts[0]
	minute := parts[1]

	if len(hour) == 1 {
		hour = "0" + hour
	}
	if len(minute) == 1 {
		minute = "0" + minute
	}

	return hour + ":" + minute
}
