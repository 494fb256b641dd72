package slots

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"examslot-watcher/internal/normalize"
)

// Parse разбирает HTML страницы результатов поиска
func Parse(html string, sel Selectors, dp *DateParser) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &Result{
		NoTimes: normalize.Contains(doc.Find("body").Text(), sel.NoTimesText),
	}

	seen := make(map[string]bool)

	// Селекторы слотов пробуем по очереди, первый непустой выигрывает
	for _, selector := range sel.SlotSelectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			label := trySelectors(s, sel.SlotTimeSelectors)
			if label == "" {
				label = normalize.Text(s.Text())
			}
			if label == "" || seen[label] {
				return
			}
			seen[label] = true

			slot := Slot{
				Label:    label,
				Location: trySelectors(s, sel.SlotLocationSelectors),
			}
			if dp != nil {
				if start, err := dp.Parse(label); err == nil {
					slot.Start = start
					slot.HasStart = true
				}
			}

			result.Slots = append(result.Slots, slot)
		})

		if len(result.Slots) > 0 {
			break
		}
	}

	return result, nil
}

func trySelectors(s *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		text := normalize.Text(s.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}
