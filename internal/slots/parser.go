package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
	"unicode"

	"examslot-watcher/internal/normalize"
)

var (
	// Шведские месяцы, полные и сокращённые
	svMonths = map[string]time.Month{
		"januari":   time.January,
		"februari":  time.February,
		"mars":      time.March,
		"april":     time.April,
		"maj":       time.May,
		"juni":      time.June,
		"juli":      time.July,
		"augusti":   time.August,
		"september": time.September,
		"oktober":   time.October,
		"november":  time.November,
		"december":  time.December,
		"jan":       time.January,
		"feb":       time.February,
		"mar":       time.March,
		"apr":       time.April,
		"jun":       time.June,
		"jul":       time.July,
		"aug":       time.August,
		"sep":       time.September,
		"sept":      time.September,
		"okt":       time.October,
		"nov":       time.November,
		"dec":       time.December,
	}

	// Дни недели (для удаления)
	svDays = map[string]bool{
		"måndag": true, "tisdag": true, "onsdag": true, "torsdag": true,
		"fredag": true, "lördag": true, "söndag": true,
		"mån": true, "tis": true, "ons": true, "tors": true, "tor": true,
		"fre": true, "lör": true, "sön": true,
	}

	isoDateRe     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numericDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	clockRe       = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?:-.*)?$`)
	dayRe         = regexp.MustCompile(`^\d{1,2}$`)
	yearRe        = regexp.MustCompile(`^\d{4}$`)
)

// Даты без года старше этого считаются датами следующего года
const yearRolloverWindow = 31 * 24 * time.Hour

type DateParser struct {
	loc *time.Location
	now func() time.Time
}

func NewDateParser() *DateParser {
	loc, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		loc = time.UTC
	}
	return &DateParser{loc: loc, now: time.Now}
}

// Parse парсит подпись слота ("tisdag 21 oktober 2026 kl 08:40") в time.Time (Europe/Stockholm)
func (dp *DateParser) Parse(label string) (time.Time, error) {
	tokens := strings.FieldsFunc(normalize.Fold(label), func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	if len(tokens) == 0 {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	now := dp.now().In(dp.loc)

	var (
		day, year    int
		month        time.Month
		hour, minute int
		haveDate     bool
		haveYear     bool
	)

	for i := 0; i < len(tokens); i++ {
		tok := strings.TrimSuffix(tokens[i], ".")

		switch {
		case svDays[tok] || tok == "kl":
			continue

		case tok == "idag" || tok == "imorgon" || (tok == "i" && i+1 < len(tokens) && tokens[i+1] == "morgon"):
			d := now
			if tok != "idag" {
				d = now.AddDate(0, 0, 1)
				if tok == "i" {
					i++
				}
			}
			year, month, day = d.Date()
			haveDate, haveYear = true, true

		case isoDateRe.MatchString(tok):
			m := isoDateRe.FindStringSubmatch(tok)
			year = atoi(m[1])
			month = time.Month(atoi(m[2]))
			day = atoi(m[3])
			haveDate, haveYear = true, true

		case numericDateRe.MatchString(tok):
			m := numericDateRe.FindStringSubmatch(tok)
			day = atoi(m[1])
			month = time.Month(atoi(m[2]))
			haveDate = true

		case clockRe.MatchString(tok):
			m := clockRe.FindStringSubmatch(tok)
			hour = atoi(m[1])
			minute = atoi(m[2])

		case yearRe.MatchString(tok):
			year = atoi(tok)
			haveYear = true

		case dayRe.MatchString(tok) && i+1 < len(tokens):
			name := strings.TrimSuffix(tokens[i+1], ".")
			mon, ok := svMonths[name]
			if !ok {
				// Число без месяца (номер места и т.п.)
				continue
			}
			day = atoi(tok)
			month = mon
			haveDate = true
			i++
		}
	}

	if !haveDate {
		return time.Time{}, fmt.Errorf("unable to parse date (SV): %s", label)
	}
	if month < time.January || month > time.December {
		return time.Time{}, fmt.Errorf("invalid month: %d", month)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid day: %d", day)
	}
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid time: %02d:%02d", hour, minute)
	}

	if !haveYear {
		year = now.Year()
		candidate := time.Date(year, month, day, hour, minute, 0, 0, dp.loc)
		if now.Sub(candidate) > yearRolloverWindow {
			year++
		}
	}

	t := time.Date(year, month, day, hour, minute, 0, 0, dp.loc)
	if t.Day() != day {
		// 31 november и т.п.: time.Date переносит на следующий месяц
		return time.Time{}, fmt.Errorf("invalid date: %d-%02d-%02d", year, month, day)
	}
	return t, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
