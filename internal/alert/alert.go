package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"examslot-watcher/internal/booking"
	"examslot-watcher/internal/normalize"
	"examslot-watcher/internal/slots"
)

const maxSubjectChars = 120

// Event: найдены свободные времена
type Event struct {
	RunID       string           `json:"run_id"`
	Attempt     int              `json:"attempt"`
	FoundAt     time.Time        `json:"found_at"`
	Criteria    booking.Criteria `json:"criteria"`
	Slots       []slots.Slot     `json:"slots"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	PageURL     string           `json:"page_url,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Subject: короткая строка для темы письма и логов
func (e Event) Subject() string {
	s := "Lediga provtider hittade"
	if len(e.Criteria.Locations) > 0 {
		s += ": " + strings.Join(e.Criteria.Locations, ", ")
	}
	return normalize.TruncatePreview(s, maxSubjectChars)
}

// Body: текстовая сводка события
func (e Event) Body() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Available exam times found at %s (attempt %d).\n\n",
		e.FoundAt.Format("2006-01-02 15:04:05"), e.Attempt)

	if e.Criteria.ExaminationType != "" {
		fmt.Fprintf(&b, "Examination: %s\n", e.Criteria.ExaminationType)
	}
	if len(e.Criteria.Locations) > 0 {
		fmt.Fprintf(&b, "Locations:   %s\n", strings.Join(e.Criteria.Locations, ", "))
	}
	if e.Criteria.VehicleType != "" {
		fmt.Fprintf(&b, "Vehicle:     %s\n", e.Criteria.VehicleType)
	}

	if len(e.Slots) == 0 {
		b.WriteString("\nThe no-times message is gone; check the page for details.\n")
	} else {
		b.WriteString("\nSlots:\n")
		for _, s := range e.Slots {
			line := s.Label
			if s.Location != "" && !normalize.Contains(line, s.Location) {
				line += " (" + s.Location + ")"
			}
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}

	if e.PageURL != "" {
		fmt.Fprintf(&b, "\n%s\n", e.PageURL)
	}
	if e.RunID != "" {
		fmt.Fprintf(&b, "\nrun %s\n", e.RunID)
	}

	return b.String()
}

// Multi рассылает событие по всем каналам по очереди.
// Ошибка одного канала не останавливает остальные.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
