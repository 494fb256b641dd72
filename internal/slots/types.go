package slots

import "time"

type Slot struct {
	Label    string    `json:"label"`
	Location string    `json:"location,omitempty"`
	Start    time.Time `json:"start,omitempty"`
	HasStart bool      `json:"has_start"`
}

type Result struct {
	NoTimes bool
	Slots   []Slot
}

// Available: сообщения "нет времени" на странице нет.
// Слоты могли не распарситься, но сайт их показывает.
func (r *Result) Available() bool {
	return !r.NoTimes
}

func (r *Result) Labels() []string {
	labels := make([]string, 0, len(r.Slots))
	for _, s := range r.Slots {
		labels = append(labels, s.Label)
	}
	return labels
}

type Selectors struct {
	NoTimesText           string   `yaml:"no_times_text"`
	SlotSelectors         []string `yaml:"slot_selectors"`
	SlotTimeSelectors     []string `yaml:"slot_time_selectors"`
	SlotLocationSelectors []string `yaml:"slot_location_selectors"`
}
