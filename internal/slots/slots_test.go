package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedParser(t *testing.T) *DateParser {
	t.Helper()
	dp := NewDateParser()
	dp.now = func() time.Time {
		return time.Date(2026, 10, 17, 12, 0, 0, 0, dp.loc)
	}
	return dp
}

func TestDateParserSwedish(t *testing.T) {
	dp := fixedParser(t)

	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"tisdag 21 oktober 2026 kl 08:40", time.Date(2026, 10, 21, 8, 40, 0, 0, dp.loc), false},
		{"21 okt 08.40", time.Date(2026, 10, 21, 8, 40, 0, 0, dp.loc), false},
		{"2026-11-03 13:10", time.Date(2026, 11, 3, 13, 10, 0, 0, dp.loc), false},
		{"3/11 kl. 09:20", time.Date(2026, 11, 3, 9, 20, 0, 0, dp.loc), false},
		{"Idag 15:00", time.Date(2026, 10, 17, 15, 0, 0, 0, dp.loc), false},
		{"i morgon 07:30", time.Date(2026, 10, 18, 7, 30, 0, 0, dp.loc), false},
		{"lördag, 10 januari 08:00", time.Date(2027, 1, 10, 8, 0, 0, 0, dp.loc), false},
		{"20 september 10:00", time.Date(2026, 9, 20, 10, 0, 0, 0, dp.loc), false},
		{"Plats 2, 5 december 08:40-09:25", time.Date(2026, 12, 5, 8, 40, 0, 0, dp.loc), false},
		{"31 november 2026", time.Time{}, true},
		{"21 oktober 25:00", time.Time{}, true},
		{"Körprov", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		result, err := dp.Parse(tt.input)
		if tt.wantErr {
			assert.Error(t, err, tt.input)
			continue
		}
		require.NoError(t, err, tt.input)
		assert.True(t, result.Equal(tt.expected), "Parse(%q) = %v, want %v", tt.input, result, tt.expected)
	}
}

var testSelectors = Selectors{
	NoTimesText:           "Hittar inga lediga tider som matchar dina val",
	SlotSelectors:         []string{".appointment-slot", "[data-slot]"},
	SlotTimeSelectors:     []string{".slot-time"},
	SlotLocationSelectors: []string{".slot-location"},
}

func TestParseNoTimes(t *testing.T) {
	html := `<html><body>
		<div class="alert">
			Hittar inga lediga tider som
			matchar dina val
		</div>
	</body></html>`

	result, err := Parse(html, testSelectors, fixedParser(t))
	require.NoError(t, err)

	assert.True(t, result.NoTimes)
	assert.False(t, result.Available())
	assert.Empty(t, result.Slots)
}

func TestParseSlots(t *testing.T) {
	html := `<html><body>
		<div class="appointment-slot">
			<span class="slot-time">tisdag 21 oktober 2026 08:40</span>
			<span class="slot-location">Järfälla</span>
		</div>
		<div class="appointment-slot">
			<span class="slot-time">onsdag 22 oktober 2026 13:10</span>
			<span class="slot-location">Sollentuna</span>
		</div>
		<div class="appointment-slot">
			<span class="slot-time">tisdag 21 oktober 2026 08:40</span>
			<span class="slot-location">Järfälla</span>
		</div>
		<div class="appointment-slot"><span class="slot-time">Ledig tid</span></div>
	</body></html>`

	dp := fixedParser(t)
	result, err := Parse(html, testSelectors, dp)
	require.NoError(t, err)

	assert.False(t, result.NoTimes)
	assert.True(t, result.Available())
	require.Len(t, result.Slots, 3)

	first := result.Slots[0]
	assert.Equal(t, "tisdag 21 oktober 2026 08:40", first.Label)
	assert.Equal(t, "Järfälla", first.Location)
	assert.True(t, first.HasStart)
	assert.True(t, first.Start.Equal(time.Date(2026, 10, 21, 8, 40, 0, 0, dp.loc)))

	assert.Equal(t, "Sollentuna", result.Slots[1].Location)
	assert.False(t, result.Slots[2].HasStart)

	assert.Equal(t, []string{
		"tisdag 21 oktober 2026 08:40",
		"onsdag 22 oktober 2026 13:10",
		"Ledig tid",
	}, result.Labels())
}

func TestParseFallsBackToNextSelector(t *testing.T) {
	html := `<html><body>
		<button data-slot="1">fredag 24 oktober 2026 kl 09:20</button>
	</body></html>`

	result, err := Parse(html, testSelectors, nil)
	require.NoError(t, err)

	require.Len(t, result.Slots, 1)
	assert.Equal(t, "fredag 24 oktober 2026 kl 09:20", result.Slots[0].Label)
	assert.Empty(t, result.Slots[0].Location)
	assert.False(t, result.Slots[0].HasStart)
}

func TestParseAvailableWithoutSlotElements(t *testing.T) {
	result, err := Parse(`<html><body><h1>Välj tid</h1></body></html>`, testSelectors, nil)
	require.NoError(t, err)

	assert.True(t, result.Available())
	assert.Empty(t, result.Slots)
}
