package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examslot-watcher/internal/observability"
)

const formPage = `<!DOCTYPE html>
<html><body>
	<select id="examination-type-select">
		<option value="kunskapsprov">Kunskapsprov</option>
		<option value="korprov-b">Körprov B</option>
		<option value="korprov">Körprov</option>
	</select>
	<input id="location-search-input" value="gammal text">
	<div id="location-container">
		<button onclick="this.textContent='vald'">Järfälla</button>
		<button onclick="this.textContent='vald'">Järfälla Centrum</button>
	</div>
	<button onclick="document.getElementById('status').textContent='bekräftad'">Bekräfta</button>
	<div id="status"></div>
</body></html>`

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.False(t, opts.Headless)
	assert.True(t, opts.NoSandbox)
	assert.Equal(t, 30*time.Second, opts.ElementTimeout)
	assert.Equal(t, 1920, opts.WindowWidth)
	assert.Equal(t, 1080, opts.WindowHeight)
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "css:#vehicle-select", Target{CSS: "#vehicle-select"}.String())
	assert.Equal(t, "xpath://p", Target{XPath: "//p"}.String())
}

func TestMatchOptionIsExact(t *testing.T) {
	texts := []string{"Kunskapsprov", "Körprov B", "Körprov\u00A0", "Körprov"}

	got, ok := matchOption(texts, "Körprov")
	require.True(t, ok)
	assert.Equal(t, "Körprov\u00A0", got)

	got, ok = matchOption(texts, "körprov b")
	require.True(t, ok)
	assert.Equal(t, "Körprov B", got)

	_, ok = matchOption(texts, "prov")
	assert.False(t, ok)
}

func TestOptionPatternAnchorsWholeText(t *testing.T) {
	assert.Equal(t, `^\s*Körprov \(B\)\s*$`, optionPattern(" Körprov (B) "))
}

func TestSessionAgainstLocalPage(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	if _, found := launcher.LookPath(); !found {
		t.Skip("no Chrome/Chromium installed")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(formPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	opts := DefaultOptions()
	opts.Headless = true
	opts.ElementTimeout = 5 * time.Second

	s, err := Launch(ctx, opts, observability.NewDiscardLogger())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	url, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Contains(t, url, srv.URL)

	require.NoError(t, s.SelectOption(ctx, "#examination-type-select", "Körprov"))
	selectEl, err := s.page.Element("#examination-type-select")
	require.NoError(t, err)
	value, err := selectEl.Property("value")
	require.NoError(t, err)
	assert.Equal(t, "korprov", value.String())

	assert.Error(t, s.SelectOption(ctx, "#examination-type-select", "prov"))
	require.NoError(t, s.Input(ctx, "#location-search-input", "Järfälla"))

	clicked, err := s.ClickAll(ctx, "#location-container", "button", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, clicked)

	require.NoError(t, s.ClickButtonText(ctx, "Bekräfta"))

	idx, err := s.WaitFirst(ctx, 2*time.Second,
		Target{XPath: "//*[contains(text(), 'Hittar inga lediga tider')]"},
		Target{CSS: "#status"},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	html, err := s.HTML(ctx)
	require.NoError(t, err)
	assert.Contains(t, html, "bekräftad")
	assert.Contains(t, html, "vald")
}
