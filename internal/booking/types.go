package booking

import (
	"context"
	"time"

	"examslot-watcher/internal/browser"
	"examslot-watcher/internal/slots"
)

// Driver: операции над страницей, которые нужны клиенту (реализует browser.Session)
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Click(ctx context.Context, selector string) error
	ClickButtonText(ctx context.Context, labels ...string) error
	SelectOption(ctx context.Context, selector, optionText string) error
	Input(ctx context.Context, selector, text string) error
	ClickAll(ctx context.Context, container, tag string, pause time.Duration) (int, error)
	ClickNth(ctx context.Context, selector string, index int) error
	WaitFirst(ctx context.Context, timeout time.Duration, targets ...browser.Target) (int, error)
	HTML(ctx context.Context) (string, error)
}

// Prompter: общение с оператором (BankID проходится вручную)
type Prompter interface {
	Announce(message string)
	WaitForEnter(ctx context.Context, message string) error
}

// Criteria: критерии поиска; пустые поля пропускаются
type Criteria struct {
	ExaminationType string   `yaml:"examination_type" json:"examination_type,omitempty"`
	Locations       []string `yaml:"locations" json:"locations,omitempty"`
	VehicleType     string   `yaml:"vehicle_type" json:"vehicle_type,omitempty"`
}

type Site struct {
	LoginURL  string
	SearchURL string
}

type Selectors struct {
	DesktopLoginButton    string          `yaml:"desktop_login_button"`
	ContinueButtonLabels  []string        `yaml:"continue_button_labels"`
	ExaminationTypeSelect string          `yaml:"examination_type_select"`
	LocationButton        string          `yaml:"location_button"`
	LocationInput         string          `yaml:"location_input"`
	LocationContainer     string          `yaml:"location_container"`
	LocationOptionTag     string          `yaml:"location_option_tag"`
	ConfirmButtonLabels   []string        `yaml:"confirm_button_labels"`
	VehicleTypeSelect     string          `yaml:"vehicle_type_select"`
	SearchButtonLabels    []string        `yaml:"search_button_labels"`
	BookButtonLabels      []string        `yaml:"book_button_labels"`
	Results               slots.Selectors `yaml:"results"`
}

// DefaultSelectors: разметка fp.trafikverket.se на момент написания
func DefaultSelectors() Selectors {
	return Selectors{
		DesktopLoginButton:    "#desktop-login-button",
		ContinueButtonLabels:  []string{"Fortsätt"},
		ExaminationTypeSelect: "#examination-type-select",
		LocationButton:        "#select-location-search",
		LocationInput:         "#location-search-input",
		LocationContainer:     "#location-container",
		LocationOptionTag:     "button",
		ConfirmButtonLabels:   []string{"Bekräfta"},
		VehicleTypeSelect:     "#vehicle-select",
		BookButtonLabels:      []string{"Boka", "Bekräfta"},
		Results: slots.Selectors{
			NoTimesText:   "Hittar inga lediga tider som matchar dina val",
			SlotSelectors: []string{".appointment-slot"},
		},
	}
}

// Pacing: паузы после действий, чтобы успевали анимации страницы
type Pacing struct {
	AfterNavigate         time.Duration
	AfterLoginStep        time.Duration
	AfterField            time.Duration
	AfterType             time.Duration
	BetweenLocationClicks time.Duration
	AfterForm             time.Duration
	BeforeCheck           time.Duration
}

func DefaultPacing() Pacing {
	return Pacing{
		AfterNavigate:         3 * time.Second,
		AfterLoginStep:        2 * time.Second,
		AfterField:            500 * time.Millisecond,
		AfterType:             1500 * time.Millisecond,
		BetweenLocationClicks: 200 * time.Millisecond,
		AfterForm:             time.Second,
		BeforeCheck:           time.Second,
	}
}
