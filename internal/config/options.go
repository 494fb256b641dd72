package config

import (
	"examslot-watcher/internal/booking"
	"examslot-watcher/internal/browser"
	"examslot-watcher/internal/observability"
)

// Сборка опций пакетов из секций конфига

func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:       c.Browser.Headless,
		ChromePath:     c.Browser.ChromePath,
		UserDataDir:    c.Browser.UserDataDir,
		NoSandbox:      c.Browser.NoSandbox,
		WindowWidth:    c.Browser.WindowWidth,
		WindowHeight:   c.Browser.WindowHeight,
		ElementTimeout: c.GetElementTimeout(),
	}
}

func (c *Config) BookingOptions(selectors booking.Selectors) booking.Options {
	return booking.Options{
		Site: booking.Site{
			LoginURL:  c.Site.LoginURL,
			SearchURL: c.Site.SearchURL,
		},
		Selectors: selectors,
		Pacing: booking.Pacing{
			AfterNavigate:         ms(c.Pacing.AfterNavigateMS),
			AfterLoginStep:        ms(c.Pacing.AfterLoginStepMS),
			AfterField:            ms(c.Pacing.AfterFieldMS),
			AfterType:             ms(c.Pacing.AfterTypeMS),
			BetweenLocationClicks: ms(c.Pacing.BetweenLocationClicksMS),
			AfterForm:             ms(c.Pacing.AfterFormMS),
			BeforeCheck:           ms(c.Pacing.BeforeCheckMS),
		},
		OutcomeTimeout: c.GetOutcomeTimeout(),
	}
}

func (c *Config) Criteria() booking.Criteria {
	return booking.Criteria{
		ExaminationType: c.Search.ExaminationType,
		Locations:       append([]string(nil), c.Search.Locations...),
		VehicleType:     c.Search.VehicleType,
	}
}

func (c *Config) LoggerOptions() observability.Options {
	return observability.Options{
		LogPath:    c.Observability.LogPath,
		LogLevel:   c.Observability.LogLevel,
		MaxSizeMB:  c.Observability.MaxSizeMB,
		MaxBackups: c.Observability.MaxBackups,
		MaxAgeDays: c.Observability.MaxAgeDays,
	}
}
