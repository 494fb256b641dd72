package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Site          SiteConfig          `yaml:"site"`
	Search        SearchConfig        `yaml:"search"`
	Browser       BrowserConfig       `yaml:"browser"`
	Pacing        PacingConfig        `yaml:"pacing"`
	Poll          PollConfig          `yaml:"poll"`
	Alert         AlertConfig         `yaml:"alert"`
	Notify        NotifyConfig        `yaml:"notify"`
	Journal       JournalConfig       `yaml:"journal"`
	SelectorsFile string              `yaml:"selectors_file"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type SiteConfig struct {
	LoginURL  string `yaml:"login_url"`
	SearchURL string `yaml:"search_url"`
}

type SearchConfig struct {
	ExaminationType string   `yaml:"examination_type"`
	Locations       []string `yaml:"locations"`
	VehicleType     string   `yaml:"vehicle_type"`
	AutoBook        bool     `yaml:"auto_book"`
}

type BrowserConfig struct {
	Headless        bool   `yaml:"headless"`
	ChromePath      string `yaml:"chrome_path"`
	UserDataDir     string `yaml:"user_data_dir"`
	NoSandbox       bool   `yaml:"no_sandbox"`
	WindowWidth     int    `yaml:"window_width"`
	WindowHeight    int    `yaml:"window_height"`
	ElementTimeoutS int    `yaml:"element_timeout_s"`
	OutcomeTimeoutS int    `yaml:"outcome_timeout_s"`
}

// PacingConfig: паузы после действий на странице, в миллисекундах
type PacingConfig struct {
	AfterNavigateMS         int `yaml:"after_navigate_ms"`
	AfterLoginStepMS        int `yaml:"after_login_step_ms"`
	AfterFieldMS            int `yaml:"after_field_ms"`
	AfterTypeMS             int `yaml:"after_type_ms"`
	BetweenLocationClicksMS int `yaml:"between_location_clicks_ms"`
	AfterFormMS             int `yaml:"after_form_ms"`
	BeforeCheckMS           int `yaml:"before_check_ms"`
}

type PollConfig struct {
	IntervalS              int  `yaml:"interval_s"`
	JitterPct              int  `yaml:"jitter_pct"`
	MaxAttempts            int  `yaml:"max_attempts"`
	MaxConsecutiveFailures int  `yaml:"max_consecutive_failures"`
	KeepWatching           bool `yaml:"keep_watching"`
}

type AlertConfig struct {
	BeepCount       int  `yaml:"beep_count"`
	BeepSpacingMS   int  `yaml:"beep_spacing_ms"`
	HoldBrowserOpen bool `yaml:"hold_browser_open"`
}

type NotifyConfig struct {
	Email EmailConfig `yaml:"email"`
	Redis RedisConfig `yaml:"redis"`
}

type EmailConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Host          string   `yaml:"host"`
	Port          int      `yaml:"port"`
	Username      string   `yaml:"username"`
	Password      string   `yaml:"password"`
	From          string   `yaml:"from"`
	To            []string `yaml:"to"`
	SubjectPrefix string   `yaml:"subject_prefix"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	MaxLen   int64  `yaml:"max_len"`
}

type JournalConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type ObservabilityConfig struct {
	LogPath    string `yaml:"log_path"`
	LogLevel   string `yaml:"log_level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default: значения по умолчанию, поверх которых декодируется YAML
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			LoginURL:  "https://fp.trafikverket.se/Boka/ng/",
			SearchURL: "https://fp.trafikverket.se/Boka/ng/search/xYihrXpXhCRiRl/5/0/0/0",
		},
		Browser: BrowserConfig{
			NoSandbox:       true,
			WindowWidth:     1920,
			WindowHeight:    1080,
			ElementTimeoutS: 30,
			OutcomeTimeoutS: 30,
		},
		Pacing: PacingConfig{
			AfterNavigateMS:         3000,
			AfterLoginStepMS:        2000,
			AfterFieldMS:            500,
			AfterTypeMS:             1500,
			BetweenLocationClicksMS: 200,
			AfterFormMS:             1000,
			BeforeCheckMS:           1000,
		},
		Poll: PollConfig{
			IntervalS: 60,
		},
		Alert: AlertConfig{
			BeepCount:       5,
			BeepSpacingMS:   300,
			HoldBrowserOpen: true,
		},
		Notify: NotifyConfig{
			Email: EmailConfig{Port: 587, SubjectPrefix: "[examslot]"},
			Redis: RedisConfig{Addr: "localhost:6379", Stream: "examslot:events", MaxLen: 1000},
		},
		Journal: JournalConfig{
			Driver:           "mssql",
			CommandTimeoutMS: 5000,
		},
		Observability: ObservabilityConfig{
			LogLevel:   "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if err := validateURL("site.login_url", c.Site.LoginURL); err != nil {
		return err
	}
	if err := validateURL("site.search_url", c.Site.SearchURL); err != nil {
		return err
	}
	if c.Search.ExaminationType == "" && len(c.Search.Locations) == 0 && c.Search.VehicleType == "" {
		return fmt.Errorf("search: at least one of examination_type, locations, vehicle_type is required")
	}
	for i, loc := range c.Search.Locations {
		if loc == "" {
			return fmt.Errorf("search.locations[%d] is empty", i)
		}
	}
	if c.Browser.ElementTimeoutS <= 0 {
		return fmt.Errorf("browser.element_timeout_s must be > 0")
	}
	if c.Browser.OutcomeTimeoutS <= 0 {
		return fmt.Errorf("browser.outcome_timeout_s must be > 0")
	}
	if c.Browser.WindowWidth <= 0 || c.Browser.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be > 0")
	}
	if c.Pacing.AfterNavigateMS < 0 || c.Pacing.AfterLoginStepMS < 0 || c.Pacing.AfterFieldMS < 0 ||
		c.Pacing.AfterTypeMS < 0 || c.Pacing.BetweenLocationClicksMS < 0 || c.Pacing.AfterFormMS < 0 ||
		c.Pacing.BeforeCheckMS < 0 {
		return fmt.Errorf("pacing values must be >= 0")
	}
	if c.Poll.IntervalS <= 0 {
		return fmt.Errorf("poll.interval_s must be > 0")
	}
	if c.Poll.JitterPct < 0 || c.Poll.JitterPct > 100 {
		return fmt.Errorf("poll.jitter_pct must be between 0 and 100")
	}
	if c.Poll.MaxAttempts < 0 {
		return fmt.Errorf("poll.max_attempts must be >= 0")
	}
	if c.Poll.MaxConsecutiveFailures < 0 {
		return fmt.Errorf("poll.max_consecutive_failures must be >= 0")
	}
	if c.Alert.BeepCount < 0 {
		return fmt.Errorf("alert.beep_count must be >= 0")
	}
	if c.Alert.BeepSpacingMS < 0 {
		return fmt.Errorf("alert.beep_spacing_ms must be >= 0")
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.Host == "" {
			return fmt.Errorf("notify.email.host is required when notify.email.enabled is true")
		}
		if c.Notify.Email.Port <= 0 {
			return fmt.Errorf("notify.email.port must be > 0")
		}
		if c.Notify.Email.From == "" {
			return fmt.Errorf("notify.email.from is required")
		}
		if len(c.Notify.Email.To) == 0 {
			return fmt.Errorf("notify.email.to is required")
		}
	}
	if c.Notify.Redis.Enabled {
		if c.Notify.Redis.Addr == "" {
			return fmt.Errorf("notify.redis.addr is required when notify.redis.enabled is true")
		}
		if c.Notify.Redis.Stream == "" {
			return fmt.Errorf("notify.redis.stream is required")
		}
		if c.Notify.Redis.MaxLen < 0 {
			return fmt.Errorf("notify.redis.max_len must be >= 0")
		}
	}
	if c.Journal.Enabled {
		if c.Journal.Driver != "mssql" && c.Journal.Driver != "postgres" {
			return fmt.Errorf("journal.driver must be 'mssql' or 'postgres'")
		}
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal.dsn is required when journal.enabled is true")
		}
		if c.Journal.CommandTimeoutMS <= 0 {
			return fmt.Errorf("journal.command_timeout_ms must be > 0")
		}
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.Observability.LogPath != "" && c.Observability.MaxSizeMB <= 0 {
		return fmt.Errorf("observability.max_size_mb must be > 0 when log_path is set")
	}
	return nil
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", key)
	}
	return nil
}

// Getters
func (c *Config) GetElementTimeout() time.Duration {
	return time.Duration(c.Browser.ElementTimeoutS) * time.Second
}

func (c *Config) GetOutcomeTimeout() time.Duration {
	return time.Duration(c.Browser.OutcomeTimeoutS) * time.Second
}

func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalS) * time.Second
}

func (c *Config) GetBeepSpacing() time.Duration {
	return time.Duration(c.Alert.BeepSpacingMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Journal.CommandTimeoutMS) * time.Millisecond
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
