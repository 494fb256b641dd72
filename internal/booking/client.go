package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"examslot-watcher/internal/browser"
	"examslot-watcher/internal/observability"
	"examslot-watcher/internal/slots"
)

var (
	ErrLocationNotFound = errors.New("no location matched the search text")
	ErrOutcomeUnknown   = errors.New("results page could not be read")
)

const (
	outcomeNoTimes = iota
	outcomeSlots
	outcomeUnmatched
)

type Options struct {
	Site           Site
	Selectors      Selectors
	Pacing         Pacing
	OutcomeTimeout time.Duration
}

// Client: сессия бронирования поверх одной страницы браузера
type Client struct {
	driver   Driver
	prompter Prompter
	opts     Options
	dates    *slots.DateParser
	logger   *observability.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewClient(d Driver, p Prompter, opts Options, logger *observability.Logger) *Client {
	if opts.OutcomeTimeout <= 0 {
		opts.OutcomeTimeout = 30 * time.Second
	}
	return &Client{
		driver:   d,
		prompter: p,
		opts:     opts,
		dates:    slots.NewDateParser(),
		logger:   logger.With("component", "booking"),
		sleep:    sleepCtx,
	}
}

// Login открывает страницу входа и ждёт, пока оператор пройдёт BankID
func (c *Client) Login(ctx context.Context) error {
	c.logger.Info("Starting login process", "url", c.opts.Site.LoginURL)

	if err := c.driver.Navigate(ctx, c.opts.Site.LoginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := c.sleep(ctx, c.opts.Pacing.AfterLoginStep); err != nil {
		return err
	}

	if err := c.driver.Click(ctx, c.opts.Selectors.DesktopLoginButton); err != nil {
		return fmt.Errorf("click desktop login button: %w", err)
	}
	c.logger.Info("Clicked login button")
	if err := c.sleep(ctx, c.opts.Pacing.AfterLoginStep); err != nil {
		return err
	}

	if err := c.driver.ClickButtonText(ctx, c.opts.Selectors.ContinueButtonLabels...); err != nil {
		return fmt.Errorf("click continue button: %w", err)
	}
	c.logger.Info("Clicked continue button")
	if err := c.sleep(ctx, c.opts.Pacing.AfterLoginStep); err != nil {
		return err
	}

	c.prompter.Announce("PLEASE COMPLETE BANKID AUTHENTICATION ON YOUR DEVICE")
	if err := c.prompter.WaitForEnter(ctx, "Press ENTER after you have completed BankID authentication..."); err != nil {
		return fmt.Errorf("wait for BankID: %w", err)
	}
	if err := c.sleep(ctx, c.opts.Pacing.AfterLoginStep); err != nil {
		return err
	}

	c.logger.Info("Login completed", "url", c.PageURL(ctx))

	return c.OpenSearch(ctx)
}

// OpenSearch открывает (или перезагружает) страницу поиска
func (c *Client) OpenSearch(ctx context.Context) error {
	if err := c.driver.Navigate(ctx, c.opts.Site.SearchURL); err != nil {
		return fmt.Errorf("open search page: %w", err)
	}
	if err := c.sleep(ctx, c.opts.Pacing.AfterNavigate); err != nil {
		return err
	}
	c.logger.Debug("Search page opened", "url", c.PageURL(ctx))
	return nil
}

// FillSearchForm заполняет форму поиска в порядке: тип экзамена, места, тип машины
func (c *Client) FillSearchForm(ctx context.Context, criteria Criteria) error {
	sel := c.opts.Selectors

	if criteria.ExaminationType != "" {
		if err := c.driver.SelectOption(ctx, sel.ExaminationTypeSelect, criteria.ExaminationType); err != nil {
			return fmt.Errorf("set examination type: %w", err)
		}
		c.logger.Info("Examination type set", "value", criteria.ExaminationType)
		if err := c.sleep(ctx, c.opts.Pacing.AfterField); err != nil {
			return err
		}
	}

	if len(criteria.Locations) > 0 {
		if err := c.selectLocations(ctx, criteria.Locations); err != nil {
			return err
		}
	}

	if criteria.VehicleType != "" {
		if err := c.driver.SelectOption(ctx, sel.VehicleTypeSelect, criteria.VehicleType); err != nil {
			return fmt.Errorf("set vehicle type: %w", err)
		}
		c.logger.Info("Vehicle type set", "value", criteria.VehicleType)
		if err := c.sleep(ctx, c.opts.Pacing.AfterField); err != nil {
			return err
		}
	}

	if len(sel.SearchButtonLabels) > 0 {
		if err := c.driver.ClickButtonText(ctx, sel.SearchButtonLabels...); err != nil {
			return fmt.Errorf("click search button: %w", err)
		}
		c.logger.Info("Search submitted")
	}

	c.logger.Info("All form fields filled")
	return c.sleep(ctx, c.opts.Pacing.AfterForm)
}

// selectLocations открывает попап мест, для каждого места вводит текст и кликает все найденные кнопки
func (c *Client) selectLocations(ctx context.Context, locations []string) error {
	sel := c.opts.Selectors

	if err := c.driver.Click(ctx, sel.LocationButton); err != nil {
		return fmt.Errorf("open location popup: %w", err)
	}
	if err := c.sleep(ctx, c.opts.Pacing.AfterField); err != nil {
		return err
	}

	for _, location := range locations {
		if err := c.driver.Input(ctx, sel.LocationInput, location); err != nil {
			return fmt.Errorf("type location %q: %w", location, err)
		}
		if err := c.sleep(ctx, c.opts.Pacing.AfterType); err != nil {
			return err
		}

		clicked, err := c.driver.ClickAll(ctx, sel.LocationContainer, sel.LocationOptionTag, c.opts.Pacing.BetweenLocationClicks)
		if err != nil {
			return fmt.Errorf("select location %q: %w", location, err)
		}
		if clicked == 0 {
			return fmt.Errorf("%w: %q", ErrLocationNotFound, location)
		}
		c.logger.Info("Location selected", "location", location, "buttons_clicked", clicked)
	}

	if err := c.sleep(ctx, c.opts.Pacing.AfterField); err != nil {
		return err
	}
	if err := c.driver.ClickButtonText(ctx, sel.ConfirmButtonLabels...); err != nil {
		return fmt.Errorf("confirm locations: %w", err)
	}
	c.logger.Info("Locations confirmed", "locations", strings.Join(locations, ", "))

	return c.sleep(ctx, c.opts.Pacing.AfterField)
}

// CheckAvailability ждёт либо сообщение "нет времени", либо слот, и разбирает страницу
func (c *Client) CheckAvailability(ctx context.Context) (*slots.Result, error) {
	if err := c.sleep(ctx, c.opts.Pacing.BeforeCheck); err != nil {
		return nil, err
	}

	res := c.opts.Selectors.Results
	targets := []browser.Target{{XPath: textXPath(res.NoTimesText)}}
	for _, s := range res.SlotSelectors {
		targets = append(targets, browser.Target{CSS: s})
	}

	outcome := outcomeSlots
	idx, waitErr := c.driver.WaitFirst(ctx, c.opts.OutcomeTimeout, targets...)
	switch {
	case waitErr != nil && ctx.Err() != nil:
		return nil, ctx.Err()
	case waitErr != nil:
		// Ни сообщения, ни известного слота: решает текст страницы
		outcome = outcomeUnmatched
	case idx == 0:
		outcome = outcomeNoTimes
	}

	html, err := c.driver.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutcomeUnknown, err)
	}

	result, err := slots.Parse(html, res, c.dates)
	if err != nil {
		return nil, err
	}
	if outcome == outcomeNoTimes && !result.NoTimes {
		// Сообщение было, но исчезло к моменту чтения страницы
		result.NoTimes = true
	}
	if outcome == outcomeUnmatched && result.Available() {
		c.logger.Warn("No slot selector matched, treating missing no-times message as available",
			"slot_selectors", strings.Join(res.SlotSelectors, ", "),
			"wait_error", waitErr.Error(),
		)
	}

	if result.Available() {
		c.logger.Info("Available times found", "slots", len(result.Slots))
	} else {
		c.logger.Info("No available times found")
	}

	return result, nil
}

// BookSlot кликает слот по индексу и подтверждает бронь
func (c *Client) BookSlot(ctx context.Context, index int) error {
	res := c.opts.Selectors.Results
	if len(res.SlotSelectors) == 0 {
		return errors.New("no slot selectors configured")
	}

	var clickErr error
	for _, s := range res.SlotSelectors {
		if clickErr = c.driver.ClickNth(ctx, s, index); clickErr == nil {
			break
		}
	}
	if clickErr != nil {
		return fmt.Errorf("click slot %d: %w", index, clickErr)
	}
	if err := c.sleep(ctx, c.opts.Pacing.AfterLoginStep); err != nil {
		return err
	}

	if err := c.driver.ClickButtonText(ctx, c.opts.Selectors.BookButtonLabels...); err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}

	c.logger.Info("Appointment booked", "slot_index", index)
	return nil
}

func (c *Client) PageURL(ctx context.Context) string {
	u, err := c.driver.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return u
}

// textXPath: элемент, собственный текст которого содержит s
func textXPath(s string) string {
	return "//*[contains(text(), " + xpathLiteral(s) + ")]"
}

// xpathLiteral экранирует строку для XPath 1.0 (там нет escape-последовательностей)
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
