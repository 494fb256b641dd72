package browser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"examslot-watcher/internal/normalize"
	"examslot-watcher/internal/observability"
)

// Options: параметры запуска браузера
type Options struct {
	Headless       bool
	ChromePath     string // пусто: ищем браузер в системе
	UserDataDir    string
	NoSandbox      bool
	WindowWidth    int
	WindowHeight   int
	ElementTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Headless:       false,
		NoSandbox:      true,
		WindowWidth:    1920,
		WindowHeight:   1080,
		ElementTimeout: 30 * time.Second,
	}
}

// Target: элемент (CSS или XPath), появления которого ждём
type Target struct {
	CSS   string
	XPath string
}

func (t Target) String() string {
	if t.XPath != "" {
		return "xpath:" + t.XPath
	}
	return "css:" + t.CSS
}

// Session: один браузер Rod и его единственная вкладка
type Session struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	timeout     time.Duration
	keepProfile bool
	logger      *observability.Logger
}

// Launch запускает Chrome/Chromium и открывает пустую вкладку
func Launch(ctx context.Context, opts Options, logger *observability.Logger) (*Session, error) {
	if opts.ElementTimeout <= 0 {
		opts.ElementTimeout = DefaultOptions().ElementTimeout
	}

	l, controlURL, err := launch(ctx, opts, opts.ChromePath)
	if err != nil && opts.ChromePath != "" {
		logger.Warn("Failed to launch configured browser, trying system browser",
			"chrome_path", opts.ChromePath,
			"error", err.Error(),
		)
		l, controlURL, err = launch(ctx, opts, "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	logger.Info("Browser started",
		"headless", opts.Headless,
		"chrome_path", l.Get(flags.Bin),
	)

	return &Session{
		launcher:    l,
		browser:     browser,
		page:        page,
		timeout:     opts.ElementTimeout,
		keepProfile: opts.UserDataDir != "",
		logger:      logger,
	}, nil
}

func launch(ctx context.Context, opts Options, bin string) (*launcher.Launcher, string, error) {
	if bin == "" {
		if path, found := launcher.LookPath(); found {
			bin = path
		}
	}

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("start-maximized").
		Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))

	if bin != "" {
		l = l.Bin(bin)
	}
	if opts.UserDataDir != "" {
		l = l.UserDataDir(opts.UserDataDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, "", err
	}
	return l, u, nil
}

// bounded: страница с контекстом вызова и таймаутом ожидания элементов.
// Вызывающий обязан сделать defer p.CancelTimeout().
func (s *Session) bounded(ctx context.Context) *rod.Page {
	return s.page.Context(ctx).Timeout(s.timeout)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	p := s.bounded(ctx)
	defer p.CancelTimeout()

	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// Click ждёт видимый элемент, прокручивает к нему и кликает
func (s *Session) Click(ctx context.Context, selector string) error {
	p := s.bounded(ctx)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	return clickElement(el, selector)
}

// ClickButtonText кликает первую кнопку, текст которой содержит одну из подписей
func (s *Session) ClickButtonText(ctx context.Context, labels ...string) error {
	if len(labels) == 0 {
		return errors.New("no button labels given")
	}

	quoted := make([]string, 0, len(labels))
	for _, label := range labels {
		quoted = append(quoted, regexp.QuoteMeta(label))
	}
	pattern := "/" + strings.Join(quoted, "|") + "/"

	p := s.bounded(ctx)
	defer p.CancelTimeout()

	el, err := p.ElementR("button", pattern)
	if err != nil {
		return fmt.Errorf("button %q not found: %w", strings.Join(labels, "|"), err)
	}
	return clickElement(el, "button "+pattern)
}

// SelectOption выбирает option, видимый текст которого равен optionText.
// Подстрока не считается совпадением: "Körprov B" не подходит для "Körprov".
func (s *Session) SelectOption(ctx context.Context, selector, optionText string) error {
	p := s.bounded(ctx)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("select %s not found: %w", selector, err)
	}
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll to %s: %w", selector, err)
	}

	options, err := el.Elements("option")
	if err != nil {
		return fmt.Errorf("list options of %s: %w", selector, err)
	}
	texts := make([]string, 0, len(options))
	for _, o := range options {
		text, err := o.Text()
		if err != nil {
			return fmt.Errorf("read option of %s: %w", selector, err)
		}
		texts = append(texts, text)
	}

	exact, ok := matchOption(texts, optionText)
	if !ok {
		return fmt.Errorf("option %q not found in %s", optionText, selector)
	}

	if err := el.Select([]string{optionPattern(exact)}, true, rod.SelectorTypeRegex); err != nil {
		return fmt.Errorf("select %q in %s: %w", optionText, selector, err)
	}
	return nil
}

// matchOption возвращает текст первой опции, равной want после нормализации
func matchOption(texts []string, want string) (string, bool) {
	for _, text := range texts {
		if normalize.Equal(text, want) {
			return text, true
		}
	}
	return "", false
}

// optionPattern: регулярка на весь innerText опции, а не на подстроку
func optionPattern(text string) string {
	return `^\s*` + regexp.QuoteMeta(strings.TrimSpace(text)) + `\s*$`
}

// Input очищает поле и вводит текст
func (s *Session) Input(ctx context.Context, selector, text string) error {
	p := s.bounded(ctx)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return fmt.Errorf("input %s not found: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}
	return nil
}

// ClickAll кликает все элементы tag внутри контейнера.
// Ошибки отдельных кликов логируются и пропускаются.
func (s *Session) ClickAll(ctx context.Context, container, tag string, pause time.Duration) (int, error) {
	p := s.bounded(ctx)
	defer p.CancelTimeout()

	box, err := p.Element(container)
	if err != nil {
		return 0, fmt.Errorf("container %s not found: %w", container, err)
	}

	elements, err := box.Elements(tag)
	if err != nil {
		return 0, fmt.Errorf("list %s in %s: %w", tag, container, err)
	}

	clicked := 0
	for i, el := range elements {
		if err := clickElement(el, tag); err != nil {
			s.logger.Warn("Could not click element",
				"container", container,
				"index", i+1,
				"error", err.Error(),
			)
			continue
		}
		clicked++

		if pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return clicked, ctx.Err()
			}
		}
	}

	return clicked, nil
}

func (s *Session) ClickNth(ctx context.Context, selector string, index int) error {
	p := s.bounded(ctx)
	defer p.CancelTimeout()

	// Element ждёт появления первого совпадения, Elements: нет
	if _, err := p.Element(selector); err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	elements, err := p.Elements(selector)
	if err != nil {
		return fmt.Errorf("list %s: %w", selector, err)
	}
	if index < 0 || index >= len(elements) {
		return fmt.Errorf("element %s[%d] out of range (found %d)", selector, index, len(elements))
	}
	return clickElement(elements[index], selector)
}

// WaitFirst ждёт, какой из элементов появится первым, и возвращает его индекс
func (s *Session) WaitFirst(ctx context.Context, timeout time.Duration, targets ...Target) (int, error) {
	if len(targets) == 0 {
		return -1, errors.New("no targets to wait for")
	}

	matched := -1
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	race := p.Race()
	for i, t := range targets {
		idx := i
		if t.XPath != "" {
			race = race.ElementX(t.XPath)
		} else {
			race = race.Element(t.CSS)
		}
		race = race.Handle(func(*rod.Element) error {
			matched = idx
			return nil
		})
	}

	if _, err := race.Do(); err != nil {
		return -1, fmt.Errorf("none of %d targets appeared: %w", len(targets), err)
	}
	return matched, nil
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	p := s.bounded(ctx)
	defer p.CancelTimeout()

	el, err := p.Element("html")
	if err != nil {
		return "", err
	}
	return el.HTML()
}

// Close закрывает страницу, браузер и процесс
func (s *Session) Close() error {
	var errs []error

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close page: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	// Cleanup удаляет user-data-dir, поэтому профиль пользователя не трогаем
	if s.launcher != nil && !s.keepProfile {
		s.launcher.Cleanup()
	}

	return errors.Join(errs...)
}

func clickElement(el *rod.Element, what string) error {
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll to %s: %w", what, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait visible %s: %w", what, err)
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", what, err)
	}
	return nil
}
