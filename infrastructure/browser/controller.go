package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// PlaywrightController drives Chromium through playwright.
type PlaywrightController struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page
	pages      []playwright.Page
	pagesMutex sync.Mutex
	statePath  string
	logger     *logrus.Logger
}

// NewPlaywrightController - launches Chromium, restoring the saved storage state
func NewPlaywrightController(opts Options, logger *logrus.Logger) (*PlaywrightController, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	contextOptions := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 800,
		},
		JavaScriptEnabled: playwright.Bool(true),
		IgnoreHttpsErrors: playwright.Bool(true),
		UserAgent:         playwright.String("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	}

	if opts.StatePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.StatePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		if data, err := os.ReadFile(opts.StatePath); err == nil {
			var storageState playwright.StorageState
			if err := json.Unmarshal(data, &storageState); err == nil {
				contextOptions.StorageState = storageState.ToOptionalStorageState()
			} else {
				logger.WithError(err).Warn("Ignoring unreadable browser state")
			}
		}
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo.Milliseconds())),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
			"--disable-infobars",
			"--disable-notifications",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(contextOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	c := &PlaywrightController{
		pw:        pw,
		browser:   browser,
		context:   bctx,
		page:      page,
		pages:     []playwright.Page{page},
		statePath: opts.StatePath,
		logger:    logger,
	}
	c.track(page)

	// quiz players open the activity in a new tab; follow it
	bctx.OnPage(func(newPage playwright.Page) {
		c.pagesMutex.Lock()
		c.pages = append(c.pages, newPage)
		c.page = newPage
		c.pagesMutex.Unlock()
		c.track(newPage)
		logger.WithField("url", newPage.URL()).Info("Switched to new tab")
	})

	return c, nil
}

func (c *PlaywrightController) track(page playwright.Page) {
	page.OnDialog(func(dialog playwright.Dialog) {
		dialog.Accept()
	})
	page.OnClose(func(closedPage playwright.Page) {
		c.pagesMutex.Lock()
		defer c.pagesMutex.Unlock()

		for i, p := range c.pages {
			if p == closedPage {
				c.pages = append(c.pages[:i], c.pages[i+1:]...)
				break
			}
		}
		if c.page == closedPage && len(c.pages) > 0 {
			c.page = c.pages[len(c.pages)-1]
		}
	})
}

func (c *PlaywrightController) current() playwright.Page {
	c.pagesMutex.Lock()
	defer c.pagesMutex.Unlock()
	return c.page
}

// Navigate - opens url in the current tab
func (c *PlaywrightController) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.current().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(60000),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Document - returns a query root that always follows the current tab
func (c *PlaywrightController) Document() interfaces.Document {
	return &pwDocument{ctrl: c}
}

// OnTraffic - reports every request and response of the browser context,
// including those of frames and later tabs
func (c *PlaywrightController) OnTraffic(handler func(entities.Traffic)) {
	c.context.OnRequest(func(req playwright.Request) {
		handler(entities.Traffic{URL: req.URL(), Method: req.Method()})
	})
	c.context.OnResponse(func(resp playwright.Response) {
		t := entities.Traffic{
			URL:      resp.URL(),
			Method:   resp.Request().Method(),
			Response: true,
			Status:   resp.Status(),
			Body:     resp.Body,
		}
		// Body is a round trip to the driver; keep it off the event goroutine
		go handler(t)
	})
}

// CookieJar - exposes the context cookies to net/http clients
func (c *PlaywrightController) CookieJar() http.CookieJar {
	return &pwCookieJar{ctrl: c}
}

// SaveState - saves browser storage state to persistent storage
func (c *PlaywrightController) SaveState() error {
	if c.context == nil || c.statePath == "" {
		return nil
	}
	if _, err := c.context.StorageState(c.statePath); err != nil {
		if isClosedErr(err) {
			return nil
		}
		return fmt.Errorf("failed to save browser state: %w", err)
	}
	return nil
}

// Close - saves state and shuts the browser down
func (c *PlaywrightController) Close() error {
	var closeErr error
	if err := c.SaveState(); err != nil {
		closeErr = err
	}

	if c.context != nil {
		if err := c.context.Close(); err != nil && !isClosedErr(err) {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to close context: %w", err))
		}
		c.context = nil
	}
	if c.browser != nil {
		if err := c.browser.Close(); err != nil && !isClosedErr(err) {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to close browser: %w", err))
		}
		c.browser = nil
	}
	if c.pw != nil {
		if err := c.pw.Stop(); err != nil {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to stop playwright: %w", err))
		}
		c.pw = nil
	}
	return closeErr
}

func joinErr(prev, err error) error {
	if prev == nil {
		return err
	}
	return fmt.Errorf("%v; %w", prev, err)
}

type pwCookieJar struct {
	ctrl *PlaywrightController
}

func (j *pwCookieJar) Cookies(u *url.URL) []*http.Cookie {
	if j.ctrl.context == nil {
		return nil
	}
	cookies, err := j.ctrl.context.Cookies(u.String())
	if err != nil {
		j.ctrl.logger.WithError(err).Debug("Failed to read browser cookies")
		return nil
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: ck.Path, Domain: ck.Domain, Secure: ck.Secure})
	}
	return out
}

func (j *pwCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if j.ctrl.context == nil || len(cookies) == 0 {
		return
	}
	add := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, ck := range cookies {
		add = append(add, playwright.OptionalCookie{
			Name:  ck.Name,
			Value: ck.Value,
			URL:   playwright.String(u.Scheme + "://" + u.Host),
		})
	}
	if err := j.ctrl.context.AddCookies(add); err != nil {
		j.ctrl.logger.WithError(err).Debug("Failed to store cookies in browser")
	}
}

var _ interfaces.Browser = (*PlaywrightController)(nil)
