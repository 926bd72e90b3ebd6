package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quiz_solver/domain/entities"
	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/chrome"
)

const chromeDriverPort = 9515

// resourceScript lists every resource URL the page has loaded so far.
const resourceScript = `return performance.getEntriesByType('resource').map(function (e) { return e.name; });`

// SeleniumController drives Chrome through chromedriver. WebDriver has no
// network events, so traffic is discovered by polling resource timings.
type SeleniumController struct {
	wd          selenium.WebDriver
	service     *selenium.Service
	logger      *logrus.Logger
	userDataDir string

	mu       sync.Mutex
	handlers []func(entities.Traffic)
	polling  bool
	cancel   context.CancelFunc
}

// findChromeDriver - finds ChromeDriver executable path
func findChromeDriver(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, nil
		}
	}

	commonPaths := []string{
		"/usr/local/bin/chromedriver",
		"/usr/bin/chromedriver",
		"/opt/homebrew/bin/chromedriver",
		filepath.Join(os.Getenv("HOME"), "bin", "chromedriver"),
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if path, err := exec.LookPath("chromedriver"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("chromedriver not found, install it or set BROWSER_DRIVER_PATH")
}

// findChromeBinary - finds Chrome/Chromium browser executable path
func findChromeBinary(configured string) string {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured
		}
	}

	chromePaths := []string{
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	}
	for _, path := range chromePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// NewSeleniumController - starts chromedriver and opens a Chrome session
// with a persistent profile so the platform login survives restarts
func NewSeleniumController(opts Options, logger *logrus.Logger) (*SeleniumController, error) {
	driverPath, err := findChromeDriver(opts.DriverPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find chromedriver: %w", err)
	}
	logger.WithField("path", driverPath).Info("Using ChromeDriver")

	userDataDir := opts.UserDataDir
	if userDataDir != "" {
		if err := os.MkdirAll(userDataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create user data directory: %w", err)
		}
	}

	service, err := selenium.NewChromeDriverService(driverPath, chromeDriverPort)
	if err != nil {
		return nil, fmt.Errorf("failed to start chromedriver: %w", err)
	}

	args := []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
	}
	if userDataDir != "" {
		args = append(args, fmt.Sprintf("--user-data-dir=%s", userDataDir))
	}
	if opts.Headless {
		args = append(args, "--headless=new")
	}

	chromeCaps := chrome.Capabilities{Args: args}
	if binary := findChromeBinary(opts.ChromeBinary); binary != "" {
		logger.WithField("path", binary).Info("Using Chrome binary")
		chromeCaps.Path = binary
	}
	caps := selenium.Capabilities{"browserName": "chrome"}
	caps.AddChrome(chromeCaps)

	wd, err := selenium.NewRemote(caps, fmt.Sprintf("http://localhost:%d/wd/hub", chromeDriverPort))
	if err != nil {
		service.Stop()
		if strings.Contains(err.Error(), "cannot find Chrome binary") {
			return nil, fmt.Errorf("failed to create webdriver, Chrome not found (set CHROME_BINARY_PATH): %w", err)
		}
		return nil, fmt.Errorf("failed to create webdriver: %w", err)
	}

	return &SeleniumController{
		wd:          wd,
		service:     service,
		logger:      logger,
		userDataDir: userDataDir,
	}, nil
}

// Navigate - navigates browser to specified URL
func (s *SeleniumController) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.WithField("url", url).Info("Navigating")
	if err := s.wd.Get(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *SeleniumController) Document() interfaces.Document {
	return &seDocument{wd: s.wd}
}

// OnTraffic - registers handler and starts the resource poller on first use.
// Only request URLs are reported; response bodies are not observable.
func (s *SeleniumController) OnTraffic(handler func(entities.Traffic)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
	if s.polling {
		return
	}
	s.polling = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.pollResources(ctx)
}

func (s *SeleniumController) pollResources(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	seen := make(map[string]bool)
	for {
		var found []string
		if current, err := s.wd.CurrentURL(); err == nil {
			found = append(found, current)
		}
		if v, err := s.wd.ExecuteScript(resourceScript, nil); err == nil {
			if list, ok := v.([]interface{}); ok {
				for _, item := range list {
					found = append(found, asString(item))
				}
			}
		}

		s.mu.Lock()
		handlers := append([]func(entities.Traffic){}, s.handlers...)
		s.mu.Unlock()
		for _, u := range found {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			for _, h := range handlers {
				h(entities.Traffic{URL: u, Method: http.MethodGet})
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *SeleniumController) CookieJar() http.CookieJar {
	return &seCookieJar{ctrl: s}
}

// SaveState - the Chrome profile directory already persists the session
func (s *SeleniumController) SaveState() error {
	return nil
}

// Close - closes browser and stops ChromeDriver service
func (s *SeleniumController) Close() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	var closeErr error
	if s.wd != nil {
		if err := s.wd.Quit(); err != nil && !isClosedErr(err) {
			closeErr = fmt.Errorf("failed to quit webdriver: %w", err)
		}
	}
	if s.service != nil {
		if err := s.service.Stop(); err != nil {
			closeErr = joinErr(closeErr, fmt.Errorf("failed to stop chromedriver: %w", err))
		}
	}
	return closeErr
}

type seCookieJar struct {
	ctrl *SeleniumController
}

// Cookies returns the session cookies whose domain covers u.
func (j *seCookieJar) Cookies(u *url.URL) []*http.Cookie {
	cookies, err := j.ctrl.wd.GetCookies()
	if err != nil {
		j.ctrl.logger.WithError(err).Debug("Failed to read browser cookies")
		return nil
	}
	host := u.Hostname()
	var out []*http.Cookie
	for _, ck := range cookies {
		domain := strings.TrimPrefix(ck.Domain, ".")
		if domain != "" && host != domain && !strings.HasSuffix(host, "."+domain) {
			continue
		}
		out = append(out, &http.Cookie{Name: ck.Name, Value: ck.Value, Path: ck.Path, Domain: ck.Domain, Secure: ck.Secure})
	}
	return out
}

func (j *seCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	for _, ck := range cookies {
		err := j.ctrl.wd.AddCookie(&selenium.Cookie{
			Name:   ck.Name,
			Value:  ck.Value,
			Path:   ck.Path,
			Domain: ck.Domain,
			Secure: ck.Secure,
		})
		if err != nil {
			j.ctrl.logger.WithError(err).Debug("Failed to store cookie in browser")
		}
	}
}

var _ interfaces.Browser = (*SeleniumController)(nil)
