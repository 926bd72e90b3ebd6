package browser

import (
	"fmt"
	"strings"
	"time"

	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Driver names accepted by New.
const (
	DriverPlaywright = "playwright"
	DriverSelenium   = "selenium"
)

// Options configure the browser launch.
type Options struct {
	Driver       string
	Headless     bool
	SlowMo       time.Duration
	StatePath    string // storage state (cookies, local storage) kept between runs
	UserDataDir  string // selenium profile directory
	DriverPath   string // chromedriver binary, selenium only
	ChromeBinary string
}

// New - launches the browser selected by opts.Driver
func New(opts Options, logger *logrus.Logger) (interfaces.Browser, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverPlaywright:
		return NewPlaywrightController(opts, logger)
	case DriverSelenium:
		return NewSeleniumController(opts, logger)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", opts.Driver)
	}
}

// isClosedErr reports errors raised by a browser that is already gone.
func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "closed") || strings.Contains(msg, "target closed")
}

// asString - extracts a string from a script result
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
