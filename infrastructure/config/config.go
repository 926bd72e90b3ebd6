package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	defaultSpeed          = 3
	defaultReadyTimeout   = 30 * time.Second
	defaultAdvanceTimeout = 10 * time.Second
	defaultSubject        = "quiz_solver.events"
)

type Config struct {
	QuizURL string

	BrowserDriver  string
	Headless       bool
	SlowMo         time.Duration
	DriverPath     string
	ChromeBinary   string
	StateDir       string

	Speed          int
	ReadyTimeout   time.Duration
	AdvanceTimeout time.Duration

	ControlAddr    string
	AllowedOrigins []string

	NATSURL     string
	NATSSubject string

	LaunchKey       string
	LaunchService   string
	AssessmentID    string
	AssessmentTitle string

	LogLevel logrus.Level
}

// Load - reads an optional .env file, then the environment
func Load(logger *logrus.Logger, files ...string) Config {
	if err := godotenv.Load(files...); err != nil {
		logger.Debug(".env file not found, using environment variables")
	}
	return FromEnv(os.Getenv, logger)
}

// FromEnv - builds the configuration from getenv; invalid values fall back
// to defaults with a warning
func FromEnv(getenv func(string) string, logger *logrus.Logger) Config {
	r := reader{getenv: getenv, logger: logger}

	cfg := Config{
		QuizURL:        getenv("QUIZ_URL"),
		BrowserDriver:  strings.ToLower(r.str("BROWSER_DRIVER", "playwright")),
		Headless:       r.boolean("BROWSER_HEADLESS", false),
		SlowMo:         time.Duration(r.integer("BROWSER_SLOWMO_MS", 0)) * time.Millisecond,
		DriverPath:     getenv("BROWSER_DRIVER_PATH"),
		ChromeBinary:   getenv("CHROME_BINARY_PATH"),
		StateDir:       getenv("STATE_DIR"),
		Speed:          r.integer("SOLVER_SPEED", defaultSpeed),
		ReadyTimeout:   r.duration("READY_TIMEOUT", defaultReadyTimeout),
		AdvanceTimeout: r.duration("ADVANCE_TIMEOUT", defaultAdvanceTimeout),
		ControlAddr:    getenv("CONTROL_ADDR"),
		AllowedOrigins: r.list("CONTROL_ALLOWED_ORIGINS"),
		NATSURL:        getenv("NATS_URL"),
		NATSSubject:    r.str("NATS_SUBJECT", defaultSubject),
		LaunchKey:      getenv("XAPI_LAUNCH_KEY"),
		LaunchService:  getenv("XAPI_LAUNCH_SERVICE"),
		LogLevel:       logrus.InfoLevel,
	}
	cfg.AssessmentID = getenv("ASSESSMENT_ID")
	cfg.AssessmentTitle = getenv("ASSESSMENT_TITLE")

	if cfg.Speed < 1 || cfg.Speed > 5 {
		logger.WithField("SOLVER_SPEED", cfg.Speed).Warn("Speed out of range, using default")
		cfg.Speed = defaultSpeed
	}
	if raw := getenv("LOG_LEVEL"); raw != "" {
		if level, err := logrus.ParseLevel(raw); err == nil {
			cfg.LogLevel = level
		} else {
			logger.WithField("LOG_LEVEL", raw).Warn("Unknown log level, using info")
		}
	}
	return cfg
}

type reader struct {
	getenv func(string) string
	logger *logrus.Logger
}

func (r reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r reader) integer(key string, def int) int {
	raw := strings.TrimSpace(r.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		r.invalid(key, raw)
		return def
	}
	return v
}

func (r reader) boolean(key string, def bool) bool {
	raw := strings.TrimSpace(r.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.invalid(key, raw)
		return def
	}
	return v
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(r.getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		r.invalid(key, raw)
		return def
	}
	return v
}

func (r reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r reader) invalid(key, raw string) {
	r.logger.WithFields(logrus.Fields{
		"key":   key,
		"value": raw,
	}).Warn("Invalid configuration value, using default")
}
