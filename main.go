package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz_solver/application/autosolve"
	"quiz_solver/application/catalog"
	"quiz_solver/application/generation"
	"quiz_solver/application/intercept"
	"quiz_solver/application/locator"
	"quiz_solver/application/navigation"
	"quiz_solver/application/readiness"
	"quiz_solver/application/session"
	"quiz_solver/application/solver"
	"quiz_solver/domain/entities"
	"quiz_solver/infrastructure/browser"
	"quiz_solver/infrastructure/config"
	"quiz_solver/infrastructure/events"
	"quiz_solver/infrastructure/security"
	"quiz_solver/infrastructure/storage"
	"quiz_solver/infrastructure/xapi"
	"quiz_solver/presentation/httpapi"
	"quiz_solver/presentation/terminal"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg := config.Load(logger)
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stateDir, err := storage.StateDir(cfg.StateDir)
	if err != nil {
		return err
	}

	br, err := browser.New(browser.Options{
		Driver:       cfg.BrowserDriver,
		Headless:     cfg.Headless,
		SlowMo:       cfg.SlowMo,
		StatePath:    storage.BrowserStatePath(stateDir),
		UserDataDir:  storage.ChromeProfilePath(stateDir),
		DriverPath:   cfg.DriverPath,
		ChromeBinary: cfg.ChromeBinary,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer func() {
		if err := br.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close browser")
		}
	}()

	// Requests made outside the page still carry the learner's session.
	client := &http.Client{Jar: br.CookieJar(), Timeout: 15 * time.Second}

	counter := &generation.Counter{}
	cat := catalog.NewCatalog(client, logger)
	launch := &intercept.LaunchStore{}
	history := storage.NewHistoryStore(stateDir)
	guard := security.NewControlGuard(logger)

	sinks := events.NewMulti(events.NewLogSink(logger))
	if cfg.NATSURL != "" {
		natsSink, err := events.NewNATSSink(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			logger.WithError(err).Warn("Event publishing disabled")
		} else {
			defer natsSink.Close()
			sinks.Add(natsSink)
		}
	}

	ctrl := autosolve.NewController(autosolve.Deps{
		Page:         br,
		Catalog:      cat,
		Readiness:    readiness.NewMonitor(logger, cfg.ReadyTimeout),
		Locator:      locator.NewLocator(logger),
		Solver:       solver.NewSolver(logger, solver.DefaultTiming()),
		Advancer:     navigation.NewAdvancer(logger, guard, navigation.DefaultConfig(cfg.AdvanceTimeout)),
		Counter:      counter,
		Events:       sinks,
		Storage:      history,
		HasLaunchKey: launch.HasLaunchKey,
	}, autosolve.DefaultConfig(), logger)
	defer ctrl.Close()

	interceptor := intercept.NewInterceptor(ctx, cat, launch, ctrl.Invalidate, logger)
	br.OnTraffic(interceptor.Handle)

	watcher := autosolve.NewWatcher(br, time.Second, logger)
	watcher.OnChange(func(ctx context.Context, url string) {
		interceptor.Handle(entities.Traffic{URL: url, Method: http.MethodGet})
		ctrl.Invalidate()
	})
	go func() {
		if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Warn("Navigation watcher stopped")
		}
	}()

	var assessment *entities.AssessmentMeta
	if cfg.AssessmentID != "" {
		assessment = &entities.AssessmentMeta{ID: cfg.AssessmentID, Title: cfg.AssessmentTitle}
	}
	svc := session.NewService(session.Deps{
		Controller: ctrl,
		Components: cat,
		Submitter: xapi.NewSubmitter(br, launch, client, entities.LaunchData{
			Key:     cfg.LaunchKey,
			Service: cfg.LaunchService,
		}, logger),
		Remerger:   interceptor,
		Navigator:  br,
		History:    history,
		Assessment: assessment,
	}, logger)

	if cfg.ControlAddr != "" {
		router := httpapi.NewRouter(svc, cfg.Speed, cfg.AllowedOrigins, logger)
		go func() {
			if err := httpapi.Serve(ctx, cfg.ControlAddr, router, logger); err != nil {
				logger.WithError(err).Error("Control API failed")
			}
		}()
	}

	if cfg.QuizURL != "" {
		if err := svc.Open(ctx, cfg.QuizURL); err != nil {
			logger.WithError(err).Warn("Failed to open quiz page")
		}
	}

	term := terminal.NewTerminalInterface(svc, cfg.Speed, os.Stdin, os.Stdout, logger)
	sinks.Add(term)

	err = term.Run(ctx)
	cancel()
	interceptor.Wait()
	return err
}
