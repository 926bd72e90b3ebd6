package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"quiz_solver/application/session"
	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
)

// Service is the command set the terminal drives.
type Service interface {
	Status() entities.Status
	Start(speed int) session.Result
	Stop() session.Result
	Refresh(ctx context.Context) session.Result
	Submit(ctx context.Context) entities.SubmitResult
	Open(ctx context.Context, url string) error
	History() ([]entities.SessionReport, error)
}

type TerminalInterface struct {
	svc          Service
	defaultSpeed int
	logger       *logrus.Logger
	reader       *bufio.Reader

	mu  sync.Mutex
	out io.Writer
}

func NewTerminalInterface(svc Service, defaultSpeed int, in io.Reader, out io.Writer, logger *logrus.Logger) *TerminalInterface {
	return &TerminalInterface{
		svc:          svc,
		defaultSpeed: defaultSpeed,
		logger:       logger,
		reader:       bufio.NewReader(in),
		out:          out,
	}
}

// Run - reads commands until quit, end of input or ctx cancellation
func (t *TerminalInterface) Run(ctx context.Context) error {
	t.printf("Quiz solver\n")
	t.printf("===========\n")
	t.printf("Commands: status, start [1-5], stop, refresh, submit, open <url>, history, quit\n\n")

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		for {
			line, err := t.reader.ReadString('\n')
			if line != "" {
				lines <- line
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()

	for {
		t.printf("> ")
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err == io.EOF {
				return nil
			}
			return err
		case line := <-lines:
			if quit := t.Execute(ctx, line); quit {
				t.printf("Bye!\n")
				return nil
			}
		}
	}
}

// Execute - runs one command line; it reports whether the user asked to quit
func (t *TerminalInterface) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "quit", "exit", "q":
		return true
	case "status":
		t.printStatus(t.svc.Status())
	case "start":
		speed := t.defaultSpeed
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 1 || n > 5 {
				t.printf("Speed must be a number from 1 to 5\n")
				return false
			}
			speed = n
		}
		res := t.svc.Start(speed)
		if res.Success {
			t.printf("Auto-solve started (%d questions known, speed %d)\n", res.QuestionCount, speed)
		} else {
			t.printf("Not started: %s\n", res.Error)
		}
	case "stop":
		t.svc.Stop()
		t.printf("Stop requested\n")
	case "refresh":
		res := t.svc.Refresh(ctx)
		t.printf("Refreshed, %d questions known\n", res.QuestionCount)
	case "submit":
		res := t.svc.Submit(ctx)
		if res.Success {
			t.printf("Submitted %d answers\n", res.Submitted)
		} else {
			t.printf("Submission failed: %s\n", res.Error)
		}
	case "open":
		if len(fields) < 2 {
			t.printf("Usage: open <url>\n")
			return false
		}
		if err := t.svc.Open(ctx, fields[1]); err != nil {
			t.printf("%v\n", err)
		}
	case "history":
		t.printHistory()
	default:
		t.printf("Unknown command %q\n", cmd)
	}
	return false
}

// Emit prints control-surface events as they arrive.
func (t *TerminalInterface) Emit(ctx context.Context, event entities.Event) {
	switch event.Action {
	case entities.EventAutoSolveStarted:
		t.printf("\n[started]\n")
	case entities.EventProgress:
		t.printf("\n[progress] %d/%d\n", event.Current, event.Total)
	case entities.EventAutoSolveStopped:
		t.printf("\n[stopped] %d/%d\n", event.Current, event.Total)
	case entities.EventAutoSolveComplete:
		t.printf("\n[complete] %d questions\n", event.QuestionCount)
	case entities.EventError:
		t.printf("\n[error] %s\n", event.Message)
	}
}

func (t *TerminalInterface) printStatus(st entities.Status) {
	t.printf("State:      %s\n", st.State)
	t.printf("Questions:  %d (solved %d, remaining %d)\n", st.QuestionCount, st.CurrentQuestion, st.Remaining)
	if st.ActiveQuestion != "" {
		t.printf("Active:     %s\n", st.ActiveQuestion)
	}
	if len(st.Unanswered) > 0 {
		t.printf("Unanswered: %s\n", strings.Join(st.Unanswered, ", "))
	}
	t.printf("Launch key: %t\n", st.HasLaunchKey)
}

func (t *TerminalInterface) printHistory() {
	reports, err := t.svc.History()
	if err != nil {
		t.printf("Failed to load history: %v\n", err)
		return
	}
	if len(reports) == 0 {
		t.printf("No sessions yet\n")
		return
	}
	for _, r := range reports {
		line := fmt.Sprintf("%s  %-9s %d/%d", r.StartedAt.Format("2006-01-02 15:04"), r.State, r.Solved, r.Total)
		if r.Error != "" {
			line += "  " + r.Error
		}
		t.printf("%s\n", line)
	}
}

func (t *TerminalInterface) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}
