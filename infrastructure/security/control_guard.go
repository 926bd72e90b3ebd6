package security

import (
	"context"
	"strings"

	"quiz_solver/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// destructiveKeywords mark controls that would throw away answers or leave
// the attempt.
var destructiveKeywords = []string{
	"reset",
	"retry",
	"try again",
	"exit",
	"delete",
	"remove",
	"cancel",
	"clear",
}

type ControlGuard struct {
	logger   *logrus.Logger
	keywords []string
}

// NewControlGuard - creates a guard vetoing destructive controls; extra
// keywords extend the built-in list
func NewControlGuard(logger *logrus.Logger, extra ...string) *ControlGuard {
	keywords := append([]string{}, destructiveKeywords...)
	for _, k := range extra {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &ControlGuard{logger: logger, keywords: keywords}
}

// Allowed - reports whether a control labelled label may be clicked automatically
func (g *ControlGuard) Allowed(ctx context.Context, label string) bool {
	lower := strings.ToLower(label)
	for _, keyword := range g.keywords {
		if strings.Contains(lower, keyword) {
			g.logger.WithFields(logrus.Fields{
				"label":   label,
				"keyword": keyword,
			}).Warn("Refusing to activate destructive control")
			return false
		}
	}
	return true
}

var _ interfaces.ControlGuard = (*ControlGuard)(nil)
