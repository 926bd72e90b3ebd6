package xapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"quiz_solver/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

const defaultCoursePrefix = "https://pe1-m0-v1"

// agent identifies the learner the statements are recorded for.
type agent struct {
	ObjectType string `json:"objectType"`
	Name       string `json:"name"`
	Mbox       string `json:"mbox"`
}

// target is everything resolved from the page before anything is sent.
type target struct {
	token        string
	agent        agent
	launch       entities.LaunchData
	coursePrefix string
	module       *int
	serviceID    string
}

// parseToken - reads the learner claims from the platform token without
// verifying its signature
func parseToken(raw string) (agent, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return agent{}, fmt.Errorf("failed to parse auth token: %w", err)
	}
	uuid, _ := claims["user_uuid"].(string)
	name, _ := claims["name"].(string)
	return agent{
		ObjectType: "Agent",
		Name:       name,
		Mbox:       "mailto:" + uuid + "@sfa.com",
	}, nil
}

// resolveLaunch - overrides win over page parameters, which win over
// intercepted data
func resolveLaunch(overrides entities.LaunchData, query url.Values, intercepted entities.LaunchData) entities.LaunchData {
	key := firstNonEmpty(overrides.Key, query.Get("xAPILaunchKey"))
	service := firstNonEmpty(overrides.Service, query.Get("xAPILaunchService"))
	if key == "" {
		key, service = intercepted.Key, intercepted.Service
	}
	if strings.Contains(service, "/content/") {
		service = strings.Replace(service, "/content/", "/", 1)
	}
	return entities.LaunchData{Key: key, Service: service}
}

func coursePrefix(moduleNumber string) string {
	if moduleNumber == "" {
		return defaultCoursePrefix
	}
	return "https://pe1-m" + moduleNumber + "-v1"
}

func (s *Submitter) resolve(ctx context.Context) (target, error) {
	doc := s.page.Document()
	if doc == nil {
		return target{}, fmt.Errorf("%w: no page", ErrNoToken)
	}

	token, err := doc.LocalStorage(ctx, "AuthToken")
	if err != nil {
		return target{}, fmt.Errorf("failed to read auth token: %w", err)
	}
	if token == "" || token == "undefined" {
		return target{}, ErrNoToken
	}
	who, err := parseToken(token)
	if err != nil {
		return target{}, err
	}

	var query url.Values
	if raw, err := doc.URL(ctx); err == nil {
		if u, err := url.Parse(raw); err == nil {
			query = u.Query()
		}
	}
	if query == nil {
		query = url.Values{}
	}

	var intercepted entities.LaunchData
	if s.launch != nil {
		intercepted, _ = s.launch.Launch()
	}
	launch := resolveLaunch(s.overrides, query, intercepted)
	if !launch.Complete() {
		return target{}, ErrMissingLaunch
	}

	t := target{
		token:        token,
		agent:        who,
		launch:       launch,
		coursePrefix: coursePrefix(query.Get("moduleNumber")),
		serviceID:    firstNonEmpty(query.Get("id"), "unknown-service-id"),
	}
	if n, err := strconv.Atoi(query.Get("moduleNumber")); err == nil {
		t.module = &n
	}
	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
