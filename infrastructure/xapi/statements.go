package xapi

import (
	"strconv"
	"strings"
	"time"

	"quiz_solver/domain/entities"
)

const (
	verbAnswered       = "http://adlnet.gov/expapi/verbs/answered"
	activityQuestion   = "http://adlnet.gov/expapi/activities/question"
	activityCourse     = "http://adlnet.gov/expapi/activities/course"
	activityLesson     = "http://adlnet.gov/expapi/activities/lesson"
	activityAssessment = "http://adlnet.gov/expapi/activities/assessment"
	sourceIDExtension  = "https://www.netacad.com/ravennaSourceID"
	responseSeparator  = "[,]"
)

type langMap map[string]string

type definition struct {
	Type            string         `json:"type"`
	InteractionType string         `json:"interactionType,omitempty"`
	Name            langMap        `json:"name,omitempty"`
	Description     langMap        `json:"description,omitempty"`
	Extensions      map[string]any `json:"extensions,omitempty"`
}

type activity struct {
	ObjectType string     `json:"objectType"`
	ID         string     `json:"id"`
	Definition definition `json:"definition"`
}

type verb struct {
	ID      string  `json:"id"`
	Display langMap `json:"display"`
}

type score struct {
	Raw int `json:"raw"`
}

type result struct {
	Score      score  `json:"score"`
	Success    bool   `json:"success"`
	Completion bool   `json:"completion"`
	Response   string `json:"response"`
}

type contextActivities struct {
	Grouping []activity `json:"grouping"`
	Parent   []activity `json:"parent,omitempty"`
}

type statementContext struct {
	Extensions        map[string]any    `json:"extensions"`
	ContextActivities contextActivities `json:"contextActivities"`
}

// Statement is one "answered" record sent to the record store.
type Statement struct {
	Actor     agent            `json:"actor"`
	Verb      verb             `json:"verb"`
	Object    activity         `json:"object"`
	Result    result           `json:"result"`
	Context   statementContext `json:"context"`
	Timestamp string           `json:"timestamp"`
}

// response - the recorded answer for a component; ok is false when nothing
// correct can be derived from it
func response(c entities.Component) (string, bool) {
	if len(c.Items) == 0 {
		return "", false
	}

	var parts []string
	switch {
	case c.Kind == "mcq":
		for n, item := range c.Items {
			if item.ShouldBeSelected {
				parts = append(parts, firstNonEmpty(item.InternalID.String(), strconv.Itoa(n)))
			}
		}
	case c.Items[0].Options.Defined:
		for _, item := range c.Items {
			for _, opt := range item.Options.Options {
				if opt.Correct() {
					parts = append(parts, firstNonEmpty(opt.ID.String(), opt.InternalID.String()))
				}
			}
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, responseSeparator), true
}

func buildStatements(t target, components []entities.Component, meta *entities.AssessmentMeta, now time.Time) []Statement {
	timestamp := now.UTC().Format(time.RFC3339Nano)
	grouping, parent := groupingFor(t.coursePrefix, meta)
	extensions := contextExtensions(t)

	var out []Statement
	for _, c := range components {
		resp, ok := response(c)
		if !ok {
			continue
		}

		activityID := c.ID
		if !strings.HasPrefix(activityID, "http") {
			activityID = t.coursePrefix + "#/id/" + c.ID
		}
		def := definition{
			Type:            activityQuestion,
			InteractionType: "choice",
			Name:            langMap{"en-US": firstNonEmpty(c.Title, "Question")},
			Description:     langMap{"en-US": c.Body},
		}
		if src := c.SourceID(); src != "" {
			def.Extensions = map[string]any{sourceIDExtension: src}
		}

		out = append(out, Statement{
			Actor: t.agent,
			Verb:  verb{ID: verbAnswered, Display: langMap{"en-US": "answered"}},
			Object: activity{
				ObjectType: "Activity",
				ID:         activityID,
				Definition: def,
			},
			Result: result{Score: score{Raw: 1}, Success: true, Completion: true, Response: resp},
			Context: statementContext{
				Extensions:        extensions,
				ContextActivities: contextActivities{Grouping: grouping, Parent: parent},
			},
			Timestamp: timestamp,
		})
	}
	return out
}

func groupingFor(prefix string, meta *entities.AssessmentMeta) (grouping, parent []activity) {
	grouping = []activity{{
		ObjectType: "Activity",
		ID:         prefix,
		Definition: definition{Type: activityCourse},
	}}
	if meta == nil || meta.ID == "" {
		return grouping, nil
	}

	grouping = append(grouping, activity{
		ObjectType: "Activity",
		ID:         prefix + "#/id/" + meta.ID,
		Definition: definition{
			Type: activityLesson,
			Name: langMap{"en-US": firstNonEmpty(meta.Title, "Module Test")},
		},
	})
	parent = []activity{{
		ObjectType: "Activity",
		ID:         prefix + "#/assessment/" + meta.ID,
		Definition: definition{
			Type: activityAssessment,
			Name: langMap{"en-US": meta.ID},
		},
	}}
	return grouping, parent
}

func contextExtensions(t target) map[string]any {
	course := "pe1"
	if _, host, ok := strings.Cut(t.coursePrefix, "://"); ok {
		if name, _, _ := strings.Cut(host, "-"); name != "" {
			course = name
		}
	}

	var module any
	if t.module != nil {
		module = *t.module
	}
	return map[string]any{
		"https://www.netacad.com/service/type":    "course",
		"https://www.netacad.com/service/id":      t.serviceID,
		"https://www.netacad.com/schema/version":  "1.0",
		"https://www.netacad.com/course/name":     course,
		"https://www.netacad.com/course/version":  "1.0",
		"https://www.netacad.com/course/language": "en-US",
		"https://www.netacad.com/user/id":         t.agent.Mbox,
		"https://www.netacad.com/course/module":   module,
	}
}
