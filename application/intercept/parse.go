// Package intercept turns the page's background traffic into catalog
// fetches and record-store launch data.
package intercept

import (
	"encoding/json"
	"regexp"
	"strings"

	"quiz_solver/domain/entities"
)

const (
	catalogMarker = "components.json"
	graphQLMarker = "api.netacad.com/api"
	launchMarker  = "/adl/content/launch/"
)

var launchPattern = regexp.MustCompile(`(?i)/adl/content/launch/([a-f0-9-]+)`)

// IsCatalogURL reports whether url serves a components.json array.
func IsCatalogURL(url string) bool {
	return strings.Contains(url, catalogMarker)
}

// IsGraphQLURL reports whether url is the platform's GraphQL API.
func IsGraphQLURL(url string) bool {
	return strings.Contains(url, graphQLMarker)
}

// LaunchFromURL extracts launch data from an activity launch URL. The
// service is everything up to "launch/".
func LaunchFromURL(url string) (entities.LaunchData, bool) {
	if !strings.Contains(url, launchMarker) {
		return entities.LaunchData{}, false
	}
	m := launchPattern.FindStringSubmatch(url)
	if m == nil {
		return entities.LaunchData{}, false
	}
	service, _, _ := strings.Cut(url, "launch/")
	return entities.LaunchData{Key: m[1], Service: service}, true
}

type graphQLLaunch struct {
	Data struct {
		Launch *entities.LaunchData `json:"getNewAdlLaunchData"`
	} `json:"data"`
}

// LaunchFromGraphQL extracts launch data from a getNewAdlLaunchData response.
func LaunchFromGraphQL(body []byte) (entities.LaunchData, bool) {
	var resp graphQLLaunch
	if err := json.Unmarshal(body, &resp); err != nil {
		return entities.LaunchData{}, false
	}
	if resp.Data.Launch == nil || resp.Data.Launch.Key == "" {
		return entities.LaunchData{}, false
	}
	return *resp.Data.Launch, true
}
