// Package catalog accumulates question components fetched from the platform.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"quiz_solver/application/markup"
	"quiz_solver/domain/entities"

	"github.com/sirupsen/logrus"
)

const maxCatalogBytes = 32 << 20

// Catalog holds components deduplicated by id, in arrival order.
type Catalog struct {
	mu     sync.RWMutex
	byID   map[string]int
	items  []entities.Component
	client *http.Client
	logger *logrus.Logger
}

// NewCatalog - creates an empty catalog fetching with client
func NewCatalog(client *http.Client, logger *logrus.Logger) *Catalog {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Catalog{
		byID:   make(map[string]int),
		client: client,
		logger: logger,
	}
}

// Merge fetches a components.json array from url and adds the question
// components not held yet. Fetch and parse failures are logged and yield 0:
// the event that triggered the merge may fire again.
func (c *Catalog) Merge(ctx context.Context, url string) int {
	components, err := c.fetch(ctx, url)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Warn("Failed to fetch components")
		return 0
	}

	added := c.Add(components...)
	c.logger.WithFields(logrus.Fields{
		"url":   url,
		"added": added,
		"total": c.Len(),
	}).Info("Merged components")
	return added
}

// Add stores question components whose id is new and returns how many were
// added. Bodies are reduced to plain text.
func (c *Catalog) Add(components ...entities.Component) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, comp := range components {
		if !comp.IsQuestion() || comp.ID == "" {
			continue
		}
		if _, ok := c.byID[comp.ID]; ok {
			continue
		}
		comp.Body = markup.PlainText(comp.Body)
		c.byID[comp.ID] = len(c.items)
		c.items = append(c.items, comp)
		added++
	}
	return added
}

// Components returns a copy of every held component.
func (c *Catalog) Components() []entities.Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]entities.Component, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the component with the given id.
func (c *Catalog) Get(id string) (entities.Component, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[id]
	if !ok {
		return entities.Component{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Catalog) fetch(ctx context.Context, url string) ([]entities.Component, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch components: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("components endpoint returned status %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode components: %w", err)
	}

	components := make([]entities.Component, 0, len(raw))
	for i, r := range raw {
		var comp entities.Component
		if err := json.Unmarshal(r, &comp); err != nil {
			c.logger.WithError(err).WithField("index", i).Debug("Skipping undecodable component")
			continue
		}
		components = append(components, comp)
	}
	return components, nil
}
