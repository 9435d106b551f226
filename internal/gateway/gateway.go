// Package gateway composes the provider, cache, retry executor and
// sanitizer into the public analysis operations. Each operation follows
// the same template: fingerprint the inputs, check the cache, issue the
// provider calls through the retry executor, decode leniently, sanitize
// every outgoing text field, store, return.
package gateway

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/provider"
)

// Schema versions embedded in cache keys. Bump one whenever its
// contract changes shape so old entries become unreachable instead of
// being returned stale-shaped.
const (
	locationSchemaVersion = 5
	facilitySchemaVersion = 6
	geocodeSchemaVersion  = 1
	forecastSchemaVersion = 2
	alertsSchemaVersion   = 3
	snapshotSchemaVersion = 2
)

type Models struct {
	// Fast handles schema-constrained JSON calls.
	Fast string
	// Reasoning handles the reflective prompts (mental health, chat).
	Reasoning string
	// Grounded handles search-augmented calls.
	Grounded string
	// Image handles illustrative renders.
	Image string
}

type TTL struct {
	Location time.Duration
	Facility time.Duration
	Forecast time.Duration
	Alerts   time.Duration
	Snapshot time.Duration
}

type Options struct {
	Models Models
	TTL    TTL
}

type Gateway struct {
	ai     provider.Generator
	cache  cache.Store
	models Models
	ttl    TTL
}

func New(ai provider.Generator, store cache.Store, opts Options) *Gateway {
	m := opts.Models
	if m.Fast == "" {
		m.Fast = "gemini-1.5-flash"
	}
	if m.Reasoning == "" {
		m.Reasoning = "gemini-1.5-pro"
	}
	if m.Grounded == "" {
		m.Grounded = m.Fast
	}
	if m.Image == "" {
		m.Image = "gemini-2.0-flash-exp"
	}

	t := opts.TTL
	if t.Location == 0 {
		t.Location = 30 * time.Minute
	}
	if t.Facility == 0 {
		t.Facility = 60 * time.Minute
	}
	if t.Forecast == 0 {
		t.Forecast = 30 * time.Minute
	}
	if t.Alerts == 0 {
		t.Alerts = 30 * time.Minute
	}
	if t.Snapshot == 0 {
		t.Snapshot = 30 * time.Minute
	}

	return &Gateway{ai: ai, cache: store, models: m, ttl: t}
}

// fromCache loads a cached result into out. A decode failure counts as
// a miss; the entry will be overwritten by the fresh value.
func (g *Gateway) fromCache(ctx context.Context, key string, out any) bool {
	raw, ok := g.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("gateway: discarding undecodable cache entry %s: %v", key, err)
		return false
	}
	return true
}

func (g *Gateway) toCache(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	g.cache.Set(ctx, key, string(b), ttl)
}
