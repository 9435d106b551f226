package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/geohealth/gateway/internal/cache"
	"github.com/geohealth/gateway/internal/geo"
	"github.com/geohealth/gateway/internal/provider"
	"github.com/geohealth/gateway/internal/retry"
	"github.com/geohealth/gateway/internal/sanitize"
)

// FindFacilities returns verified medical facilities near a coordinate
// pair, without distances (see SortByDistance). Grounded answers are
// not schema-constrained, so this is a two-phase operation: a
// search-grounded retrieval call followed by a structuring call that
// reshapes the free text into the facility contract. The bool reports
// whether the cache served the result.
func (g *Gateway) FindFacilities(ctx context.Context, lat, lng float64) ([]Facility, bool, error) {
	key := cache.Fingerprint("facilities", facilitySchemaVersion,
		cache.Coord(lat), cache.Coord(lng))

	var cached []Facility
	if g.fromCache(ctx, key, &cached) {
		return cached, true, nil
	}

	// Deliberately "nearest", not "within N km": a strict radius makes
	// the model return nothing in rural areas.
	grounded, err := retry.Do(ctx, func() (provider.GroundedResult, error) {
		return g.ai.GenerateGrounded(ctx, provider.GroundedRequest{
			Model: g.models.Grounded,
			Prompt: fmt.Sprintf(
				"List the 10 nearest verified medical facilities (hospitals, clinics or pharmacies) "+
					"near GPS %.4f, %.4f. For each give its official name, type and exact coordinates.",
				lat, lng),
			Bias: &provider.LatLng{Lat: lat, Lng: lng},
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("facility search: %w", err)
	}

	sources, _ := json.Marshal(grounded.Sources)
	raw, err := retry.Do(ctx, func() (string, error) {
		return g.ai.GenerateJSON(ctx, provider.JSONRequest{
			Model: g.models.Fast,
			Prompt: fmt.Sprintf(
				"Extract the verified medical facilities from this text into a JSON array. "+
					"Source text: %q. Source references: %s", grounded.Text, sources),
			Schema: facilitiesSchema,
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("facility structuring: %w", err)
	}

	var wires []struct {
		Name any     `json:"name"`
		Type string  `json:"type"`
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
		URL  string  `json:"url"`
	}
	if !sanitize.Decode(raw, &wires) {
		log.Printf("gateway: malformed facility response, returning empty list")
	}

	facilities := make([]Facility, 0, len(wires))
	for _, w := range wires {
		switch w.Type {
		case FacilityHospital, FacilityClinic, FacilityPharmacy:
		default:
			continue
		}
		// A facility with no coordinates cannot be placed or ranked.
		if w.Lat == 0 && w.Lng == 0 {
			continue
		}
		facilities = append(facilities, Facility{
			Name: sanitize.DisplayString(w.Name, "Medical Center"),
			Type: w.Type,
			Lat:  w.Lat,
			Lng:  w.Lng,
			URL:  w.URL,
		})
	}

	g.toCache(ctx, key, facilities, g.ttl.Facility)
	return facilities, false, nil
}

// SortByDistance fills each facility's distance from the query point
// and returns the list sorted nearest-first. Distances are computed
// locally with the haversine formula, never taken from the provider.
func SortByDistance(lat, lng float64, facilities []Facility) []Facility {
	out := make([]Facility, len(facilities))
	copy(out, facilities)

	for i := range out {
		out[i].DistanceKm = geo.HaversineKm(lat, lng, out[i].Lat, out[i].Lng)
		out[i].Distance = geo.FormatDistance(out[i].DistanceKm)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}
