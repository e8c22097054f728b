// Package routing implements the driving-route provider (C6): a
// Provider contract for (distance, duration) between two coordinates,
// with an OpenRouteService-backed implementation that falls through to
// a haversine estimate on any failure, per spec.md §4.7.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"wayfarer/internal/model"
	"wayfarer/internal/observability"
)

// AvgSpeedKMH is the fallback conversion factor from haversine distance
// to a travel-time estimate, per spec.md §4.6.
const AvgSpeedKMH = 40.0

// Logger is the minimal surface routing needs from internal/obs.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// Provider is the C6 contract. Implementations never block past the
// context deadline: on any failure they are expected to substitute the
// haversine estimate for that pair rather than propagate an error,
// because route-provider failure is a local, silently-degrading
// condition per spec.md §7.
type Provider interface {
	Route(ctx context.Context, a, b orb.Point) model.RouteInfo
}

// Haversine computes (km, minutes) from the great-circle distance
// between a and b at avgSpeedKMH, with no network dependency. This is
// both a standalone Provider and the fallback every other Provider
// degrades to.
type Haversine struct {
	AvgSpeedKMH float64
}

// NewHaversine constructs a Haversine provider, defaulting AvgSpeedKMH
// to spec.md's recommended 40 km/h when speed <= 0.
func NewHaversine(avgSpeedKMH float64) Haversine {
	if avgSpeedKMH <= 0 {
		avgSpeedKMH = AvgSpeedKMH
	}
	return Haversine{AvgSpeedKMH: avgSpeedKMH}
}

// Route implements Provider. Never errors: distance 0 <=> duration 0.
func (h Haversine) Route(_ context.Context, a, b orb.Point) model.RouteInfo {
	km := DistanceKM(a, b)
	return model.RouteInfo{
		DistanceKM:  km,
		DurationMin: km / h.AvgSpeedKMH * 60,
		LiveRouting: false,
	}
}

// DistanceKM is the great-circle distance between two (lng,lat) points
// in kilometers, shared by the Haversine provider and the clusterer's
// radius checks.
func DistanceKM(a, b orb.Point) float64 {
	return geo.Distance(a, b) / 1000.0
}

// ORS talks to OpenRouteService's driving-car directions endpoint and
// falls through to Haversine on any failure: missing token, transport
// error, non-OK response, or a response that doesn't parse. Per
// spec.md's Open Questions, when a token IS configured the external
// call is genuinely authoritative — it is only skipped when Token=="".
type ORS struct {
	BaseURL    string
	Token      string
	Profile    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Fallback   Haversine
	Log        Logger
}

// NewORS builds an ORS provider. An empty token makes every Route call
// fall straight through to the haversine fallback, matching spec.md
// §6 ("absence => haversine-only").
func NewORS(baseURL, token, profile string, timeout time.Duration, client *http.Client, fallback Haversine, log Logger) *ORS {
	if client == nil {
		client = http.DefaultClient
	}
	if profile == "" {
		profile = "driving-car"
	}
	return &ORS{BaseURL: baseURL, Token: token, Profile: profile, Timeout: timeout, HTTPClient: client, Fallback: fallback, Log: log}
}

type orsDirectionsResp struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"summary"`
	} `json:"routes"`
}

// Route implements Provider. On success it returns the provider's
// driving distance/duration with LiveRouting=true; on any failure it
// silently substitutes the haversine estimate and logs the failure
// through Log.Error (Logger has no warn level).
func (o *ORS) Route(ctx context.Context, a, b orb.Point) model.RouteInfo {
	if o.Token == "" {
		return o.Fallback.Route(ctx, a, b)
	}

	info, err := o.route(ctx, a, b)
	if err != nil {
		if o.Log != nil {
			o.Log.Error("routing: ORS call failed, falling back to haversine", map[string]any{"error": err.Error()})
		}
		return o.Fallback.Route(ctx, a, b)
	}
	return info
}

func (o *ORS) route(ctx context.Context, a, b orb.Point) (model.RouteInfo, error) {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("%s/v2/directions/%s", o.BaseURL, o.Profile)
	body, _ := json.Marshal(map[string]any{
		"coordinates": [][]float64{{a[0], a[1]}, {b[0], b[1]}},
	})
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.RouteInfo{}, err
	}
	req.Header.Set("Authorization", o.Token)
	req.Header.Set("Content-Type", "application/json")

	observability.LoggerWithTrace(ctx).Debug().
		Str("profile", o.Profile).
		Float64("from_lng", a[0]).Float64("from_lat", a[1]).
		Float64("to_lng", b[0]).Float64("to_lat", b[1]).
		Msg("routing: requesting ORS directions")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return model.RouteInfo{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		redacted := observability.RedactJSON(b)
		return model.RouteInfo{}, fmt.Errorf("ors: %s: %s", resp.Status, string(redacted))
	}

	var parsed orsDirectionsResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.RouteInfo{}, fmt.Errorf("ors: decode response: %w", err)
	}
	if len(parsed.Routes) == 0 {
		return model.RouteInfo{}, fmt.Errorf("ors: no routes returned")
	}
	summary := parsed.Routes[0].Summary
	return model.RouteInfo{
		DistanceKM:  summary.Distance / 1000.0,
		DurationMin: summary.Duration / 60.0,
		LiveRouting: true,
	}, nil
}
