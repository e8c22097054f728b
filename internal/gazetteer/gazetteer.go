// Package gazetteer resolves attraction names to geographic coordinates
// (C1). It is the authoritative name->coordinate table: loaded once at
// startup from a static YAML record set and read-only for the rest of
// the process lifetime.
package gazetteer

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"wayfarer/internal/model"
)

// FuzzyThreshold is the minimum partial-ratio score (0-100) for a fuzzy
// match to be accepted, per spec.md §4.1.
const FuzzyThreshold = 80

// Source records how a lookup was satisfied.
type Source string

const (
	SourceExact    Source = "exact"
	SourceFuzzy    Source = "fuzzy"
	SourceFallback Source = "fallback"
)

// Result is what Resolve returns for a hit.
type Result struct {
	Entry  model.GazetteerEntry
	Point  orb.Point
	Source Source
	Score  int // fuzzy score, 0-100; 100 for exact matches
}

// record is the on-disk shape of a single gazetteer entry.
type record struct {
	Name     string            `yaml:"name"`
	Lat      float64           `yaml:"lat"`
	Lng      float64           `yaml:"lng"`
	Category string            `yaml:"category"`
	Metadata map[string]string `yaml:"metadata"`
}

type file struct {
	Attractions []record `yaml:"attractions"`
}

// Gazetteer is process-wide, read-only after Load, and safe for
// concurrent reads without external locking (the underlying maps and
// slices are never mutated post-construction, so the mutex below only
// guards against a future Reload, not normal lookups).
type Gazetteer struct {
	mu        sync.RWMutex
	byNameLow map[string]model.GazetteerEntry
	canonical []string // parallel to entries, for fuzzy scan, in load order
	entries   []model.GazetteerEntry
}

// Load reads a YAML record set from path and builds the exact-match map
// and fuzzy-scan list described in spec.md §4.1. A missing or malformed
// source file is fatal to startup, per spec.md §7 (GazetteerMissing).
func Load(path string) (*Gazetteer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gazetteer: read %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("gazetteer: parse %s: %w", path, err)
	}
	if len(f.Attractions) == 0 {
		return nil, fmt.Errorf("gazetteer: %s contains no attractions", path)
	}

	g := &Gazetteer{
		byNameLow: make(map[string]model.GazetteerEntry, len(f.Attractions)),
		canonical: make([]string, 0, len(f.Attractions)),
		entries:   make([]model.GazetteerEntry, 0, len(f.Attractions)),
	}
	for _, rec := range f.Attractions {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			continue
		}
		entry := model.GazetteerEntry{
			Name:     name,
			Lat:      rec.Lat,
			Lng:      rec.Lng,
			Category: rec.Category,
			Metadata: rec.Metadata,
		}
		low := strings.ToLower(name)
		if _, exists := g.byNameLow[low]; !exists {
			g.byNameLow[low] = entry
		}
		g.canonical = append(g.canonical, name)
		g.entries = append(g.entries, entry)
	}
	return g, nil
}

// Resolve implements the lookup contract from spec.md §4.1: exact match
// first, then partial-ratio fuzzy scan against every canonical name,
// ties broken by first-encountered entry. ok is false only when neither
// matches; that is never an error on its own (fuzzy misses are not
// errors) — callers decide whether to apply a fallback centroid.
func (g *Gazetteer) Resolve(name string) (Result, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Result{}, false
	}
	low := strings.ToLower(trimmed)
	if entry, ok := g.byNameLow[low]; ok {
		return Result{
			Entry:  entry,
			Point:  orb.Point{entry.Lng, entry.Lat},
			Source: SourceExact,
			Score:  100,
		}, true
	}

	bestScore := -1
	bestIdx := -1
	for i, canon := range g.canonical {
		score := partialRatio(low, strings.ToLower(canon))
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx >= 0 && bestScore >= FuzzyThreshold {
		entry := g.entries[bestIdx]
		return Result{
			Entry:  entry,
			Point:  orb.Point{entry.Lng, entry.Lat},
			Source: SourceFuzzy,
			Score:  bestScore,
		}, true
	}
	return Result{}, false
}

// Len reports how many entries were loaded, counting every entry in the
// file (entries that share a name are each counted).
func (g *Gazetteer) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// partialRatio scores how well query matches anywhere inside candidate,
// on a 0-100 scale, mirroring fuzzywuzzy's partial_ratio: slide a window
// the length of the shorter string across the longer one and keep the
// best Levenshtein-derived similarity. Case-insensitive by contract of
// the caller (both arguments are expected pre-lowered).
func partialRatio(query, candidate string) int {
	if query == "" || candidate == "" {
		return 0
	}
	shorter, longer := query, candidate
	if len(longer) < len(shorter) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == len(longer) {
		return ratio(shorter, longer)
	}

	best := 0
	shortLen := len(shorter)
	for start := 0; start+shortLen <= len(longer); start++ {
		window := longer[start : start+shortLen]
		if s := ratio(shorter, window); s > best {
			best = s
		}
	}
	return best
}

// ratio converts a Levenshtein edit distance into a 0-100 similarity
// score, the way fuzzywuzzy derives its whole-string ratio.
func ratio(a, b string) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	score := 100.0 * (1.0 - float64(dist)/float64(maxLen))
	if score < 0 {
		score = 0
	}
	return int(score)
}
