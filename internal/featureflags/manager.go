// Package featureflags evaluates rollout flags configured through FEATURE_FLAGS.
//
// The configuration is a comma separated list of name=value pairs, for
// example "live_feed=on,quote_retweets=25%,webp_variants=off". Values are
// on/true/1, off/false/0 or a percentage. Percentages select a stable
// subset of signed-in users; anonymous callers never fall inside one.
package featureflags

import (
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

type rule struct {
	raw     string
	percent int // 0..100; boolean flags use 0 or 100
}

func parseRule(value string) rule {
	r := rule{raw: value}
	switch value {
	case "on", "true", "1":
		r.percent = 100
		return r
	case "off", "false", "0":
		return r
	}
	n, ok := strings.CutSuffix(value, "%")
	if !ok {
		return r
	}
	pct, err := strconv.Atoi(n)
	if err != nil {
		return r
	}
	r.percent = min(max(pct, 0), 100)
	return r
}

// Manager holds the parsed flag set. A nil Manager reports every flag off.
type Manager struct {
	rules map[string]rule
}

func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule)}
	for _, item := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		m.rules[name] = parseRule(value)
	}
	return m
}

// Enabled reports whether name is on for userID.
func (m *Manager) Enabled(name, userID string) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	r, ok := m.rules[name]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == "":
		return false
	}
	return bucket(name, userID) < r.percent
}

// EnabledOr is Enabled for configured flags and fallback for unknown ones.
func (m *Manager) EnabledOr(name, userID string, fallback bool) bool {
	if m == nil {
		return fallback
	}
	if _, ok := m.rules[normalize(name)]; !ok {
		return fallback
	}
	return m.Enabled(name, userID)
}

// Raw returns the configured values keyed by normalized flag name.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, r := range m.rules {
		out[name] = r.raw
	}
	return out
}

func (m *Manager) Snapshot(userID string) map[string]bool {
	out := map[string]bool{}
	if m == nil {
		return out
	}
	for name := range maps.Keys(m.rules) {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name, userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % 100)
}
