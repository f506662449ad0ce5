// Package featureflags evaluates FEATURE_FLAGS, a comma-separated list such
// as "live_updates=25%,beta_search=off".
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// LiveUpdates gates the /api/ws notification stream.
const LiveUpdates = "live_updates"

type Manager struct {
	flags map[string]string
}

// NewManager parses raw, ignoring malformed pairs.
func NewManager(raw string) *Manager {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return &Manager{flags: out}
}

// Enabled reports whether name is on for memberID. Values are on/true/1,
// off/false/0, or "N%" for a rollout that is stable per member. Anonymous
// callers (memberID 0) only see flags that are fully on.
func (m *Manager) Enabled(name string, memberID uint) bool {
	if m == nil {
		return false
	}
	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case memberID == 0:
		return false
	}
	return rolloutBucket(name, memberID) < pct
}

// Raw returns a copy of the configured values.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.flags))
	for k, v := range m.flags {
		out[k] = v
	}
	return out
}

// Snapshot evaluates every configured flag for one member.
func (m *Manager) Snapshot(memberID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, memberID)
	}
	return out
}

// Names lists configured flags alphabetically.
func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.flags))
	for name := range m.flags {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, memberID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + strconv.FormatUint(uint64(memberID), 10)))
	return int(h.Sum32() % 100)
}
