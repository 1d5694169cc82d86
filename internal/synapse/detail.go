package synapse

import (
	"strconv"
	"strings"
)

const deltaKey = "delta="

// Correction is the payload of a correction synapse.
type Correction struct {
	Classification string
	Delta          float64
}

// Detail renders "<classification>:delta=<n>".
func (c Correction) Detail() string {
	return c.Classification + ":" + deltaKey + FormatNumber(c.Delta)
}

// ParseCorrection reads a correction detail string. The classification is
// everything before the first colon; the delta is parsed from the "delta="
// substring wherever it appears.
func ParseCorrection(detail string) (Correction, bool) {
	delta, ok := ParseDelta(detail)
	if !ok {
		return Correction{}, false
	}
	class, _, _ := strings.Cut(detail, ":")
	return Correction{Classification: class, Delta: delta}, true
}

// ParseDelta extracts the numeric value following "delta=" in detail.
func ParseDelta(detail string) (float64, bool) {
	i := strings.Index(detail, deltaKey)
	if i < 0 {
		return 0, false
	}
	rest := detail[i+len(deltaKey):]
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !strings.ContainsRune("+-.0123456789eE", r)
	})
	if end >= 0 {
		rest = rest[:end]
	}
	v, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Hint is the payload of a resolution_hint synapse.
type Hint struct {
	Classification string
	Action         string
}

// Detail renders "<classification>:<action>".
func (h Hint) Detail() string {
	return h.Classification + ":" + h.Action
}

// ParseHint splits a resolution hint detail on its first colon.
func ParseHint(detail string) (Hint, bool) {
	class, action, ok := strings.Cut(detail, ":")
	if !ok || class == "" || action == "" {
		return Hint{}, false
	}
	return Hint{Classification: class, Action: action}, true
}

// FormatNumber renders f in the shortest form that round-trips.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
