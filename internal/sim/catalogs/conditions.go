package catalogs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Metrics are the quantities a bound may constrain. A bound key is "min" or
// "max" followed by the metric name with its first letter upper-cased, e.g.
// minFans or maxBandLoyalty.
var Metrics = []string{
	"money", "fans", "followers",
	"health", "skill", "talent", "hype", "cred", "stability", "burnout",
	"addiction", "image", "industryGoodwill", "algoBoost", "cataloguePower",
	"week", "bandVice", "bandLoyalty", "bandSize",
	"releasedSongs", "releasedAlbums", "looseSongs",
	// Only meaningful inside an arc's advance conditions.
	"stageWeeks", "stageEvents",
}

var FlagNames = []string{"onTour", "inStudio", "hasLabelDeal", "hasManager"}

// Bound is one parsed threshold predicate.
type Bound struct {
	Key    string
	Metric string
	Min    bool
	Value  int
}

// Conditions is a conjunction of named predicates. Absent predicates hold.
type Conditions struct {
	Bounds          map[string]int
	Flags           map[string]bool
	CompletedArcs   []string
	TriggeredEvents []string
}

func (c Conditions) IsEmpty() bool {
	return len(c.Bounds) == 0 && len(c.Flags) == 0 && len(c.CompletedArcs) == 0 && len(c.TriggeredEvents) == 0
}

// SortedBounds lists bounds by key so evaluation order never depends on map
// iteration.
func (c Conditions) SortedBounds() []Bound {
	keys := make([]string, 0, len(c.Bounds))
	for k := range c.Bounds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Bound, 0, len(keys))
	for _, k := range keys {
		metric, isMin, _ := ParseBoundKey(k)
		out = append(out, Bound{Key: k, Metric: metric, Min: isMin, Value: c.Bounds[k]})
	}
	return out
}

func (c Conditions) Bound(key string) (int, bool) {
	v, ok := c.Bounds[key]
	return v, ok
}

// ParseBoundKey splits "minFans" into ("fans", true).
func ParseBoundKey(key string) (metric string, isMin bool, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(key, "min"):
		rest, isMin = key[3:], true
	case strings.HasPrefix(key, "max"):
		rest = key[3:]
	default:
		return "", false, false
	}
	if rest == "" {
		return "", false, false
	}
	metric = strings.ToLower(rest[:1]) + rest[1:]
	for _, m := range Metrics {
		if m == metric {
			return metric, isMin, true
		}
	}
	return "", false, false
}

func BoundKey(metric string, isMin bool) string {
	prefix := "max"
	if isMin {
		prefix = "min"
	}
	return prefix + strings.ToUpper(metric[:1]) + metric[1:]
}

func isFlag(name string) bool {
	for _, f := range FlagNames {
		if f == name {
			return true
		}
	}
	return false
}

func (c *Conditions) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = Conditions{}
	for k, v := range raw {
		switch {
		case k == "completedArcs":
			if err := json.Unmarshal(v, &c.CompletedArcs); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		case k == "triggeredEvents":
			if err := json.Unmarshal(v, &c.TriggeredEvents); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		case isFlag(k):
			var f bool
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if c.Flags == nil {
				c.Flags = map[string]bool{}
			}
			c.Flags[k] = f
		default:
			if _, _, ok := ParseBoundKey(k); !ok {
				return fmt.Errorf("unknown condition %q", k)
			}
			var n int
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			if c.Bounds == nil {
				c.Bounds = map[string]int{}
			}
			c.Bounds[k] = n
		}
	}
	return nil
}

func (c Conditions) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	for k, v := range c.Bounds {
		out[k] = v
	}
	for k, v := range c.Flags {
		out[k] = v
	}
	if len(c.CompletedArcs) > 0 {
		out["completedArcs"] = c.CompletedArcs
	}
	if len(c.TriggeredEvents) > 0 {
		out["triggeredEvents"] = c.TriggeredEvents
	}
	return json.Marshal(out)
}

// Min and Max are builders for conditions written in Go.
func Min(metric string, v int) Conditions { return Conditions{}.WithMin(metric, v) }
func Max(metric string, v int) Conditions { return Conditions{}.WithMax(metric, v) }

func (c Conditions) WithMin(metric string, v int) Conditions { return c.with(BoundKey(metric, true), v) }
func (c Conditions) WithMax(metric string, v int) Conditions { return c.with(BoundKey(metric, false), v) }

func (c Conditions) WithFlag(name string, v bool) Conditions {
	flags := make(map[string]bool, len(c.Flags)+1)
	for k, f := range c.Flags {
		flags[k] = f
	}
	flags[name] = v
	c.Flags = flags
	return c
}

func (c Conditions) with(key string, v int) Conditions {
	bounds := make(map[string]int, len(c.Bounds)+1)
	for k, b := range c.Bounds {
		bounds[k] = b
	}
	bounds[key] = v
	c.Bounds = bounds
	return c
}
