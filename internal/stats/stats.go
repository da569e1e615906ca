// Package stats summarizes the canonical event store.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

// NoCommunity is the key used for events without an owning community
const NoCommunity = "(none)"

// Count is one bucket of a breakdown
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary holds store-wide counts and breakdowns
type Summary struct {
	Total        int `json:"total"`
	Upcoming     int `json:"upcoming"`
	Past         int `json:"past"`
	Undated      int `json:"undated"`
	WithLocation int `json:"with_location"`
	Merged       int `json:"merged"` // events built from more than one source record

	ByCommunity []Count `json:"by_community"`
	ByCategory  []Count `json:"by_category"`
	ByMonth     []Count `json:"by_month"` // keyed YYYY-MM, chronological
}

// Compute builds a Summary. Community and category breakdowns are ordered by
// count, largest first, then by key.
func Compute(events []*event.Record, now time.Time) *Summary {
	s := &Summary{}
	communities := map[string]int{}
	categories := map[string]int{}
	months := map[string]int{}

	for _, evt := range events {
		if evt == nil {
			continue
		}
		s.Total++

		start := evt.Start()
		switch {
		case start.IsZero():
			s.Undated++
		case start.Before(now):
			s.Past++
			months[start.UTC().Format("2006-01")]++
		default:
			s.Upcoming++
			months[start.UTC().Format("2006-01")]++
		}

		if evt.LocationID != "" {
			s.WithLocation++
		}
		if evt.Metadata != nil && evt.Metadata.MergedFrom > 1 {
			s.Merged++
		}

		owner := evt.CommunityID
		if owner == "" {
			owner = NoCommunity
		}
		communities[owner]++

		seen := map[string]bool{}
		for _, cat := range evt.Category {
			cat = strings.TrimSpace(cat)
			if cat == "" || seen[cat] {
				continue
			}
			seen[cat] = true
			categories[cat]++
		}
	}

	s.ByCommunity = byCount(communities)
	s.ByCategory = byCount(categories)
	s.ByMonth = byKey(months)
	return s
}

func byCount(m map[string]int) []Count {
	out := toCounts(m)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func byKey(m map[string]int) []Count {
	out := toCounts(m)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

func toCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	return out
}
