package dedup

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

// MatchMode selects how a source URL is recognized as a booking-platform URL
type MatchMode string

const (
	// MatchHost parses the URL and checks its host against an allow-list,
	// falling back to substring matching when no host can be parsed.
	MatchHost MatchMode = "host"
	// MatchSubstring tests for the platform marker anywhere in the value.
	// It reproduces how older stores were grouped.
	MatchSubstring MatchMode = "substring"
)

// DefaultMarker is the booking platform marker used for substring matching
const DefaultMarker = "lu.ma"

// DefaultHosts are the booking platform's hostnames
var DefaultHosts = []string{"lu.ma", "luma.com"}

// URLMatcher recognizes booking-platform URLs
type URLMatcher struct {
	Mode   MatchMode
	Hosts  []string
	Marker string
}

// NewURLMatcher returns a matcher for the given mode with the default platform hosts
func NewURLMatcher(mode MatchMode) (URLMatcher, error) {
	switch mode {
	case "", MatchHost:
		mode = MatchHost
	case MatchSubstring:
	default:
		return URLMatcher{}, fmt.Errorf("invalid url match mode: %s (must be 'host' or 'substring')", mode)
	}
	return URLMatcher{
		Mode:   mode,
		Hosts:  append([]string(nil), DefaultHosts...),
		Marker: DefaultMarker,
	}, nil
}

// Matches reports whether sourceURL points at the booking platform
func (m URLMatcher) Matches(sourceURL string) bool {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return false
	}
	if m.Mode == MatchSubstring {
		return m.containsMarker(sourceURL)
	}

	u, err := url.Parse(sourceURL)
	if err != nil || u.Hostname() == "" {
		return m.containsMarker(sourceURL)
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range m.Hosts {
		allowed = strings.ToLower(allowed)
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (m URLMatcher) containsMarker(value string) bool {
	marker := m.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	return strings.Contains(value, marker)
}

// Group is a set of records sharing one booking-platform URL
type Group struct {
	URL     string
	Records []*event.Record
}

// Grouping is the partition produced by GroupBySourceURL
type Grouping struct {
	Groups    []*Group // in order of first appearance
	Ungrouped []*event.Record
}

// GroupBySourceURL partitions records by metadata.source_url. Records whose URL
// the matcher recognizes are grouped by the exact URL string; the rest are
// ungrouped. Every input record lands in exactly one place.
func GroupBySourceURL(records []*event.Record, m URLMatcher) *Grouping {
	result := &Grouping{
		Groups:    make([]*Group, 0),
		Ungrouped: make([]*event.Record, 0),
	}
	byURL := make(map[string]*Group)

	for _, rec := range records {
		sourceURL := ""
		if rec.Metadata != nil {
			sourceURL = strings.TrimSpace(rec.Metadata.SourceURL)
		}
		if !m.Matches(sourceURL) {
			result.Ungrouped = append(result.Ungrouped, rec)
			continue
		}

		group, ok := byURL[sourceURL]
		if !ok {
			group = &Group{URL: sourceURL}
			byURL[sourceURL] = group
			result.Groups = append(result.Groups, group)
		}
		group.Records = append(group.Records, rec)
	}

	return result
}

// Duplicates returns the number of groups with more than one record
func (g *Grouping) Duplicates() int {
	n := 0
	for _, group := range g.Groups {
		if len(group.Records) > 1 {
			n++
		}
	}
	return n
}
