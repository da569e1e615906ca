package dedup

import (
	"testing"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

func withURL(r *event.Record, url string) *event.Record {
	r.Metadata.SourceURL = url
	return r
}

func TestNewURLMatcher(t *testing.T) {
	tests := []struct {
		mode     MatchMode
		wantMode MatchMode
		wantErr  bool
	}{
		{mode: "", wantMode: MatchHost},
		{mode: MatchHost, wantMode: MatchHost},
		{mode: MatchSubstring, wantMode: MatchSubstring},
		{mode: "regex", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			m, err := NewURLMatcher(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewURLMatcher() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && m.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", m.Mode, tt.wantMode)
			}
		})
	}
}

func TestURLMatcher_Matches(t *testing.T) {
	host, _ := NewURLMatcher(MatchHost)
	substring, _ := NewURLMatcher(MatchSubstring)

	tests := []struct {
		name          string
		url           string
		wantHost      bool
		wantSubstring bool
	}{
		{name: "platform url", url: "https://lu.ma/abc123", wantHost: true, wantSubstring: true},
		{name: "alternate domain", url: "https://luma.com/event/abc", wantHost: true, wantSubstring: false},
		{name: "subdomain", url: "https://www.lu.ma/abc", wantHost: true, wantSubstring: true},
		{name: "uppercase host", url: "https://LU.MA/abc", wantHost: true, wantSubstring: false},
		{name: "redirect wrapper", url: "https://click.example.com/r?u=https://lu.ma/abc", wantHost: false, wantSubstring: true},
		{name: "lookalike host", url: "https://lu.mall.example/abc", wantHost: false, wantSubstring: true},
		{name: "no scheme falls back to substring", url: "lu.ma/abc", wantHost: true, wantSubstring: true},
		{name: "other platform", url: "https://www.eventbrite.com/e/123", wantHost: false, wantSubstring: false},
		{name: "empty", url: "", wantHost: false, wantSubstring: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := host.Matches(tt.url); got != tt.wantHost {
				t.Errorf("host mode Matches(%q) = %v, want %v", tt.url, got, tt.wantHost)
			}
			if got := substring.Matches(tt.url); got != tt.wantSubstring {
				t.Errorf("substring mode Matches(%q) = %v, want %v", tt.url, got, tt.wantSubstring)
			}
		})
	}
}

func TestGroupBySourceURL(t *testing.T) {
	matcher, _ := NewURLMatcher(MatchHost)

	records := []*event.Record{
		withURL(rec("A1", "2026-01-01", "com_a"), "https://lu.ma/a"),
		withURL(rec("B1", "2026-01-02", "com_b"), "https://lu.ma/b"),
		rec("Plain", "2026-01-03", "com_c"),
		withURL(rec("A2", "2026-01-01", "com_d"), "https://lu.ma/a"),
		withURL(rec("Elsewhere", "2026-01-04", "com_e"), "https://meetup.com/x"),
		{Name: "No metadata"},
	}

	grouping := GroupBySourceURL(records, matcher)

	if len(grouping.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(grouping.Groups))
	}
	if grouping.Groups[0].URL != "https://lu.ma/a" || len(grouping.Groups[0].Records) != 2 {
		t.Errorf("first group = %s with %d records", grouping.Groups[0].URL, len(grouping.Groups[0].Records))
	}
	if grouping.Groups[1].URL != "https://lu.ma/b" || len(grouping.Groups[1].Records) != 1 {
		t.Errorf("second group = %s with %d records", grouping.Groups[1].URL, len(grouping.Groups[1].Records))
	}
	if len(grouping.Ungrouped) != 3 {
		t.Errorf("got %d ungrouped, want 3", len(grouping.Ungrouped))
	}
	if grouping.Duplicates() != 1 {
		t.Errorf("Duplicates() = %d, want 1", grouping.Duplicates())
	}

	total := len(grouping.Ungrouped)
	for _, g := range grouping.Groups {
		total += len(g.Records)
	}
	if total != len(records) {
		t.Errorf("grouping accounts for %d records, want %d", total, len(records))
	}
}
