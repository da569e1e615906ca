package dedup

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/pfrederiksen/eventmerge/internal/event"
)

func rec(name, start, community string) *event.Record {
	return &event.Record{
		Name:        name,
		StartDate:   start,
		CommunityID: community,
		Metadata:    &event.Metadata{},
	}
}

func names(records []*event.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestBySignature(t *testing.T) {
	a := rec("Demo Night", "2026-03-12", "com_fractal")
	aRepeat := rec("  demo night ", "2026-03-12", "com_fractal")
	b := rec("Demo Night", "2026-03-13", "com_fractal")
	c := rec("Demo Night", "2026-03-12", "com_other")
	undated := rec("Coffee", "", "")
	undatedRepeat := rec("Coffee", "", "")

	tests := []struct {
		name        string
		input       []*event.Record
		wantNames   []string
		wantRemoved int
	}{
		{
			name:        "empty",
			input:       []*event.Record{},
			wantNames:   []string{},
			wantRemoved: 0,
		},
		{
			name:        "first occurrence wins",
			input:       []*event.Record{a, b, aRepeat, c},
			wantNames:   []string{"Demo Night", "Demo Night", "Demo Night"},
			wantRemoved: 1,
		},
		{
			name:        "missing date and community collapse by name",
			input:       []*event.Record{undated, undatedRepeat},
			wantNames:   []string{"Coffee"},
			wantRemoved: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, removed := BySignature(tt.input)
			if removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}
			if diff := deep.Equal(names(got), tt.wantNames); diff != nil {
				t.Error(diff)
			}
		})
	}

	t.Run("keeps the first record instance", func(t *testing.T) {
		got, _ := BySignature([]*event.Record{a, b, aRepeat, c})
		if got[0] != a || got[1] != b || got[2] != c {
			t.Error("BySignature should keep the first instance of each signature in order")
		}
	})
}

func TestBySignature_Idempotent(t *testing.T) {
	input := []*event.Record{
		rec("A", "2026-01-01", "com_x"),
		rec("a", "2026-01-01", "com_x"),
		rec("B", "", ""),
		rec("B", "", ""),
		rec("C", "2026-01-02", "com_y"),
	}

	once, _ := BySignature(input)
	twice, removed := BySignature(once)

	if removed != 0 {
		t.Errorf("second pass removed %d records, want 0", removed)
	}
	if len(once) != len(twice) {
		t.Fatalf("len(once) = %d, len(twice) = %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("record %d differs between passes", i)
		}
	}
}

func TestBySignature_RunsBeforeURLGrouping(t *testing.T) {
	withURL := rec("Demo Night", "2026-03-12", "com_fractal")
	withURL.Metadata.SourceURL = "https://lu.ma/demo"
	withoutURL := rec("Demo Night", "2026-03-12", "com_fractal")

	unique, removed := BySignature([]*event.Record{withURL, withoutURL})
	if removed != 1 || len(unique) != 1 {
		t.Fatalf("BySignature() kept %d, removed %d; want 1 and 1", len(unique), removed)
	}

	matcher, _ := NewURLMatcher(MatchHost)
	grouping := GroupBySourceURL(unique, matcher)
	if len(grouping.Groups)+len(grouping.Ungrouped) != 1 {
		t.Errorf("expected a single record after grouping, got %d groups and %d ungrouped",
			len(grouping.Groups), len(grouping.Ungrouped))
	}
}
