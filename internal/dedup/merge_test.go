package dedup

import (
	"sort"
	"testing"

	"github.com/go-test/deep"
	"github.com/pfrederiksen/eventmerge/internal/community"
	"github.com/pfrederiksen/eventmerge/internal/event"
)

// lumaRecord builds a record listed on the booking platform
func lumaRecord(name, communityID, locationID string, venue *event.Venue) *event.Record {
	return &event.Record{
		Name:        name,
		StartDate:   "2026-04-02T18:00:00-04:00",
		CommunityID: communityID,
		LocationID:  locationID,
		Metadata: &event.Metadata{
			SourceURL: "https://lu.ma/abc123",
			Venue:     venue,
		},
	}
}

func TestMerge_GuestAndHostVenue(t *testing.T) {
	fractalVenue := &event.Venue{Name: "Fractal Tech", Address: "111 Conselyea St", Type: "Hub"}
	group := []*event.Record{
		lumaRecord("Sidequest Demo Day", community.Sidequest, "loc_sidequest_guess", &event.Venue{Name: "TBD"}),
		lumaRecord("Sidequest Demo Day @ Fractal", community.Fractal, "loc_fractal_hall", fractalVenue),
		lumaRecord("Demo Day", "com_other", "loc_other", nil),
	}

	merged := NewMerger(community.Default()).Merge(group)

	if merged.CommunityID != community.Sidequest {
		t.Errorf("CommunityID = %q, want %q", merged.CommunityID, community.Sidequest)
	}
	if diff := deep.Equal(merged.Metadata.AssociatedCommunities, []string{community.Fractal, "com_other"}); diff != nil {
		t.Errorf("associated communities: %v", diff)
	}
	if merged.LocationID != "loc_fractal_hall" {
		t.Errorf("LocationID = %q, want the host's own event location", merged.LocationID)
	}
	if diff := deep.Equal(merged.Metadata.Venue, fractalVenue); diff != nil {
		t.Errorf("venue: %v", diff)
	}
	if merged.Name != "Sidequest Demo Day" {
		t.Errorf("Name = %q, want base record's name", merged.Name)
	}
	if merged.Metadata.MergedFrom != 3 {
		t.Errorf("MergedFrom = %d, want 3", merged.Metadata.MergedFrom)
	}
}

func TestMerge_GuestAndHostWithoutHostVenue(t *testing.T) {
	group := []*event.Record{
		lumaRecord("Build Night", "com_other", "loc_other", &event.Venue{Name: "Other Place"}),
		lumaRecord("Build Night", community.Fractal, "loc_fractal_hall", nil),
		lumaRecord("Build Night", community.Sidequest, "", nil),
	}

	merged := NewMerger(nil).Merge(group)

	if merged.CommunityID != community.Sidequest {
		t.Errorf("CommunityID = %q, want guest community", merged.CommunityID)
	}
	if merged.LocationID != "loc_other" || merged.Metadata.Venue.Name != "Other Place" {
		t.Errorf("location should be inherited from base when host supplies no venue, got %q / %+v",
			merged.LocationID, merged.Metadata.Venue)
	}
}

func TestMerge_HostVenuePresentForcesLocation(t *testing.T) {
	group := []*event.Record{
		lumaRecord("AI Salon", "com_other", "loc_other", nil),
		lumaRecord("AI Salon", community.Fractal, "", nil),
	}

	merged := NewMerger(community.Default()).Merge(group)

	if merged.LocationID != community.FractalVenueID {
		t.Errorf("LocationID = %q, want %q", merged.LocationID, community.FractalVenueID)
	}
	if merged.CommunityID != community.Fractal {
		t.Errorf("CommunityID = %q, want hosting community", merged.CommunityID)
	}
	if diff := deep.Equal(merged.Metadata.AssociatedCommunities, []string{"com_other"}); diff != nil {
		t.Error(diff)
	}
}

func TestMerge_PrimaryHostingAdoptsItsLocation(t *testing.T) {
	table := community.New(community.File{Hosting: []string{"com_hub"}})
	hubVenue := &event.Venue{Name: "The Hub", Address: "5 Elm St"}
	group := []*event.Record{
		lumaRecord("Workshop", "com_small", "loc_small", &event.Venue{Name: "Small"}),
		lumaRecord("Workshop", "com_hub", "", nil),
		lumaRecord("Workshop", "com_hub", "loc_hub", hubVenue),
	}

	merged := NewMerger(table).Merge(group)

	if merged.CommunityID != "com_hub" {
		t.Errorf("CommunityID = %q, want com_hub", merged.CommunityID)
	}
	if merged.LocationID != "loc_hub" {
		t.Errorf("LocationID = %q, want loc_hub", merged.LocationID)
	}
	if diff := deep.Equal(merged.Metadata.Venue, hubVenue); diff != nil {
		t.Error(diff)
	}
}

func TestMerge_AssociatedCommunitySuppliesLocation(t *testing.T) {
	table := community.New(community.File{})
	group := []*event.Record{
		lumaRecord("Meetup", "com_a", "", nil),
		lumaRecord("Meetup", "com_b", "", nil),
		lumaRecord("Meetup", "com_c", "loc_c", &event.Venue{Name: "C Space"}),
		lumaRecord("Meetup", "com_b", "loc_b", &event.Venue{Name: "B Space"}),
	}

	merged := NewMerger(table).Merge(group)

	if merged.CommunityID != "com_a" {
		t.Errorf("CommunityID = %q, want first community on ties", merged.CommunityID)
	}
	if diff := deep.Equal(merged.Metadata.AssociatedCommunities, []string{"com_b", "com_c"}); diff != nil {
		t.Error(diff)
	}
	if merged.LocationID != "loc_c" || merged.Metadata.Venue.Name != "C Space" {
		t.Errorf("expected first associated record with a location, got %q / %+v",
			merged.LocationID, merged.Metadata.Venue)
	}
}

func TestMerge_NoCommunities(t *testing.T) {
	group := []*event.Record{
		lumaRecord("Open Event", "", "loc_base", nil),
		lumaRecord("Open Event", "", "loc_other", nil),
	}

	merged := NewMerger(nil).Merge(group)

	if merged.CommunityID != "" {
		t.Errorf("CommunityID = %q, want empty", merged.CommunityID)
	}
	if len(merged.Metadata.AssociatedCommunities) != 0 {
		t.Errorf("AssociatedCommunities = %v, want none", merged.Metadata.AssociatedCommunities)
	}
	if merged.LocationID != "loc_base" {
		t.Errorf("LocationID = %q, want base location", merged.LocationID)
	}
}

func TestMerge_OrganizersStructuralUnion(t *testing.T) {
	ana := event.Organizer{Name: "Ana", Email: "ana@example.com"}
	anaOtherEmail := event.Organizer{Name: "Ana", Email: "ana@other.org"}

	group := []*event.Record{
		lumaRecord("Talk", "com_a", "", nil),
		lumaRecord("Talk", "com_b", "", nil),
		lumaRecord("Talk", "com_c", "", nil),
		lumaRecord("Talk", "com_d", "", nil),
	}
	group[0].Metadata.Organizer = &ana
	group[1].Metadata.Organizer = &event.Organizer{Name: "Ana", Email: "ana@example.com"}
	group[2].Metadata.Organizer = &anaOtherEmail

	merged := NewMerger(community.New(community.File{})).Merge(group)

	want := []event.Organizer{ana, anaOtherEmail}
	if diff := deep.Equal(merged.Metadata.Organizers, want); diff != nil {
		t.Errorf("organizers: %v", diff)
	}
}

func TestMerge_BaseOnlySetReductions(t *testing.T) {
	base := lumaRecord("Panel", "com_a", "", nil)
	base.Category = event.StringList{"AI", "Tech", "AI"}
	base.Metadata.Speakers = []event.Speaker{
		{Name: "Bo", Title: "CTO"},
		{Name: "Cy"},
		{Name: "Bo", Title: "Founder"},
	}
	base.Metadata.SocialLinks = []string{"https://x.com/a", "https://x.com/a", "https://ig.com/a"}

	sibling := lumaRecord("Panel", "com_b", "", nil)
	sibling.Category = event.StringList{"Art"}
	sibling.Metadata.Speakers = []event.Speaker{{Name: "Di"}}
	sibling.Metadata.SocialLinks = []string{"https://x.com/b"}

	merged := NewMerger(community.New(community.File{})).Merge([]*event.Record{base, sibling})

	if diff := deep.Equal(merged.Category, event.StringList{"AI", "Tech"}); diff != nil {
		t.Errorf("categories (siblings are not unioned): %v", diff)
	}
	wantSpeakers := []event.Speaker{{Name: "Bo", Title: "CTO"}, {Name: "Cy"}}
	if diff := deep.Equal(merged.Metadata.Speakers, wantSpeakers); diff != nil {
		t.Errorf("speakers (siblings are not unioned): %v", diff)
	}
	if diff := deep.Equal(merged.Metadata.SocialLinks, []string{"https://x.com/a", "https://ig.com/a"}); diff != nil {
		t.Errorf("social links (siblings are not unioned): %v", diff)
	}
}

func TestMerge_BaseWithoutCategoryStaysWithout(t *testing.T) {
	base := lumaRecord("Panel", "com_a", "", nil)
	sibling := lumaRecord("Panel", "com_b", "", nil)
	sibling.Category = event.StringList{"Art"}

	merged := NewMerger(nil).Merge([]*event.Record{base, sibling})

	if merged.Category != nil {
		t.Errorf("Category = %v, want nil when the base has none", merged.Category)
	}
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	group := []*event.Record{
		lumaRecord("Demo", community.Sidequest, "loc_s", &event.Venue{Name: "S"}),
		lumaRecord("Demo", community.Fractal, "loc_f", &event.Venue{Name: "F"}),
	}
	group[0].Category = event.StringList{"A", "A"}
	before := []*event.Record{group[0].Clone(), group[1].Clone()}

	_ = NewMerger(nil).Merge(group)

	if diff := deep.Equal(group, before); diff != nil {
		t.Errorf("Merge() modified its input: %v", diff)
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := NewMerger(nil).Merge(nil); got != nil {
		t.Errorf("Merge(nil) = %+v, want nil", got)
	}
}

func TestMerge_PermutationStable(t *testing.T) {
	speakers := []event.Speaker{{Name: "Bo"}, {Name: "Cy"}}
	build := func() []*event.Record {
		group := []*event.Record{
			lumaRecord("Demo Day", community.Sidequest, "loc_s", &event.Venue{Name: "S"}),
			lumaRecord("Demo Day", community.Fractal, "loc_f", &event.Venue{Name: "F"}),
			lumaRecord("Demo Day", "com_other", "loc_o", nil),
		}
		for i, r := range group {
			r.Metadata.Speakers = append([]event.Speaker(nil), speakers...)
			r.Metadata.Organizer = &event.Organizer{Name: []string{"Ana", "Bo", "Ana"}[i]}
		}
		return group
	}

	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	merger := NewMerger(community.Default())

	var reference *event.Record
	for _, perm := range permutations {
		base := build()
		group := []*event.Record{base[perm[0]], base[perm[1]], base[perm[2]]}
		merged := merger.Merge(group)

		if reference == nil {
			reference = merged
			continue
		}
		if merged.CommunityID != reference.CommunityID {
			t.Errorf("perm %v: CommunityID = %q, want %q", perm, merged.CommunityID, reference.CommunityID)
		}
		if merged.LocationID != reference.LocationID {
			t.Errorf("perm %v: LocationID = %q, want %q", perm, merged.LocationID, reference.LocationID)
		}
		if diff := deep.Equal(sorted(merged.Metadata.AssociatedCommunities), sorted(reference.Metadata.AssociatedCommunities)); diff != nil {
			t.Errorf("perm %v: associated set: %v", perm, diff)
		}
		if diff := deep.Equal(organizerNames(merged), organizerNames(reference)); diff != nil {
			t.Errorf("perm %v: organizer set: %v", perm, diff)
		}
		if diff := deep.Equal(speakerNames(merged), speakerNames(reference)); diff != nil {
			t.Errorf("perm %v: speaker set: %v", perm, diff)
		}
	}
}

func sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func organizerNames(r *event.Record) []string {
	var out []string
	for _, o := range r.Metadata.Organizers {
		out = append(out, o.Name)
	}
	return sorted(out)
}

func speakerNames(r *event.Record) []string {
	var out []string
	for _, s := range r.Metadata.Speakers {
		out = append(out, s.Name)
	}
	return sorted(out)
}
