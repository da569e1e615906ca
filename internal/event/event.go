package event

import (
	"encoding/json"
	"fmt"

	"github.com/pfrederiksen/eventmerge/internal/jsonx"
)

// Record represents one occurrence of an event as reported by exactly one source
type Record struct {
	Name        string     `json:"name"`
	StartDate   string     `json:"startDate,omitempty"`   // ISO-8601, empty when unknown
	EndDate     string     `json:"endDate,omitempty"`     // ISO-8601, empty when unknown
	CommunityID string     `json:"communityId,omitempty"` // organizing community
	LocationID  string     `json:"locationId,omitempty"`  // key into the location registry
	Description string     `json:"description"`
	Category    StringList `json:"category,omitempty"`
	Metadata    *Metadata  `json:"metadata"`

	// Extra holds top-level keys this package does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

// Metadata carries per-source details and, after merging, provenance
type Metadata struct {
	SourceURL             string      `json:"source_url,omitempty"`
	Organizer             *Organizer  `json:"organizer,omitempty"`
	Organizers            []Organizer `json:"organizers,omitempty"`
	AssociatedCommunities []string    `json:"associated_communities,omitempty"`
	Speakers              []Speaker   `json:"speakers,omitempty"`
	SocialLinks           []string    `json:"social_links,omitempty"`
	Venue                 *Venue      `json:"venue,omitempty"`
	MergedFrom            int         `json:"merged_from,omitempty"` // number of source records merged

	Extra map[string]json.RawMessage `json:"-"`
}

// Organizer identifies who runs an event. Two organizers are the same only
// when every field matches, not just the name.
type Organizer struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Speaker is a person presenting at an event
type Speaker struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Bio   string `json:"bio,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Venue is the informal venue description a source attaches to an event
type Venue struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Type    string `json:"type,omitempty"`

	Extra map[string]json.RawMessage `json:"-"` // city, capacity, ...
}

// StringList decodes either a JSON array of strings or a single string.
type StringList []string

// UnmarshalJSON accepts null, "a" or ["a", "b"]. Numbers and booleans are
// read as their text.
func (l *StringList) UnmarshalJSON(data []byte) error {
	list, err := coerceStrings(data)
	if err != nil {
		return fmt.Errorf("category must be a string or list of strings: %w", err)
	}
	*l = list
	return nil
}

var (
	recordKeys    = map[string]bool{"name": true, "startDate": true, "endDate": true, "communityId": true, "locationId": true, "description": true, "category": true, "metadata": true}
	metadataKeys  = map[string]bool{"source_url": true, "organizer": true, "organizers": true, "associated_communities": true, "speakers": true, "social_links": true, "venue": true, "merged_from": true}
	organizerKeys = map[string]bool{"name": true, "email": true, "phone": true, "website": true}
	speakerKeys   = map[string]bool{"name": true, "title": true, "bio": true}
	venueKeys     = map[string]bool{"name": true, "address": true, "type": true}
)

// Known members that do not fit their field are kept in Extra rather than
// failing the decode, so one odd value never costs the whole record.

type recordJSON Record

// UnmarshalJSON decodes a record and keeps unknown top-level keys in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	obj, err := jsonx.DecodeObject(data)
	if err != nil {
		return err
	}

	var rec Record
	obj.Field("name", stringField(&rec.Name))
	obj.Field("startDate", stringField(&rec.StartDate))
	obj.Field("endDate", stringField(&rec.EndDate))
	obj.Field("communityId", stringField(&rec.CommunityID))
	obj.Field("locationId", stringField(&rec.LocationID))
	obj.Field("description", stringField(&rec.Description))
	obj.Field("category", func(raw json.RawMessage) error {
		return rec.Category.UnmarshalJSON(raw)
	})
	obj.Field("metadata", func(raw json.RawMessage) error {
		if isNull(raw) {
			return nil
		}
		rec.Metadata = &Metadata{}
		if err := rec.Metadata.UnmarshalJSON(raw); err != nil {
			rec.Metadata = nil
			return err
		}
		return nil
	})
	rec.Extra = obj.Extra(recordKeys)

	*r = rec
	return nil
}

// MarshalJSON encodes the record followed by its Extra keys.
func (r Record) MarshalJSON() ([]byte, error) {
	return jsonx.WithExtra(recordJSON(r), r.Extra)
}

type metadataJSON Metadata

// UnmarshalJSON decodes metadata and keeps unknown keys in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	obj, err := jsonx.DecodeObject(data)
	if err != nil {
		return err
	}

	var meta Metadata
	obj.Field("source_url", stringField(&meta.SourceURL))
	obj.Field("organizer", func(raw json.RawMessage) (err error) {
		meta.Organizer, err = namedObject(raw, func(name string) Organizer { return Organizer{Name: name} })
		return err
	})
	obj.Field("organizers", func(raw json.RawMessage) (err error) {
		meta.Organizers, err = namedList(raw, func(name string) Organizer { return Organizer{Name: name} })
		return err
	})
	obj.Field("associated_communities", stringsField(&meta.AssociatedCommunities))
	obj.Field("speakers", func(raw json.RawMessage) (err error) {
		meta.Speakers, err = namedList(raw, func(name string) Speaker { return Speaker{Name: name} })
		return err
	})
	obj.Field("social_links", stringsField(&meta.SocialLinks))
	obj.Field("venue", func(raw json.RawMessage) (err error) {
		meta.Venue, err = namedObject(raw, func(name string) Venue { return Venue{Name: name} })
		return err
	})
	obj.Field("merged_from", intField(&meta.MergedFrom))
	meta.Extra = obj.Extra(metadataKeys)

	*m = meta
	return nil
}

// MarshalJSON encodes metadata followed by its Extra keys.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return jsonx.WithExtra(metadataJSON(m), m.Extra)
}

type organizerJSON Organizer

// UnmarshalJSON decodes an organizer and keeps extra contact fields.
func (o *Organizer) UnmarshalJSON(data []byte) error {
	obj, err := jsonx.DecodeObject(data)
	if err != nil {
		return err
	}

	var org Organizer
	obj.Field("name", stringField(&org.Name))
	obj.Field("email", stringField(&org.Email))
	obj.Field("phone", stringField(&org.Phone))
	obj.Field("website", stringField(&org.Website))
	org.Extra = obj.Extra(organizerKeys)

	*o = org
	return nil
}

// MarshalJSON encodes an organizer followed by its extra contact fields.
func (o Organizer) MarshalJSON() ([]byte, error) {
	return jsonx.WithExtra(organizerJSON(o), o.Extra)
}

type speakerJSON Speaker

func (s *Speaker) UnmarshalJSON(data []byte) error {
	obj, err := jsonx.DecodeObject(data)
	if err != nil {
		return err
	}

	var sp Speaker
	obj.Field("name", stringField(&sp.Name))
	obj.Field("title", stringField(&sp.Title))
	obj.Field("bio", stringField(&sp.Bio))
	sp.Extra = obj.Extra(speakerKeys)

	*s = sp
	return nil
}

func (s Speaker) MarshalJSON() ([]byte, error) {
	return jsonx.WithExtra(speakerJSON(s), s.Extra)
}

type venueJSON Venue

// UnmarshalJSON decodes a venue and keeps keys such as city in Extra.
func (v *Venue) UnmarshalJSON(data []byte) error {
	obj, err := jsonx.DecodeObject(data)
	if err != nil {
		return err
	}

	var venue Venue
	obj.Field("name", stringField(&venue.Name))
	obj.Field("address", stringField(&venue.Address))
	obj.Field("type", stringField(&venue.Type))
	venue.Extra = obj.Extra(venueKeys)

	*v = venue
	return nil
}

func (v Venue) MarshalJSON() ([]byte, error) {
	return jsonx.WithExtra(venueJSON(v), v.Extra)
}

// Equal reports structural equality, including extra contact fields
func (o Organizer) Equal(other Organizer) bool {
	return o.Name == other.Name &&
		o.Email == other.Email &&
		o.Phone == other.Phone &&
		o.Website == other.Website &&
		jsonx.Equal(o.Extra, other.Extra)
}

// IsBlank reports whether the venue carries neither a name nor an address
func (v *Venue) IsBlank() bool {
	return v == nil || (v.Name == "" && v.Address == "")
}

// Clone returns a deep copy of the record. Merging works on clones so that the
// records a source produced are never modified.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Category = cloneStrings(r.Category)
	out.Extra = jsonx.Clone(r.Extra)
	out.Metadata = r.Metadata.Clone()
	return &out
}

// Clone returns a deep copy of the metadata
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Organizer != nil {
		org := m.Organizer.clone()
		out.Organizer = &org
	}
	if m.Organizers != nil {
		out.Organizers = make([]Organizer, len(m.Organizers))
		for i, org := range m.Organizers {
			out.Organizers[i] = org.clone()
		}
	}
	out.AssociatedCommunities = cloneStrings(m.AssociatedCommunities)
	if m.Speakers != nil {
		out.Speakers = make([]Speaker, len(m.Speakers))
		for i, sp := range m.Speakers {
			sp.Extra = jsonx.Clone(sp.Extra)
			out.Speakers[i] = sp
		}
	}
	out.SocialLinks = cloneStrings(m.SocialLinks)
	out.Venue = m.Venue.Clone()
	out.Extra = jsonx.Clone(m.Extra)
	return &out
}

// Clone returns a deep copy of the venue
func (v *Venue) Clone() *Venue {
	if v == nil {
		return nil
	}
	out := *v
	out.Extra = jsonx.Clone(v.Extra)
	return &out
}

func (o Organizer) clone() Organizer {
	o.Extra = jsonx.Clone(o.Extra)
	return o
}

func cloneStrings[S ~[]string](in S) S {
	if in == nil {
		return nil
	}
	return append(S(nil), in...)
}
