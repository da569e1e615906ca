package schema

import "testing"

func TestValidate_EventStore(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "minimal store",
			doc:  `{"events": []}`,
		},
		{
			name: "full event with unknown keys",
			doc: `{"events": [{
				"name": "Builders Night",
				"startDate": "2025-03-01T18:00:00Z",
				"endDate": null,
				"communityId": "com_fractal",
				"locationId": "loc_fractal",
				"description": "",
				"category": ["tech"],
				"metadata": {"source_url": "https://lu.ma/abc", "venue": {"name": "Fractal"}, "merged_from": 2, "rsvp": 40},
				"image": "x.png"
			}]}`,
		},
		{
			name: "category as bare string",
			doc:  `{"events": [{"name": "A", "category": "music"}]}`,
		},
		{
			name:    "missing events key",
			doc:     `{"items": []}`,
			wantErr: true,
		},
		{
			name: "entries are checked one at a time",
			doc:  `{"events": [{"startDate": "2025-01-01"}, 7]}`,
		},
		{
			name:    "events not an array",
			doc:     `{"events": {"name": "A"}}`,
			wantErr: true,
		},
		{
			name:    "trailing content",
			doc:     `{"events": []} {}`,
			wantErr: true,
		},
		{
			name:    "empty",
			doc:     "  ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(EventStore, []byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_StoredEvent(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "minimal", doc: `{"name": "A"}`},
		{name: "loosely typed fields", doc: `{"name": "A", "startDate": 1710000000, "metadata": {"organizer": "Alice", "speakers": [{"name": "X", "title": 5}], "venue": {"name": "Loft", "city": "NYC"}}}`},
		{name: "null metadata", doc: `{"name": "A", "metadata": null}`},
		{name: "without name", doc: `{"startDate": "2025-01-01"}`, wantErr: true},
		{name: "blank name", doc: `{"name": "  "}`, wantErr: true},
		{name: "name is a number", doc: `{"name": 7}`, wantErr: true},
		{name: "metadata is a string", doc: `{"name": "A", "metadata": "x"}`, wantErr: true},
		{name: "not an object", doc: `7`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(StoredEvent, []byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_LocationStore(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "auto location",
			doc: `{"locations": [{
				"id": "loc_auto_1", "name": "Hall", "address": "1 Main St", "type": "Venue",
				"coordinates": {"lat": null, "lng": null}, "capacity": "Small", "accessibility": true,
				"amenities": [], "images": [], "hours": {"monday": "By appointment"}
			}]}`,
		},
		{
			name: "real coordinates",
			doc:  `{"locations": [{"id": "loc_fractal", "coordinates": {"lat": 40.7, "lng": -73.9}}]}`,
		},
		{
			name:    "empty id",
			doc:     `{"locations": [{"id": ""}]}`,
			wantErr: true,
		},
		{
			name:    "locations not an array",
			doc:     `{"locations": {}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(LocationStore, []byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_UnknownDocument(t *testing.T) {
	if err := Validate(Document("nope.json"), []byte(`{}`)); err == nil {
		t.Error("Validate() expected error for unknown document")
	}
}
