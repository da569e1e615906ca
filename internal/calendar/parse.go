package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

// ParseICS reads every VEVENT in r as a raw event record. Components nested
// inside an event (VALARM) are ignored. Properties the record schema has no
// place for are dropped, except the UID which is kept as metadata.ics_uid.
func ParseICS(r io.Reader) ([]event.Raw, error) {
	cal, err := ics.ParseCalendarWithOptions(r, ics.WithUnknownPropertyHandler(ics.AcceptUnknownPropertyHandler))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}

	var records []event.Raw
	for _, vevent := range cal.Events() {
		records = append(records, buildRecord(vevent.Properties))
	}
	return records, nil
}

// buildRecord maps VEVENT properties onto a raw record. TEXT values arrive
// already unescaped.
func buildRecord(props []ics.IANAProperty) event.Raw {
	rec := event.Raw{}
	meta := map[string]any{}

	for _, p := range props {
		switch ics.Property(strings.ToUpper(p.IANAToken)) {
		case ics.PropertySummary:
			rec["name"] = p.Value
		case ics.PropertyDescription:
			rec["description"] = p.Value
		case ics.PropertyDtstart:
			if v := icsTimestamp(p.BaseProperty); v != "" {
				rec["startDate"] = v
			}
		case ics.PropertyDtend:
			if v := icsTimestamp(p.BaseProperty); v != "" {
				rec["endDate"] = v
			}
		case ics.PropertyUrl:
			meta["source_url"] = strings.TrimSpace(p.Value)
		case ics.PropertyUid:
			meta["ics_uid"] = strings.TrimSpace(p.Value)
		case ics.PropertyLocation:
			if venue := parseLocation(p.Value); venue != nil {
				meta["venue"] = venue
			}
		case ics.PropertyOrganizer:
			if org := parseOrganizer(p.BaseProperty); org != nil {
				meta["organizer"] = org
			}
		case ics.PropertyCategories:
			cats, _ := rec["category"].([]string)
			for _, c := range strings.Split(p.Value, ",") {
				if c = strings.TrimSpace(c); c != "" {
					cats = append(cats, c)
				}
			}
			if len(cats) > 0 {
				rec["category"] = cats
			}
		}
	}

	if _, ok := rec["name"]; !ok {
		// the Normalizer drops nameless records; keep them so drops are counted
		rec["name"] = ""
	}
	rec["metadata"] = meta
	return rec
}

func param(p ics.BaseProperty, name ics.Parameter) string {
	if values := p.ICalParameters[string(name)]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// icsTimestamp converts DATE and DATE-TIME values to the ISO-8601 forms the
// event store uses. Floating times stay zoneless. It returns "" for values it
// cannot read.
func icsTimestamp(p ics.BaseProperty) string {
	value := strings.TrimSpace(p.Value)

	if strings.EqualFold(param(p, ics.ParameterValue), "DATE") || len(value) == len("20060102") {
		t, err := time.Parse("20060102", value)
		if err != nil {
			return ""
		}
		return t.Format("2006-01-02")
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	if tzid := param(p, ics.ParameterTzid); tzid != "" {
		if loc, err := time.LoadLocation(tzid); err == nil {
			if t, err := time.ParseInLocation("20060102T150405", value, loc); err == nil {
				return t.Format(time.RFC3339)
			}
		}
	}

	t, err := time.Parse("20060102T150405", value)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02T15:04:05")
}

// parseLocation reads "Venue Name, street, city" as a venue name followed by
// its address.
func parseLocation(value string) map[string]any {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	name, address, _ := strings.Cut(value, ",")
	venue := map[string]any{"name": strings.TrimSpace(name)}
	if address = strings.TrimSpace(address); address != "" {
		venue["address"] = address
	}
	return venue
}

func parseOrganizer(p ics.BaseProperty) map[string]any {
	org := map[string]any{}
	if cn := strings.TrimSpace(param(p, ics.ParameterCn)); cn != "" {
		org["name"] = cn
	}
	value := strings.TrimSpace(p.Value)
	if strings.HasPrefix(strings.ToLower(value), "mailto:") {
		if email := strings.TrimSpace(value[len("mailto:"):]); email != "" {
			org["email"] = email
		}
	}
	if len(org) == 0 {
		return nil
	}
	if _, ok := org["name"]; !ok {
		org["name"] = org["email"]
	}
	return org
}
