package source

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

// LoadHTML extracts schema.org Event objects from the JSON-LD blocks of a saved
// page. pageURL is used as the source URL for events that carry none; the
// page's canonical link wins over it when present.
func LoadHTML(r io.Reader, pageURL string) ([]event.Raw, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	if canonical, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.TrimSpace(canonical) != "" {
		pageURL = strings.TrimSpace(canonical)
	} else if og, ok := doc.Find(`meta[property="og:url"]`).First().Attr("content"); ok && strings.TrimSpace(og) != "" {
		pageURL = strings.TrimSpace(og)
	}

	records := make([]event.Raw, 0)
	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, sel *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			// Broken JSON-LD blocks are common; skip the block, not the page
			return
		}
		for _, obj := range collectEvents(payload) {
			records = append(records, fromJSONLD(obj, pageURL))
		}
	})

	return records, nil
}

// collectEvents walks arrays and @graph containers looking for Event objects
func collectEvents(v any) []map[string]any {
	var out []map[string]any
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			out = append(out, collectEvents(item)...)
		}
	case map[string]any:
		if isEventType(node["@type"]) {
			out = append(out, node)
		}
		if graph, ok := node["@graph"]; ok {
			out = append(out, collectEvents(graph)...)
		}
	}
	return out
}

// isEventType matches "Event" and its subtypes such as "SocialEvent"
func isEventType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.HasSuffix(t, "Event")
	case []any:
		for _, item := range t {
			if isEventType(item) {
				return true
			}
		}
	}
	return false
}

func fromJSONLD(obj map[string]any, pageURL string) event.Raw {
	rec := event.Raw{}
	meta := map[string]any{}

	if name := text(obj["name"]); name != "" {
		rec["name"] = name
	} else {
		rec["name"] = ""
	}
	if v := text(obj["startDate"]); v != "" {
		rec["startDate"] = v
	}
	if v := text(obj["endDate"]); v != "" {
		rec["endDate"] = v
	}
	if v := text(obj["description"]); v != "" {
		rec["description"] = v
	}
	if cats := keywords(obj["keywords"]); len(cats) > 0 {
		rec["category"] = cats
	}
	if img := text(obj["image"]); img != "" {
		rec["image"] = img
	}

	if u := text(obj["url"]); u != "" {
		meta["source_url"] = u
	} else if pageURL != "" {
		meta["source_url"] = pageURL
	}

	if venue := place(obj["location"]); venue != nil {
		meta["venue"] = venue
	}

	orgs := people(obj["organizer"], true)
	if len(orgs) > 0 {
		meta["organizer"] = orgs[0]
	}
	if len(orgs) > 1 {
		meta["organizers"] = orgs
	}

	if speakers := people(obj["performer"], false); len(speakers) > 0 {
		meta["speakers"] = speakers
	}

	rec["metadata"] = meta
	return rec
}

// text reads a string value, or the first string of a list, or an object's @value
func text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if s := text(item); s != "" {
				return s
			}
		}
	case map[string]any:
		if s := text(t["@value"]); s != "" {
			return s
		}
		return text(t["url"])
	}
	return ""
}

func keywords(v any) []string {
	var raw []string
	switch t := v.(type) {
	case string:
		raw = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	out := make([]string, 0, len(raw))
	for _, k := range raw {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// place converts a schema.org Place (or a bare string) into a venue map
func place(v any) map[string]any {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return map[string]any{"name": s}
		}
	case []any:
		for _, item := range t {
			if venue := place(item); venue != nil {
				return venue
			}
		}
	case map[string]any:
		venue := map[string]any{}
		if name := text(t["name"]); name != "" {
			venue["name"] = name
		}
		if addr := address(t["address"]); addr != "" {
			venue["address"] = addr
		}
		if t["@type"] == "VirtualLocation" {
			venue["type"] = "online"
		}
		if len(venue) > 0 {
			return venue
		}
	}
	return nil
}

func address(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		parts := make([]string, 0, 4)
		for _, key := range []string{"streetAddress", "addressLocality", "addressRegion", "postalCode"} {
			if s := text(t[key]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// people converts Person/Organization values. Organizers keep contact fields;
// performers keep their job title.
func people(v any, contacts bool) []map[string]any {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case nil:
		return nil
	default:
		items = []any{t}
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		var p map[string]any
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				p = map[string]any{"name": s}
			}
		case map[string]any:
			name := text(t["name"])
			if name == "" {
				continue
			}
			p = map[string]any{"name": name}
			if contacts {
				if s := text(t["email"]); s != "" {
					p["email"] = strings.TrimPrefix(s, "mailto:")
				}
				if s := text(t["telephone"]); s != "" {
					p["phone"] = s
				}
				if s := text(t["url"]); s != "" {
					p["website"] = s
				}
			} else if s := text(t["jobTitle"]); s != "" {
				p["title"] = s
			}
		}
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
