package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/eventmerge/internal/event"
)

const (
	prodID = "-//eventmerge//eventmerge//EN"
	// DefaultDuration is used when an event has a start but no usable end
	DefaultDuration = 2 * time.Hour
	// maxLineOctets is the RFC 5545 content line limit, excluding CRLF
	maxLineOctets = 75
)

// GenerateICS generates one iCalendar document holding every event with a
// parseable start date. Events without one are skipped. now stamps DTSTAMP and
// calName, when set, names the calendar.
func GenerateICS(events []*event.Record, calName string, now time.Time) string {
	var ics strings.Builder

	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:"+prodID)
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	if calName != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(calName))
	}

	for _, evt := range events {
		if evt == nil || evt.Start().IsZero() {
			continue
		}
		writeEvent(&ics, evt, now)
	}

	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

func writeEvent(ics *strings.Builder, evt *event.Record, now time.Time) {
	writeLine(ics, "BEGIN:VEVENT")

	// UID - stable across exports because it derives from the dedup signature
	writeLine(ics, fmt.Sprintf("UID:%s@eventmerge", UID(evt)))
	writeLine(ics, "DTSTAMP:"+formatICSTime(now))

	start := evt.Start()
	end := event.ParseTimestamp(evt.EndDate)
	if isDateOnly(evt.StartDate) {
		if end.IsZero() || !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		writeLine(ics, "DTSTART;VALUE=DATE:"+start.Format("20060102"))
		writeLine(ics, "DTEND;VALUE=DATE:"+end.Format("20060102"))
	} else {
		if end.IsZero() || !end.After(start) {
			end = start.Add(DefaultDuration)
		}
		writeLine(ics, "DTSTART:"+formatICSTime(start))
		writeLine(ics, "DTEND:"+formatICSTime(end))
	}

	writeLine(ics, "SUMMARY:"+escapeICS(evt.Name))
	if evt.Description != "" {
		writeLine(ics, "DESCRIPTION:"+escapeICS(evt.Description))
	}

	if meta := evt.Metadata; meta != nil {
		if loc := locationText(meta.Venue); loc != "" {
			writeLine(ics, "LOCATION:"+escapeICS(loc))
		}
		if meta.SourceURL != "" {
			writeLine(ics, "URL:"+meta.SourceURL)
		}
		if org := meta.Organizer; org != nil && org.Name != "" {
			line := "ORGANIZER;CN=" + quoteParam(org.Name)
			if org.Email != "" {
				line += ":mailto:" + org.Email
			} else {
				line += ":invalid:nomail"
			}
			writeLine(ics, line)
		}
	}

	if len(evt.Category) > 0 {
		cats := make([]string, len(evt.Category))
		for i, c := range evt.Category {
			cats[i] = escapeICS(c)
		}
		writeLine(ics, "CATEGORIES:"+strings.Join(cats, ","))
	}

	writeLine(ics, "STATUS:CONFIRMED")
	writeLine(ics, "TRANSP:OPAQUE")
	writeLine(ics, "END:VEVENT")
}

// UID derives a stable identifier from the event's dedup signature
func UID(evt *event.Record) string {
	sum := sha256.Sum256([]byte(event.Signature(evt)))
	return hex.EncodeToString(sum[:8])
}

func locationText(v *event.Venue) string {
	if v.IsBlank() {
		return ""
	}
	parts := make([]string, 0, 2)
	if v.Name != "" {
		parts = append(parts, v.Name)
	}
	if v.Address != "" {
		parts = append(parts, v.Address)
	}
	return strings.Join(parts, ", ")
}

func isDateOnly(value string) bool {
	value = strings.TrimSpace(value)
	return len(value) == len("2006-01-02") && !strings.Contains(value, "T")
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

func quoteParam(s string) string {
	if strings.ContainsAny(s, ":;,") {
		return `"` + strings.ReplaceAll(s, `"`, "'") + `"`
	}
	return s
}

// writeLine writes a content line folded at 75 octets, never splitting a
// UTF-8 sequence.
func writeLine(b *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines lose one octet to the leading space
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func isRuneStart(c byte) bool {
	return c&0xC0 != 0x80
}
