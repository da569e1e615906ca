// Package calendar reads and writes iCalendar (RFC 5545) data.
//
// ParseICS turns the VEVENT components of a feed into raw event records for
// the pipeline. GenerateICS exports canonical events as a single calendar.
package calendar
