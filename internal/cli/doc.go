// Package cli implements the eventmerge command-line interface.
//
// The cli package provides the Cobra-based commands: run executes the
// dedup-and-merge pipeline over scraper output and updates the event store and
// location registry, list and stats report on the stored events, and
// export-ics writes them as an iCalendar feed. Settings come from the
// environment (see package config) and are overridden by flags.
package cli
