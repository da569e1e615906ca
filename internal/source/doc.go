// Package source loads raw event records from scraper output on disk.
//
// Three formats are understood, chosen by file extension:
//   - .json: an array of records or an object with an "events" array
//   - .html, .htm: saved pages carrying schema.org Event JSON-LD
//   - .ics: iCalendar feeds
//
// An input can be tagged with the community it was scraped for; records that
// do not name a community inherit it. Files that cannot be parsed are logged
// and skipped so one bad file never aborts a batch.
package source
