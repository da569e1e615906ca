// Package dedup decides which scraped records denote the same real-world event
// and merges them.
//
// Deduplication runs in two stages. BySignature drops exact repeats by
// name, start date and community. GroupBySourceURL then clusters records that
// share a booking-platform URL, and a Merger collapses each cluster into one
// canonical record. FilterPersisted finally removes records already present in
// the persisted store.
package dedup
