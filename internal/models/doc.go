// Package models defines the values passed through the scan pipeline and the persisted scan record.
//
// The package contains two categories of types:
//
// 1. Pipeline values: transient structs handed from one pipeline step to the next
//   - [Frame] : raw captured image bytes plus rotation metadata
//   - [Candidate] : one decoded barcode payload with its symbology
//   - [LookupResult] : the snippet and source URL extracted from a search page
//   - [Outcome] : the terminal result of a single pipeline run
//
// 2. Persistent entities: database-backed records
//   - [Scan] : one finished pipeline run in the history journal
//
// Persistent entities implement the [Model] interface providing ID, timestamps, and validation.
// The [Repository] interface defines the journal's data access operations.
package models
