// Package database provides the SQLite history store for embedleak.
//
// The store keeps:
//   - synthesized pattern sets, keyed by seed fingerprint
//   - scan run summaries with their triage report as JSON
//   - the per-page results of each run
//
// Stored runs can be compared to see which pages became affected and which
// were fixed between two scans. The driver is modernc.org/sqlite, so the
// binary stays CGO-free.
package database
