// Package services defines shared utilities consumed by the sync pipeline and
// external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp manga and chapter identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures as
//     transient, identity, consistency, closed, pagination, or configuration.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across the codebase.
package services
