// Package mangadex wraps the MangaDex catalog and page-server HTTP APIs:
// manga and chapter metadata, the paginated chapter feed, scanlation group
// lookups, and the at-home page locator endpoint.
package mangadex
