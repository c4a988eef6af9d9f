// Command mangasync mirrors MangaDex manga into a local tree of chapter
// archives. Each chapter becomes a single zip whose filename carries the
// upstream metadata plus a stable key derived from the chapter id, so later
// runs can recognize and rename existing entries instead of re-downloading
// them.
package main
