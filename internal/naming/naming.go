// Package naming derives stable, filesystem-safe identifiers and display
// filenames for manga directories and chapter archives. Display names embed
// mutable metadata; the stable key suffix is the only durable join key.
package naming

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"mangasync/internal/services"
)

// ArchiveExt is the extension of every published chapter archive.
const ArchiveExt = ".zip"

// This is much more restrictive than what is truly necessary for safety.
var (
	unsafeRunes         = regexp.MustCompile(`[^~☆:;’'",#!\(\)!\pL\pN\-_+=\[\]. ]+`)
	unsafeRunesQuestion = regexp.MustCompile(`[^?~☆:;’'",#!\(\)!\pL\pN\-_+=\[\]. ]+`)
	repeatedHyphens     = regexp.MustCompile(`--+`)
)

// StableKey encodes a work item's UUID as a fixed-length, filesystem-safe
// string. The same id always yields the same key; distinct ids never collide.
func StableKey(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", services.Wrap(services.ErrIdentity, "naming", "parse uuid", id, err)
	}
	return base64.RawURLEncoding.EncodeToString(parsed[:]), nil
}

// Sanitizer rewrites display text into the approved filename character set.
// The question-mark mode is selected once per process from configuration.
type Sanitizer struct {
	re *regexp.Regexp
}

// NewSanitizer returns a sanitizer, optionally permitting literal question marks.
func NewSanitizer(allowQuestionMarks bool) *Sanitizer {
	re := unsafeRunes
	if allowQuestionMarks {
		re = unsafeRunesQuestion
	}
	return &Sanitizer{re: re}
}

// Clean replaces every disallowed run with a single hyphen, collapses repeated
// hyphens, and trims leading and trailing hyphens and spaces.
func (s *Sanitizer) Clean(raw string) string {
	out := s.re.ReplaceAllString(raw, "-")
	out = repeatedHyphens.ReplaceAllString(out, "-")
	return strings.Trim(out, "- ")
}

// ChapterFilename composes the archive filename for one chapter:
// volume and title in fixed precedence, optional bracketed group credits,
// then the stable key suffix and archive extension.
func (s *Sanitizer) ChapterFilename(volume, number, title string, groups []string, key string) string {
	if number == "" {
		number = "0"
	}

	var name string
	switch {
	case volume != "" && title != "":
		name = "Vol. " + volume + " Ch. " + number + " " + title
	case volume != "":
		name = "Vol. " + volume + " Ch. " + number
	case title != "":
		name = "Ch. " + number + " " + title
	default:
		name = "Ch. " + number
	}

	if len(groups) > 0 {
		name += " [" + strings.Join(groups, ", ") + "]"
	}

	return s.Clean(name) + " - " + key + ArchiveExt
}

// MangaDirName composes the directory name for one manga.
func (s *Sanitizer) MangaDirName(title, key string) string {
	return s.Clean(title) + " - " + key
}
