package mangadex

import (
	"bytes"
	"encoding/json"
	"sort"
)

// LocalizedString maps language codes to translated text.
type LocalizedString map[string]string

// EnglishOrFirst returns the English value when present, otherwise the value
// of the lexicographically smallest language code, otherwise "".
func (l LocalizedString) EnglishOrFirst() string {
	if v, ok := l["en"]; ok {
		return v
	}
	if len(l) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return l[keys[0]]
}

// FlexString decodes JSON strings, numbers, and null into one string type.
// The upstream API serializes volume and chapter numbers inconsistently.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
		return nil
	}
	return json.Unmarshal(b, (*string)(f))
}

// Manga is the catalog record for one serialized work.
type Manga struct {
	ID         string          `json:"id"`
	Attributes MangaAttributes `json:"attributes"`
}

type MangaAttributes struct {
	Title LocalizedString `json:"title"`
}

// Chapter is one unit of work to be archived.
type Chapter struct {
	ID            string            `json:"id"`
	Attributes    ChapterAttributes `json:"attributes"`
	Relationships []Relationship    `json:"relationships"`
}

type ChapterAttributes struct {
	Volume      FlexString `json:"volume"`
	Chapter     FlexString `json:"chapter"`
	Title       FlexString `json:"title"`
	ExternalURL string     `json:"externalUrl"`
}

// ExternallyHosted reports whether the chapter's pages live off-site.
func (c Chapter) ExternallyHosted() bool {
	return c.Attributes.ExternalURL != ""
}

// GroupIDs returns the scanlation group ids credited on the chapter, in
// relationship order.
func (c Chapter) GroupIDs() []string {
	var ids []string
	for _, r := range c.Relationships {
		if r.Type == "scanlation_group" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// MangaID returns the owning manga id, or "" when the relationship is absent.
func (c Chapter) MangaID() string {
	for _, r := range c.Relationships {
		if r.Type == "manga" {
			return r.ID
		}
	}
	return ""
}

type Relationship struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Group is a scanlation group record.
type Group struct {
	ID         string          `json:"id"`
	Attributes GroupAttributes `json:"attributes"`
}

type GroupAttributes struct {
	Name string `json:"name"`
}

// AtHome is the page-server response for one chapter: a base URL, a content
// hash token, and the ordered page file names.
type AtHome struct {
	BaseURL string      `json:"baseUrl"`
	Chapter AtHomePages `json:"chapter"`
}

type AtHomePages struct {
	Hash string   `json:"hash"`
	Data []string `json:"data"`
}

// PageURL builds the content URL for one page file name.
func (a AtHome) PageURL(name string) string {
	return a.BaseURL + "/data/" + a.Chapter.Hash + "/" + name
}

type mangaEnvelope struct {
	Data Manga `json:"data"`
}

type chapterEnvelope struct {
	Data Chapter `json:"data"`
}

type chapterList struct {
	Data  []Chapter `json:"data"`
	Total int       `json:"total"`
}

type groupList struct {
	Data []Group `json:"data"`
}
