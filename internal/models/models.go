package models

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// DefaultTags is the starter tag pool used on first run and after a reset.
var DefaultTags = []string{"Fiction", "Non-fiction", "Sci-Fi", "Technology", "Biography"}

// ImageLinks holds cover image references for a volume.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
}

// IndustryIdentifier is an ISBN or other catalog identifier for a volume.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// VolumeInfo is the catalog metadata of a book. It is never edited locally.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle,omitempty"`
	Authors             []string             `json:"authors,omitempty"`
	Publisher           string               `json:"publisher,omitempty"`
	PublishedDate       string               `json:"publishedDate,omitempty"`
	Description         string               `json:"description,omitempty"`
	Categories          []string             `json:"categories,omitempty"`
	ImageLinks          *ImageLinks          `json:"imageLinks,omitempty"`
	PageCount           int                  `json:"pageCount,omitempty"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers,omitempty"`
	InfoLink            string               `json:"infoLink,omitempty"`
}

// Book is a catalog volume plus the fields the user owns.
//
// Library entries carry notes, read date and tags; wishlist entries usually only carry tags.
type Book struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
	Notes      string     `json:"notes,omitempty"`
	ReadDate   string     `json:"readDate,omitempty"`
	Tags       []string   `json:"tags,omitempty"`
}

// Title returns the volume title.
func (b Book) Title() string { return b.VolumeInfo.Title }

// FirstAuthor returns the first listed author or "Unknown".
func (b Book) FirstAuthor() string {
	if len(b.VolumeInfo.Authors) == 0 {
		return "Unknown"
	}
	return b.VolumeInfo.Authors[0]
}

// Published returns the normalised publication date of the volume.
func (b Book) Published() (time.Time, bool) {
	return ParseDate(b.VolumeInfo.PublishedDate)
}

// Clone returns a deep copy of the book.
func (b Book) Clone() Book {
	c := b
	c.Tags = slices.Clone(b.Tags)
	c.VolumeInfo.Authors = slices.Clone(b.VolumeInfo.Authors)
	c.VolumeInfo.Categories = slices.Clone(b.VolumeInfo.Categories)
	c.VolumeInfo.IndustryIdentifiers = slices.Clone(b.VolumeInfo.IndustryIdentifiers)
	if b.VolumeInfo.ImageLinks != nil {
		links := *b.VolumeInfo.ImageLinks
		c.VolumeInfo.ImageLinks = &links
	}
	return c
}

// BookUpdate is a partial set of user-owned fields. Nil fields were not supplied.
type BookUpdate struct {
	Notes    *string
	ReadDate *string
	Tags     *[]string
}

// Apply shallow-merges the supplied fields into b.
func (u BookUpdate) Apply(b Book) Book {
	if u.Notes != nil {
		b.Notes = *u.Notes
	}
	if u.ReadDate != nil {
		b.ReadDate = *u.ReadDate
	}
	if u.Tags != nil {
		b.Tags = slices.Clone(*u.Tags)
	}
	return b
}

// IsEmpty reports whether no field was supplied.
func (u BookUpdate) IsEmpty() bool {
	return u.Notes == nil && u.ReadDate == nil && u.Tags == nil
}

// AuthorProfile holds optional links for an author. Values are stored as given.
type AuthorProfile struct {
	RSS      string `json:"rss,omitempty"`
	Blog     string `json:"blog,omitempty"`
	Podcast  string `json:"podcast,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Substack string `json:"substack,omitempty"`
	X        string `json:"x,omitempty"`
}

// ProfileUpdate is a partial [AuthorProfile]. Nil fields were not supplied.
type ProfileUpdate struct {
	RSS      *string
	Blog     *string
	Podcast  *string
	LinkedIn *string
	Substack *string
	X        *string
}

// Apply replaces only the supplied fields of p.
func (u ProfileUpdate) Apply(p AuthorProfile) AuthorProfile {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.RSS, u.RSS)
	set(&p.Blog, u.Blog)
	set(&p.Podcast, u.Podcast)
	set(&p.LinkedIn, u.LinkedIn)
	set(&p.Substack, u.Substack)
	set(&p.X, u.X)
	return p
}

// State is the aggregate root of everything the user owns.
type State struct {
	Library        []Book
	Wishlist       []Book
	Tags           []string
	Following      []string
	Topics         []string
	AuthorProfiles map[string]AuthorProfile
}

// DefaultState returns the startup state: starter tags and empty collections.
func DefaultState() State {
	return State{
		Library:        []Book{},
		Wishlist:       []Book{},
		Tags:           slices.Clone(DefaultTags),
		Following:      []string{},
		Topics:         []string{},
		AuthorProfiles: map[string]AuthorProfile{},
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := State{
		Library:        make([]Book, len(s.Library)),
		Wishlist:       make([]Book, len(s.Wishlist)),
		Tags:           slices.Clone(s.Tags),
		Following:      slices.Clone(s.Following),
		Topics:         slices.Clone(s.Topics),
		AuthorProfiles: maps.Clone(s.AuthorProfiles),
	}
	for i, b := range s.Library {
		c.Library[i] = b.Clone()
	}
	for i, b := range s.Wishlist {
		c.Wishlist[i] = b.Clone()
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Following == nil {
		c.Following = []string{}
	}
	if c.Topics == nil {
		c.Topics = []string{}
	}
	if c.AuthorProfiles == nil {
		c.AuthorProfiles = map[string]AuthorProfile{}
	}
	return c
}

// Document converts the state into its persisted wire shape.
func (s State) Document() *Document {
	c := s.Clone()
	return &Document{
		Library:        c.Library,
		Wishlist:       c.Wishlist,
		Tags:           c.Tags,
		Following:      c.Following,
		Topics:         c.Topics,
		AuthorProfiles: c.AuthorProfiles,
	}
}

// Document is the JSON snapshot exchanged with the persistence gateway.
//
// A nil collection means the key was absent and the default applies.
type Document struct {
	Library        []Book                   `json:"library"`
	Wishlist       []Book                   `json:"wishlist"`
	Tags           []string                 `json:"tags"`
	Following      []string                 `json:"following,omitempty"`
	Topics         []string                 `json:"topics,omitempty"`
	AuthorProfiles map[string]AuthorProfile `json:"authorProfiles,omitempty"`
}

// State converts a loaded document into a state, filling absent collections with defaults.
func (d *Document) State() State {
	s := DefaultState()
	if d == nil {
		return s
	}
	if d.Library != nil {
		s.Library = d.Library
	}
	if d.Wishlist != nil {
		s.Wishlist = d.Wishlist
	}
	if d.Tags != nil {
		s.Tags = d.Tags
	}
	if d.Following != nil {
		s.Following = d.Following
	}
	if d.Topics != nil {
		s.Topics = d.Topics
	}
	if d.AuthorProfiles != nil {
		s.AuthorProfiles = d.AuthorProfiles
	}
	return s.Clone()
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDate normalises a catalog publication date to the first instant of its period in UTC.
//
// "2024" becomes 2024-01-01, "2024-06" becomes 2024-06-01. Empty or unparseable strings return false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
