package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{name: "year", input: "2024", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "year month", input: "2024-06", want: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "full date", input: "2024-06-15", want: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "with time", input: "2024-06-15T10:30:00Z", want: time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC), ok: true},
		{name: "padded", input: " 2024 ", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{name: "empty", input: "", ok: false},
		{name: "garbage", input: "circa 1990", ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBookUpdate(t *testing.T) {
	notes := "loved it"
	tags := []string{"Sci-Fi"}
	b := Book{ID: "a", Notes: "old", ReadDate: "2020-01-01", Tags: []string{"Fiction"}}

	got := BookUpdate{Notes: &notes}.Apply(b)
	if got.Notes != "loved it" || got.ReadDate != "2020-01-01" || got.Tags[0] != "Fiction" {
		t.Errorf("expected only notes replaced, got %+v", got)
	}

	got = BookUpdate{Tags: &tags}.Apply(b)
	tags[0] = "mutated"
	if got.Tags[0] != "Sci-Fi" {
		t.Errorf("expected tags copied, got %v", got.Tags)
	}

	if !(BookUpdate{}).IsEmpty() || (BookUpdate{Notes: &notes}).IsEmpty() {
		t.Error("unexpected IsEmpty result")
	}
}

func TestProfileUpdate(t *testing.T) {
	rss := "https://a.example/rss"
	p := AuthorProfile{Blog: "https://a.example"}

	got := ProfileUpdate{RSS: &rss}.Apply(p)
	if got.RSS != rss || got.Blog != "https://a.example" {
		t.Errorf("expected partial replace, got %+v", got)
	}
}

func TestDocument(t *testing.T) {
	t.Run("absent keys fall back to defaults", func(t *testing.T) {
		var doc Document
		if err := json.Unmarshal([]byte(`{"library":[{"id":"x","volumeInfo":{"title":"X"}}],"wishlist":[]}`), &doc); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		s := doc.State()
		if len(s.Library) != 1 || s.Library[0].Title() != "X" {
			t.Errorf("unexpected library %+v", s.Library)
		}
		if len(s.Tags) != len(DefaultTags) {
			t.Errorf("expected default tags, got %v", s.Tags)
		}
		if s.Following == nil || s.Topics == nil || s.AuthorProfiles == nil {
			t.Error("expected non-nil empty collections")
		}
	})

	t.Run("explicit empty tags are kept", func(t *testing.T) {
		doc := Document{Library: []Book{}, Wishlist: []Book{}, Tags: []string{}}
		if s := doc.State(); len(s.Tags) != 0 {
			t.Errorf("expected empty tags, got %v", s.Tags)
		}
	})

	t.Run("nil document", func(t *testing.T) {
		var doc *Document
		if s := doc.State(); len(s.Tags) != len(DefaultTags) {
			t.Error("expected defaults for nil document")
		}
	})

	t.Run("camelCase volume keys", func(t *testing.T) {
		b := Book{ID: "v", VolumeInfo: VolumeInfo{Title: "T", PublishedDate: "2024", ImageLinks: &ImageLinks{Thumbnail: "http://img"}}, ReadDate: "2024-05-01"}
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var raw map[string]any
		json.Unmarshal(data, &raw)
		if _, ok := raw["readDate"]; !ok {
			t.Error("expected readDate key")
		}
		vi := raw["volumeInfo"].(map[string]any)
		if vi["publishedDate"] != "2024" {
			t.Errorf("expected publishedDate key, got %v", vi)
		}
	})
}

func TestStateClone(t *testing.T) {
	s := DefaultState()
	s.Library = append(s.Library, Book{ID: "a", Tags: []string{"Fiction"}, VolumeInfo: VolumeInfo{Authors: []string{"A"}}})
	s.AuthorProfiles["A"] = AuthorProfile{RSS: "r"}

	c := s.Clone()
	c.Library[0].Tags[0] = "changed"
	c.Library[0].VolumeInfo.Authors[0] = "changed"
	c.AuthorProfiles["A"] = AuthorProfile{}
	c.Tags[0] = "changed"

	if s.Library[0].Tags[0] != "Fiction" || s.Library[0].VolumeInfo.Authors[0] != "A" {
		t.Error("expected deep copy of books")
	}
	if s.AuthorProfiles["A"].RSS != "r" || s.Tags[0] != "Fiction" {
		t.Error("expected deep copy of collections")
	}
}

func TestBookHelpers(t *testing.T) {
	b := Book{VolumeInfo: VolumeInfo{Title: "T", PublishedDate: "2024-02"}}
	if b.FirstAuthor() != "Unknown" {
		t.Errorf("expected Unknown, got %s", b.FirstAuthor())
	}
	if ts, ok := b.Published(); !ok || ts.Month() != time.February {
		t.Errorf("unexpected published %v %v", ts, ok)
	}
}
