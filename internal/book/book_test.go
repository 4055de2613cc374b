package book

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"ascii punctuation", "My / Book: Draft?", "My___Book__Draft_"},
		{"cjk preserved", "吾輩は猫である", "吾輩は猫である"},
		{"katakana with long mark", "コーヒー 1", "コーヒー_1"},
		{"hangul", "한국어 책", "한국어_책"},
		{"accented latin replaced", "Café", "Caf_"},
		{"empty", "", "untitled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.title); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename("My Book", ".epub"); got != "My_Book.epub" {
		t.Errorf("ExportFilename() = %q", got)
	}
	if got := ExportFilename("My Book", "pdf"); got != "My_Book.pdf" {
		t.Errorf("ExportFilename() = %q", got)
	}
}

func TestCoverExtension(t *testing.T) {
	tests := []struct {
		mediaType string
		want      string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpeg"},
		{"image/svg+xml", "svg"},
		{"image/", "jpg"},
		{"image", "jpg"},
		{"IMAGE/WEBP", "webp"},
	}
	for _, tt := range tests {
		c := &Cover{Data: []byte{1}, MediaType: tt.mediaType}
		if got := c.Extension(); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.mediaType, got, tt.want)
		}
	}
}

func TestCoverValid(t *testing.T) {
	var nilCover *Cover
	if nilCover.Valid() {
		t.Error("nil cover should not be valid")
	}
	if (&Cover{Data: []byte{1}}).Valid() {
		t.Error("cover without MIME type should not be valid")
	}
	if (&Cover{MediaType: "image/png"}).Valid() {
		t.Error("cover without data should not be valid")
	}
	if !(&Cover{Data: []byte{1}, MediaType: "image/png"}).Valid() {
		t.Error("complete cover should be valid")
	}
}

func TestParseDataURL(t *testing.T) {
	c, err := ParseDataURL("data:image/png;base64,AQID")
	if err != nil {
		t.Fatalf("ParseDataURL() error = %v", err)
	}
	if c.MediaType != "image/png" || string(c.Data) != "\x01\x02\x03" {
		t.Errorf("ParseDataURL() = %+v", c)
	}
	if c.DataURL() != "data:image/png;base64,AQID" {
		t.Errorf("DataURL() = %q", c.DataURL())
	}

	for _, bad := range []string{"image/png;base64,AQID", "data:image/png;base64", "data:image/png,AQID", "data:image/png;base64,!!"} {
		if _, err := ParseDataURL(bad); !errors.Is(err, ErrInvalidDataURL) {
			t.Errorf("ParseDataURL(%q) error = %v, want ErrInvalidDataURL", bad, err)
		}
	}
}

func TestProjectJSONCover(t *testing.T) {
	p := Project{
		Metadata: Metadata{
			Title:  "Book",
			Author: "Author",
			Cover:  &Cover{Data: []byte("img"), MediaType: "image/jpeg"},
		},
		Chapters: []Chapter{{ID: "a", Title: "One", Content: "text", Memo: "note"}},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded Project
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !decoded.Metadata.Cover.Valid() || string(decoded.Metadata.Cover.Data) != "img" {
		t.Errorf("cover not restored: %+v", decoded.Metadata.Cover)
	}
	if decoded.Chapters[0].Memo != "note" {
		t.Errorf("memo not restored: %q", decoded.Chapters[0].Memo)
	}
}

func TestSortByOrder(t *testing.T) {
	chapters := []Chapter{{ID: "b", Order: 2}, {ID: "a", Order: 0}, {ID: "c", Order: 1}}
	sorted := SortByOrder(chapters)
	if sorted[0].ID != "a" || sorted[1].ID != "c" || sorted[2].ID != "b" {
		t.Errorf("SortByOrder() = %+v", sorted)
	}
	if chapters[0].ID != "b" {
		t.Error("SortByOrder() modified its input")
	}

	Renumber(sorted)
	for i, ch := range sorted {
		if ch.Order != i {
			t.Errorf("Renumber() chapter %d order = %d", i, ch.Order)
		}
	}
}

func TestMetadataDefaults(t *testing.T) {
	var m Metadata
	if m.PublisherOrDefault() != DefaultPublisher {
		t.Errorf("PublisherOrDefault() = %q", m.PublisherOrDefault())
	}
	if m.LanguageOrDefault() != DefaultLanguage {
		t.Errorf("LanguageOrDefault() = %q", m.LanguageOrDefault())
	}
}
