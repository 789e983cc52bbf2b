package types

import (
	"fmt"
	"time"
)

// ContentType classifies an indexed document
type ContentType string

const (
	ContentTypeAll      ContentType = "all" // Filter value only, never stored on an item
	ContentTypePage     ContentType = "page"
	ContentTypeNews     ContentType = "news"
	ContentTypeService  ContentType = "service"
	ContentTypeCase     ContentType = "case"
	ContentTypeResource ContentType = "resource"
)

// ContentTypes lists every concrete document type
var ContentTypes = []ContentType{
	ContentTypePage,
	ContentTypeNews,
	ContentTypeService,
	ContentTypeCase,
	ContentTypeResource,
}

// IsValid reports whether t is a concrete document type
func (t ContentType) IsValid() bool {
	for _, ct := range ContentTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// SearchResultItem is one indexed or returned document
type SearchResultItem struct {
	// Identification
	ID   string      `json:"id" yaml:"id"`
	Type ContentType `json:"type" yaml:"type"`

	// Searchable text
	Title   string `json:"title" yaml:"title"`
	Excerpt string `json:"excerpt" yaml:"excerpt"`
	Content string `json:"content" yaml:"content"` // Full text used for scoring

	// Presentation
	URL         string     `json:"url" yaml:"url"`
	Breadcrumb  []string   `json:"breadcrumb" yaml:"breadcrumb"`
	PublishedAt *time.Time `json:"publishedAt,omitempty" yaml:"publishedAt,omitempty"`
	ImageURL    string     `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Validate checks that the item can be indexed
func (it *SearchResultItem) Validate() error {
	if it.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidItem)
	}

	if !it.Type.IsValid() {
		return fmt.Errorf("%w: item %s has unknown type %q", ErrInvalidItem, it.ID, it.Type)
	}

	if it.Content == "" {
		return fmt.Errorf("%w: item %s has empty content", ErrInvalidItem, it.ID)
	}

	return nil
}

// Clone returns a deep copy of the item
func (it SearchResultItem) Clone() SearchResultItem {
	dst := it
	if it.Breadcrumb != nil {
		dst.Breadcrumb = make([]string, len(it.Breadcrumb))
		copy(dst.Breadcrumb, it.Breadcrumb)
	}
	if it.PublishedAt != nil {
		published := *it.PublishedAt
		dst.PublishedAt = &published
	}
	return dst
}

// CloneItems deep-copies a slice of items, preserving nil
func CloneItems(src []SearchResultItem) []SearchResultItem {
	if src == nil {
		return nil
	}
	dst := make([]SearchResultItem, len(src))
	for i := range src {
		dst[i] = src[i].Clone()
	}
	return dst
}
