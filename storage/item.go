package storage

import "github.com/google/uuid"

// AnyETag accepts a write regardless of the stored item's current tag.
const AnyETag = "*"

// Item is one stored value and its version tag.
type Item struct {
	Value []byte
	ETag  string
}

// Unconditional reports whether writing the item skips the ETag check.
func (i Item) Unconditional() bool {
	return i.ETag == "" || i.ETag == AnyETag
}

// Versioned is implemented by state values that carry a version tag. Values
// that do not implement it are always written unconditionally.
type Versioned interface {
	ETag() string
	SetETag(etag string)
}

// Version is embeddable in state structs to satisfy Versioned through a
// pointer receiver. The tag is not part of the encoded value.
type Version struct {
	Tag string `json:"-"`
}

func (v *Version) ETag() string {
	return v.Tag
}

func (v *Version) SetETag(etag string) {
	v.Tag = etag
}

func newETag() string {
	return uuid.Must(uuid.NewV7()).String()
}
