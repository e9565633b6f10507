package typeid

import (
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"
)

// Element ids carry their element type as prefix. The suffix is a UUIDv7, so
// ids sort in creation order.
const (
	PrefixLine  = "line"
	PrefixPath  = "path"
	PrefixImage = "img"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewLineID() string  { return New(PrefixLine) }
func NewPathID() string  { return New(PrefixPath) }
func NewImageID() string { return New(PrefixImage) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

// Prefix returns the type prefix of id, or "" when id is not a typeid.
func Prefix(id string) string {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.Prefix()
}

// Suffix returns the k-sortable part of id, the text after the last "_".
// Ids without a prefix are returned unchanged.
func Suffix(id string) string {
	if i := strings.LastIndexByte(id, '_'); i >= 0 {
		return id[i+1:]
	}
	return id
}
