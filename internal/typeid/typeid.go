package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixDocument  = "doc"
	PrefixAnimation = "anim"
	PrefixEntry     = "hist"
	PrefixSession   = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewDocumentID() string  { return New(PrefixDocument) }
func NewAnimationID() string { return New(PrefixAnimation) }
func NewEntryID() string     { return New(PrefixEntry) }
func NewSessionID() string   { return New(PrefixSession) }

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
