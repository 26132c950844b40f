// Package sanitize strips dangerous markup from user-authored story
// content before it is persisted. Story content allows the usual
// user-generated-content tags; titles and summaries are plain text.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Content sanitizes rich story content, keeping common formatting tags
// and dropping scripts, event handlers, and unknown attributes.
func Content(s string) string {
	return ugc.Sanitize(s)
}

// Plain strips all markup and trims surrounding whitespace. Used for
// titles and summaries, which are rendered as text.
func Plain(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
