// Package attach classifies outgoing attachment payloads into a message
// kind. Only text messages are exercised by the current send flows; the
// image/file kinds exist for media pickers in the presentation layer.
package attach

import (
	"unicode/utf8"

	"github.com/h2non/filetype"

	"chatpad/internal/models"
)

// Kind sniffs the payload's magic bytes: recognized images map to KindImage,
// other recognized formats to KindFile. Unrecognized data falls back to
// KindText when it is valid UTF-8 and KindFile otherwise.
func Kind(data []byte) models.MessageKind {
	if len(data) == 0 {
		return models.KindText
	}
	if filetype.IsImage(data) {
		return models.KindImage
	}
	if t, err := filetype.Match(data); err == nil && t != filetype.Unknown {
		return models.KindFile
	}
	if utf8.Valid(data) {
		return models.KindText
	}
	return models.KindFile
}
