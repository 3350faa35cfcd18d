// Package catalog tracks media entries and per-user watch progress, and turns
// raw catalog rows into display-ready records.
package catalog

import (
	"path"
	"strings"
)

// Kind classifies a media file by its extension.
type Kind string

const (
	KindUnknown Kind = ""
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
)

// kindsByExt is the set of extensions the library accepts.
var kindsByExt = map[string]Kind{
	".mp4":  KindVideo,
	".mkv":  KindVideo,
	".webm": KindVideo,
	".avi":  KindVideo,
	".mp3":  KindAudio,
	".ogg":  KindAudio,
}

// KindOf returns the kind for a file path, compared case-insensitively on
// the extension. Unsupported extensions yield KindUnknown.
func KindOf(filePath string) Kind {
	return kindsByExt[strings.ToLower(path.Ext(filePath))]
}

// Allowed reports whether files with this path's extension belong in the library.
func Allowed(filePath string) bool {
	return KindOf(filePath) != KindUnknown
}

// IsVideo reports whether thumbnails can be extracted from this kind.
func (k Kind) IsVideo() bool { return k == KindVideo }

// Icon returns a short glyph for list views.
func (k Kind) Icon() string {
	switch k {
	case KindVideo:
		return "▶"
	case KindAudio:
		return "♪"
	default:
		return ""
	}
}

// Media is a catalog entry. FilePath is relative to the library root and
// slash-separated.
type Media struct {
	ID            int64
	Title         string
	FilePath      string
	Category      *string
	ParentID      *int64 // series this entry belongs to
	EpisodeNumber *int
}

// DecoratedMedia is a Media enriched with derived, non-persisted fields.
type DecoratedMedia struct {
	Media
	Kind     Kind
	IsVideo  bool
	Progress int64
	Thumb    string
}
