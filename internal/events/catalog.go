// internal/events/catalog.go
package events

const (
	EventMediaAdded      = "media.added"
	EventMediaUpdated    = "media.updated"
	EventLibraryScanned  = "library.scanned"
	EventProgressUpdated = "progress.updated"
	EventUserCreated     = "user.created"
)

// Sources of a MediaAdded event.
const (
	SourceScan   = "scan"
	SourceUpload = "upload"
)

// MediaAdded is emitted when a file enters the catalog.
type MediaAdded struct {
	BaseEvent
	MediaID  int64  `json:"media_id"`
	Title    string `json:"title"`
	FilePath string `json:"filepath"`
	Source   string `json:"source"` // "scan" or "upload"
}

// NewMediaAdded builds a MediaAdded event.
func NewMediaAdded(mediaID int64, title, filePath, source string) *MediaAdded {
	return &MediaAdded{
		BaseEvent: NewBaseEvent(EventMediaAdded, EntityMedia, mediaID),
		MediaID:   mediaID,
		Title:     title,
		FilePath:  filePath,
		Source:    source,
	}
}

// MediaUpdated is emitted after an administrative edit.
type MediaUpdated struct {
	BaseEvent
	MediaID int64 `json:"media_id"`
}

// NewMediaUpdated builds a MediaUpdated event.
func NewMediaUpdated(mediaID int64) *MediaUpdated {
	return &MediaUpdated{
		BaseEvent: NewBaseEvent(EventMediaUpdated, EntityMedia, mediaID),
		MediaID:   mediaID,
	}
}

// LibraryScanned summarizes one scan of the library root.
type LibraryScanned struct {
	BaseEvent
	Root    string `json:"root"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// NewLibraryScanned builds a LibraryScanned event.
func NewLibraryScanned(root string, added, skipped, failed int) *LibraryScanned {
	return &LibraryScanned{
		BaseEvent: NewBaseEvent(EventLibraryScanned, EntityLibrary, 0),
		Root:      root,
		Added:     added,
		Skipped:   skipped,
		Failed:    failed,
	}
}

// ProgressUpdated is emitted when a player reports a position.
type ProgressUpdated struct {
	BaseEvent
	UserID   int64 `json:"user_id"`
	MediaID  int64 `json:"media_id"`
	Position int64 `json:"position"`
}

// NewProgressUpdated builds a ProgressUpdated event.
func NewProgressUpdated(userID, mediaID, position int64) *ProgressUpdated {
	return &ProgressUpdated{
		BaseEvent: NewBaseEvent(EventProgressUpdated, EntityMedia, mediaID),
		UserID:    userID,
		MediaID:   mediaID,
		Position:  position,
	}
}

// UserCreated is emitted for registrations and admin-created accounts.
type UserCreated struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// NewUserCreated builds a UserCreated event.
func NewUserCreated(userID int64, username, role string) *UserCreated {
	return &UserCreated{
		BaseEvent: NewBaseEvent(EventUserCreated, EntityUser, userID),
		UserID:    userID,
		Username:  username,
		Role:      role,
	}
}
