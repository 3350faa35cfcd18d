// internal/api/v1/types.go
package v1

import (
	"net/url"
	"strings"
	"time"

	"github.com/vmunix/mediacat/internal/accounts"
	"github.com/vmunix/mediacat/internal/catalog"
)

// mediaResponse is the API representation of a decorated catalog entry.
type mediaResponse struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	FilePath      string  `json:"filepath"`
	URL           string  `json:"url"`
	Category      *string `json:"category"`
	ParentID      *int64  `json:"parent_id,omitempty"`
	EpisodeNumber *int    `json:"episode_number,omitempty"`
	Kind          string  `json:"kind"`
	Icon          string  `json:"icon"`
	IsVideo       bool    `json:"is_video"`
	Progress      int64   `json:"progress"`
	Thumb         string  `json:"thumb"`
}

func mediaURL(filePath string) string {
	parts := strings.Split(filePath, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return "/media/" + strings.Join(parts, "/")
}

func mediaToResponse(d *catalog.DecoratedMedia) mediaResponse {
	return mediaResponse{
		ID:            d.ID,
		Title:         d.Title,
		FilePath:      d.FilePath,
		URL:           mediaURL(d.FilePath),
		Category:      d.Category,
		ParentID:      d.ParentID,
		EpisodeNumber: d.EpisodeNumber,
		Kind:          string(d.Kind),
		Icon:          d.Kind.Icon(),
		IsVideo:       d.IsVideo,
		Progress:      d.Progress,
		Thumb:         d.Thumb,
	}
}

func mediaListToResponse(items []*catalog.DecoratedMedia) []mediaResponse {
	out := make([]mediaResponse, len(items))
	for i, d := range items {
		out[i] = mediaToResponse(d)
	}
	return out
}

type suggestionResponse struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// listMediaResponse is the response for GET /media.
type listMediaResponse struct {
	Items       []mediaResponse      `json:"items"`
	Total       int                  `json:"total"` // matches before pagination
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
	Suggestions []suggestionResponse `json:"suggestions,omitempty"`
}

// watchResponse is the response for GET /media/{id}.
type watchResponse struct {
	Media    mediaResponse   `json:"media"`
	Episodes []mediaResponse `json:"episodes"`
	Next     *mediaResponse  `json:"next"`
}

type progressRequest struct {
	MediaID  int64 `json:"media_id"`
	Progress int64 `json:"progress"`
}

type progressResponse struct {
	MediaID   int64     `json:"media_id"`
	Progress  int64     `json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

func userToResponse(u *accounts.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Role: string(u.Role), Active: u.Active}
}

type editMediaRequest struct {
	Title         *string `json:"title"`
	Category      *string `json:"category"`
	ParentID      *int64  `json:"parent_id"`
	EpisodeNumber *int    `json:"episode_number"`
	ClearSeries   bool    `json:"clear_series"`
}

type statusResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	MediaCount int    `json:"media_count"`
	Series     bool   `json:"series"`
}

type scanResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// EventResponse is one audit-log row.
type EventResponse struct {
	ID         int64  `json:"id"`
	EventType  string `json:"event_type"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	Payload    string `json:"payload"`
	OccurredAt string `json:"occurred_at"`
}

type listEventsResponse struct {
	Items []EventResponse `json:"items"`
	Limit int             `json:"limit"`
}
