package meeting

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	joinPathPrefix = "/meeting/join/"
	legacyRoomKey  = "roomID"
)

var ErrMalformedLink = errors.New("malformed meeting link")

// MalformedLinkError carries the rejected link. It matches ErrMalformedLink
// under errors.Is.
type MalformedLinkError struct {
	Link string
}

func (e *MalformedLinkError) Error() string {
	return fmt.Sprintf("malformed meeting link %q", e.Link)
}

func (e *MalformedLinkError) Is(target error) bool {
	return target == ErrMalformedLink
}

// NewRoomID returns a time-ordered room id with a random suffix. Collisions
// are unlikely, not impossible.
func NewRoomID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + suffix
}

// GenerateLink composes the join URL for a fresh room on origin.
func GenerateLink(origin string, now time.Time) (string, string, error) {
	base, err := url.Parse(strings.TrimRight(origin, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", "", fmt.Errorf("invalid meeting origin %q", origin)
	}
	roomID := NewRoomID(now)
	base.Path = joinPathPrefix + url.PathEscape(roomID)
	base.RawQuery = ""
	base.Fragment = ""
	return base.String(), roomID, nil
}

// ParseLink extracts the room id from a join link. Both the path form
// /meeting/join/<roomId> and the legacy ?roomID=<roomId> form are accepted.
func ParseLink(link string) (string, error) {
	trimmed := strings.TrimSpace(link)
	if trimmed == "" {
		return "", &MalformedLinkError{Link: link}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", &MalformedLinkError{Link: link}
	}

	if idx := strings.Index(parsed.Path, joinPathPrefix); idx >= 0 {
		roomID := strings.Trim(parsed.Path[idx+len(joinPathPrefix):], "/")
		if roomID != "" && !strings.Contains(roomID, "/") {
			return roomID, nil
		}
	}

	if roomID := strings.TrimSpace(parsed.Query().Get(legacyRoomKey)); roomID != "" {
		return roomID, nil
	}

	return "", &MalformedLinkError{Link: link}
}
