package meeting

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseLink(t *testing.T) {
	tests := []struct {
		name string
		link string
		want string
	}{
		{name: "path/absolute", link: "https://fit.example.com/meeting/join/lq2x9k-1a2b3c4d", want: "lq2x9k-1a2b3c4d"},
		{name: "path/relative", link: "/meeting/join/room42", want: "room42"},
		{name: "path/trailing slash", link: "https://fit.example.com/meeting/join/room42/", want: "room42"},
		{name: "path/with query", link: "https://fit.example.com/meeting/join/room42?lang=en", want: "room42"},
		{name: "legacy/query", link: "https://fit.example.com/meeting?roomID=abc123", want: "abc123"},
		{name: "legacy/extra params", link: "https://fit.example.com/?foo=1&roomID=xyz&bar=2", want: "xyz"},
		{name: "legacy/whitespace", link: "  https://fit.example.com/room?roomID=pad  ", want: "pad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLink(tt.link)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseLinkRejectsMalformed(t *testing.T) {
	links := []string{
		"",
		"   ",
		"https://fit.example.com/meeting/join/",
		"https://fit.example.com/meeting/join/a/b",
		"https://fit.example.com/meeting?room=abc",
		"https://fit.example.com/meeting?roomID=",
		"://bad",
	}

	for _, link := range links {
		_, err := ParseLink(link)
		require.Error(t, err, link)
		require.True(t, errors.Is(err, ErrMalformedLink), link)

		var malformed *MalformedLinkError
		require.True(t, errors.As(err, &malformed), link)
		require.Equal(t, link, malformed.Link)
	}
}

func TestGenerateLinkRoundTripsThroughParse(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)

	link, roomID, err := GenerateLink("https://fit.example.com/", now)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "https://fit.example.com/meeting/join/"))

	parsed, err := ParseLink(link)
	require.NoError(t, err)
	require.Equal(t, roomID, parsed)
}

func TestGenerateLinkProducesDistinctRooms(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		_, roomID, err := GenerateLink("https://fit.example.com", now)
		require.NoError(t, err)
		_, dup := seen[roomID]
		require.False(t, dup, "duplicate room id %s", roomID)
		seen[roomID] = struct{}{}
	}
}

func TestGenerateLinkRejectsBadOrigin(t *testing.T) {
	_, _, err := GenerateLink("not a url", time.Now())
	require.Error(t, err)
}
