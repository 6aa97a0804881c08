package internal_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/bucketgate/database/internal"
)

func TestCursor_RoundTrip(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 3, 9, 17, 4, 5, 123456789, time.UTC)
	keys := []string{
		"photo.png",
		"assets/v2/app.min.js",
		"odd|key|with|pipes.txt",
		"a/b/c/d/e/f/g/h/index.html",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			t.Parallel()

			encoded := internal.EncodeCursor(at, key)
			require.NotEmpty(t, encoded)

			got, err := internal.DecodeCursor(encoded)
			require.NoError(t, err)
			assert.True(t, at.Equal(got.DeletedAt), "deleted_at: got %v", got.DeletedAt)
			assert.Equal(t, key, got.Key)
		})
	}
}

func TestCursor_LocalTimeIsNormalized(t *testing.T) {
	t.Parallel()

	local := time.Date(2025, 3, 9, 17, 4, 5, 0, time.FixedZone("X", 5*3600))
	got, err := internal.DecodeCursor(internal.EncodeCursor(local, "k"))
	require.NoError(t, err)

	assert.True(t, local.Equal(got.DeletedAt))
	assert.Equal(t, time.UTC, got.DeletedAt.Location())
}

func TestDecodeCursor_Empty(t *testing.T) {
	t.Parallel()

	got, err := internal.DecodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, internal.Cursor{}, got)
}

func TestDecodeCursor_Errors(t *testing.T) {
	t.Parallel()

	raw := func(s string) string { return base64.URLEncoding.EncodeToString([]byte(s)) }

	cases := map[string]struct {
		cursor string
		want   string
	}{
		"not base64":   {cursor: "%%%not-base64%%%", want: "invalid encoding"},
		"bad padding":  {cursor: "aGVsbG8===", want: "invalid encoding"},
		"no separator": {cursor: raw("2025-03-09T17:04:05Z"), want: "invalid format"},
		"empty key":    {cursor: raw("2025-03-09T17:04:05Z|"), want: "empty key"},
		"garbage time": {cursor: raw("yesterday|photo.png"), want: "invalid timestamp"},
		"non RFC3339":  {cursor: raw("2025/03/09 17:04:05|photo.png"), want: "invalid timestamp"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := internal.DecodeCursor(tc.cursor)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                   "",
		"images/logo.png":    "images/logo.png",
		"100%":               `100\%`,
		"snake_case/key":     `snake\_case/key`,
		`win\path`:           `win\\path`,
		`%_\`:                `\%\_\\`,
		`50%_off\sale_today`: `50\%\_off\\sale\_today`,
	}

	for in, want := range cases {
		assert.Equal(t, want, internal.EscapeLikePattern(in), "input %q", in)
	}
}
