package bucketgate_test

import (
	"testing"

	"github.com/sagarc03/bucketgate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "empty header", header: "", want: ""},
		{name: "bearer token", header: "Bearer s3cret", want: "s3cret"},
		{name: "surrounding whitespace", header: "Bearer   s3cret  ", want: "s3cret"},
		{name: "prefix only", header: "Bearer ", want: ""},
		{name: "prefix with spaces only", header: "Bearer    ", want: ""},
		{name: "lowercase prefix is not stripped", header: "bearer s3cret", want: "bearer s3cret"},
		{name: "no prefix", header: "s3cret", want: "s3cret"},
		{name: "other scheme", header: "Basic dXNlcjpwYXNz", want: "Basic dXNlcjpwYXNz"},
		{name: "whitespace only", header: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bucketgate.ExtractBearerToken(tt.header))
		})
	}
}

func TestNewTokenVerifier(t *testing.T) {
	t.Run("empty secret", func(t *testing.T) {
		v, err := bucketgate.NewTokenVerifier("")
		assert.Error(t, err)
		assert.Nil(t, v)
	})

	t.Run("valid secret", func(t *testing.T) {
		v, err := bucketgate.NewTokenVerifier("s3cret")
		require.NoError(t, err)
		assert.NotNil(t, v)
	})
}

func TestTokenVerifier_Verify(t *testing.T) {
	v, err := bucketgate.NewTokenVerifier("s3cret")
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "missing header", header: "", wantErr: bucketgate.ErrMissingToken},
		{name: "empty bearer", header: "Bearer ", wantErr: bucketgate.ErrMissingToken},
		{name: "wrong token", header: "Bearer wrong", wantErr: bucketgate.ErrIncorrectToken},
		{name: "prefix of secret", header: "Bearer s3c", wantErr: bucketgate.ErrIncorrectToken},
		{name: "secret with suffix", header: "Bearer s3cret!", wantErr: bucketgate.ErrIncorrectToken},
		{name: "lowercase scheme", header: "bearer s3cret", wantErr: bucketgate.ErrIncorrectToken},
		{name: "correct token", header: "Bearer s3cret"},
		{name: "correct token with padding", header: "Bearer  s3cret \t"},
		{name: "bare secret", header: "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.header)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, bucketgate.ErrUnauthorized)
		})
	}
}
