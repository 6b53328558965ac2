package imagestore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/commerce-directory/internal/apperr"
)

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"shop.JPG", "image/jpeg"},
		{"shop.jpeg", "image/jpeg"},
		{"logo.png", "image/png"},
		{"anim.gif", "image/gif"},
		{"photo.webp", "image/webp"},
	}
	for _, tt := range tests {
		got, err := contentTypeFor(tt.filename)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, got)
	}

	_, err := contentTypeFor("notes.txt")
	assert.True(t, apperr.IsValidation(err))
}

func TestObjectKey(t *testing.T) {
	key := objectKey(12, "Front.PNG")
	assert.True(t, strings.HasPrefix(key, "commerces/12/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
	assert.NotEqual(t, key, objectKey(12, "Front.PNG"))
}

func TestDisabledRejectsUploads(t *testing.T) {
	var s Store = Disabled{}
	_, err := s.Upload(context.Background(), 1, "a.png", strings.NewReader("x"), 1)
	assert.True(t, apperr.IsRemoteUnavailable(err))
	assert.NoError(t, s.Delete(context.Background(), "k"))
}
