package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSaveVideo(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	url, mediaType, err := store.Save(strings.NewReader("payload"), "clip.webm", "video/webm")
	require.NoError(t, err)
	assert.Equal(t, "video", mediaType)
	assert.True(t, strings.HasPrefix(url, "/uploads/vid_"))
	assert.True(t, strings.HasSuffix(url, ".webm"))
}

func TestDiskStoreSaveAudioDefaultExt(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	url, mediaType, err := store.Save(strings.NewReader("payload"), "voice", "audio/ogg")
	require.NoError(t, err)
	assert.Equal(t, "audio", mediaType)
	assert.True(t, strings.HasPrefix(url, "/uploads/aud_"))
	assert.True(t, strings.HasSuffix(url, ".m4a"))
}

func TestDiskStoreRejectsImages(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Save(strings.NewReader("payload"), "pic.png", "image/png")
	assert.Error(t, err)
}

func TestMediaType(t *testing.T) {
	for _, tc := range []struct {
		contentType string
		want        string
		ok          bool
	}{
		{"video/mp4", "video", true},
		{"audio/mpeg", "audio", true},
		{"image/jpeg", "", false},
		{"text/plain", "", false},
	} {
		got, ok := MediaType(tc.contentType)
		assert.Equal(t, tc.ok, ok, tc.contentType)
		assert.Equal(t, tc.want, got, tc.contentType)
	}
}
