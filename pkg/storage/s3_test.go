package storage_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agencyhub/backend/pkg/storage"
)

func TestValidateImage(t *testing.T) {
	ct, ext, ok := storage.ValidateImage("image/png", "logo.png")
	require.True(t, ok)
	require.Equal(t, "image/png", ct)
	require.Equal(t, ".png", ext)

	ct, ext, ok = storage.ValidateImage("", "photo.JPEG")
	require.True(t, ok)
	require.Equal(t, "image/jpeg", ct)
	require.Equal(t, ".jpeg", ext)

	_, ext, ok = storage.ValidateImage("image/webp", "blob")
	require.True(t, ok)
	require.Equal(t, ".webp", ext)

	_, _, ok = storage.ValidateImage("application/pdf", "doc.pdf")
	require.False(t, ok)

	_, _, ok = storage.ValidateImage("video/mp4", "clip.mp4")
	require.False(t, ok)
}

func TestObjectKey(t *testing.T) {
	key := storage.ObjectKey(storage.RouteAvatar, "user_1", ".png")
	require.True(t, strings.HasPrefix(key, "avatar/user_1/"))
	require.True(t, strings.HasSuffix(key, ".png"))
	require.NotEqual(t, key, storage.ObjectKey(storage.RouteAvatar, "user_1", ".png"))
}

func TestValidRoute(t *testing.T) {
	for _, r := range []string{"subaccountLogo", "avatar", "agencyLogo", "media"} {
		require.True(t, storage.ValidRoute(r), r)
	}
	require.False(t, storage.ValidRoute("ads"))
	require.False(t, storage.ValidRoute(""))
}
