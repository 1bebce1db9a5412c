package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedPhotoMetadataRoundTrip(t *testing.T) {
	tagged, err := embedPhotoMetadata(testJPEG(t), "Water Play", []string{"daycare", "summer"})
	require.NoError(t, err)

	title, keywords, err := ReadPhotoMetadata(tagged)
	require.NoError(t, err)
	assert.Equal(t, "Water Play", title)
	assert.Equal(t, []string{"daycare", "summer"}, keywords)
}

func TestEmbedPhotoMetadataNotAJPEG(t *testing.T) {
	_, err := embedPhotoMetadata([]byte("plain text"), "title", []string{"daycare"})
	require.Error(t, err)
}

func TestUTF16Helpers(t *testing.T) {
	for _, s := range []string{"", "hello", "Frühstück", "daycare;outdoor"} {
		assert.Equal(t, s, decodeUTF16LE(encodeUTF16LE(s)))
	}
}
