package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(w, h)))
	return buf.Bytes()
}

func TestProcessReencodesAsJPEG(t *testing.T) {
	for name, data := range map[string][]byte{
		"jpeg": encodeJPEG(t, 120, 80),
		"png":  encodePNG(t, 120, 80),
	} {
		t.Run(name, func(t *testing.T) {
			photo, err := Process(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, "image/jpeg", photo.MIME)
			assert.Equal(t, 120, photo.Width)
			assert.Equal(t, 80, photo.Height)

			_, format, err := image.Decode(bytes.NewReader(photo.Data))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
		})
	}
}

func TestProcessShrinksLargePhotos(t *testing.T) {
	photo, err := Process(bytes.NewReader(encodePNG(t, 3200, 1600)))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, photo.Width)
	assert.Equal(t, MaxDimension/2, photo.Height)

	portrait, err := Process(bytes.NewReader(encodePNG(t, 800, 2400)))
	require.NoError(t, err)
	assert.Equal(t, MaxDimension, portrait.Height)
	assert.Equal(t, 533, portrait.Width)
}

func TestProcessRejects(t *testing.T) {
	var gifBuf bytes.Buffer
	require.NoError(t, gif.Encode(&gifBuf, solid(4, 4), nil))

	_, err := Process(bytes.NewReader([]byte("definitely not a photo")))
	assert.Error(t, err)

	_, err = Process(bytes.NewReader(gifBuf.Bytes()))
	assert.ErrorContains(t, err, "unsupported image format")

	_, err = Process(bytes.NewReader(make([]byte, MaxUploadBytes+1)))
	assert.ErrorIs(t, err, ErrTooLarge)
}
