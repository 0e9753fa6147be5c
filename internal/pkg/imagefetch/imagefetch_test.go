package imagefetch

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ResizesWideImages(t *testing.T) {
	wide := image.NewRGBA(image.Rect(0, 0, MaxWidth*2, 600))
	for x := 0; x < MaxWidth*2; x += 100 {
		wide.Set(x, 0, color.RGBA{R: 255, A: 255})
	}

	img, err := Normalize(wide)
	require.NoError(t, err)
	assert.Equal(t, MaxWidth, img.Width)
	assert.Equal(t, 300, img.Height)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, ".jpg", img.Extension)
	assert.NotEmpty(t, img.Data)
}

func TestNormalize_KeepsSmallImages(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 320, 240))

	img, err := Normalize(small)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Width)
	assert.Equal(t, 240, img.Height)
}

func TestExtractImageURLs(t *testing.T) {
	html := `<html><body>
<img src="https://img.example/a.jpg" alt="a">
<img class="x" src="https://img.example/b.jpg">
<img src="https://img.example/a.jpg">
<img src="local.jpg">
</body></html>`

	urls := ExtractImageURLs(html)
	assert.Equal(t, []string{
		"https://img.example/a.jpg",
		"https://img.example/b.jpg",
	}, urls)
}

func TestExtractImageURLs_Empty(t *testing.T) {
	assert.Empty(t, ExtractImageURLs("<p>no images</p>"))
}
