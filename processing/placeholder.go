package processing

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Gradient color pairs cycled by scene index so that each placeholder in a
// video looks distinct but the same scene always gets the same image.
var placeholderPalette = [][2]color.RGBA{
	{{R: 30, G: 58, B: 95, A: 255}, {R: 94, G: 53, B: 120, A: 255}},
	{{R: 20, G: 83, B: 72, A: 255}, {R: 38, G: 135, B: 96, A: 255}},
	{{R: 120, G: 63, B: 30, A: 255}, {R: 173, G: 110, B: 54, A: 255}},
	{{R: 54, G: 54, B: 92, A: 255}, {R: 110, G: 64, B: 64, A: 255}},
	{{R: 34, G: 72, B: 110, A: 255}, {R: 52, G: 120, B: 130, A: 255}},
}

// PlaceholderPNG renders the deterministic stand-in image used when image
// generation fails for a scene: a vertical two-color gradient chosen by the
// scene index.
func PlaceholderPNG(index, width, height int) ([]byte, error) {
	pair := placeholderPalette[(index-1+len(placeholderPalette))%len(placeholderPalette)]
	top, bottom := pair[0], pair[1]

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePlaceholderPNG writes the placeholder for a scene to path.
func WritePlaceholderPNG(path string, index, width, height int) error {
	data, err := PlaceholderPNG(index, width, height)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
