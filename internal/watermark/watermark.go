package watermark

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Apply stamps the label in the bottom-right corner of an image and
// re-encodes it in the same format. Callers treat any error as best-effort:
// the unwatermarked original stays valid.
func Apply(data []byte, mime, label string) ([]byte, error) {
	src, err := decode(data, mime)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Src)

	face := basicfont.Face7x13
	width := font.MeasureString(face, label).Ceil()
	margin := 8
	x := bounds.Max.X - width - margin
	y := bounds.Max.Y - margin
	if x < bounds.Min.X {
		x = bounds.Min.X
	}

	// Shadow first so the label stays readable on light and dark imagery.
	drawLabel(canvas, face, label, x+1, y+1, color.RGBA{0, 0, 0, 200})
	drawLabel(canvas, face, label, x, y, color.RGBA{255, 255, 255, 230})

	return encode(canvas, mime)
}

func drawLabel(dst draw.Image, face font.Face, label string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(label)
}

func decode(data []byte, mime string) (image.Image, error) {
	switch strings.ToLower(mime) {
	case "image/png":
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode png: %w", err)
		}
		return img, nil
	case "image/jpeg", "image/jpg":
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode jpeg: %w", err)
		}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported image type %s", mime)
	}
}

func encode(img image.Image, mime string) ([]byte, error) {
	var buf bytes.Buffer
	switch strings.ToLower(mime) {
	case "image/png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "image/jpeg", "image/jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 92}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image type %s", mime)
	}
	return buf.Bytes(), nil
}
