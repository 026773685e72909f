// Package preview renders a PNG summary card for a batch of article
// titles. The card is cosmetic and best-effort: any failure here must not
// block the text delivery.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth     = 900
	marginX       = 48
	marginTop     = 72
	lineHeight    = 26
	titleGap      = 14
	maxTitleRunes = 72
)

var (
	gradientTop    = color.RGBA{R: 16, G: 42, B: 87, A: 255}
	gradientBottom = color.RGBA{R: 52, G: 100, B: 164, A: 255}
	textColor      = color.RGBA{R: 240, G: 244, B: 250, A: 255}
	headerColor    = color.RGBA{R: 255, G: 214, B: 102, A: 255}
)

// Render writes a summary card listing the given titles and returns the
// written file path. Titles are numbered and truncated to one line each.
func Render(dir, header string, titles []string) (string, error) {
	if len(titles) == 0 {
		return "", fmt.Errorf("no titles to render")
	}

	height := marginTop + len(titles)*(lineHeight+titleGap) + marginTop/2
	img := image.NewRGBA(image.Rect(0, 0, cardWidth, height))
	fillGradient(img)

	drawText(img, marginX, marginTop-lineHeight, header, headerColor)
	y := marginTop + lineHeight
	for i, title := range titles {
		line := fmt.Sprintf("%d. %s", i+1, clipRunes(title, maxTitleRunes))
		drawText(img, marginX, y, line, textColor)
		y += lineHeight + titleGap
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating preview dir: %w", err)
	}
	path := filepath.Join(dir, "digest-preview.png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating preview file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encoding preview: %w", err)
	}
	return path, nil
}

func fillGradient(img *image.RGBA) {
	bounds := img.Bounds()
	height := bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		t := float64(y) / float64(height)
		row := color.RGBA{
			R: lerp(gradientTop.R, gradientBottom.R, t),
			G: lerp(gradientTop.G, gradientBottom.G, t),
			B: lerp(gradientTop.B, gradientBottom.B, t),
			A: 255,
		}
		draw.Draw(img, image.Rect(bounds.Min.X, y, bounds.Max.X, y+1),
			&image.Uniform{row}, image.Point{}, draw.Src)
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}

func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func clipRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
