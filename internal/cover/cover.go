// Package cover renders deterministic playlist cover art for a genre.
package cover

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image/jpeg"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/fogleman/gg"
)

const (
	// DefaultSize is the edge length in pixels of a generated cover.
	DefaultSize = 640

	// MaxImageBytes is the largest JPEG Spotify accepts once base64 encoded into a 256 KB body.
	MaxImageBytes = 190_000

	defaultQuality = 80
	bandCount      = 9
)

// Generator draws square JPEG covers. The same genre always yields the same image.
type Generator struct {
	Size    int
	Quality int
}

// NewGenerator returns a Generator with the default size and quality.
func NewGenerator() *Generator {
	return &Generator{Size: DefaultSize, Quality: defaultQuality}
}

// Generate renders the cover for genre as a JPEG.
func (g *Generator) Generate(genre string) (io.Reader, error) {
	size := g.Size
	if size <= 0 {
		size = DefaultSize
	}
	quality := g.Quality
	if quality <= 0 {
		quality = defaultQuality
	}

	rng := rand.New(rand.NewSource(seed(genre)))
	palette := triadPalette(rng)

	dc := gg.NewContext(size, size)
	bg := palette[0]
	dc.SetRGB(bg[0]*0.2, bg[1]*0.2, bg[2]*0.2)
	dc.Clear()

	drawBands(dc, rng, palette, float64(size))
	drawLabel(dc, genre, float64(size))

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, dc.Image(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding cover for %q: %w", genre, err)
	}
	if buf.Len() > MaxImageBytes {
		return nil, fmt.Errorf("cover for %q is %d bytes, over the %d byte limit", genre, buf.Len(), MaxImageBytes)
	}

	return buf, nil
}

func seed(genre string) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(genre)))
	return int64(h.Sum64())
}

// drawBands strokes thick diagonal bands whose angle and spacing derive from rng.
func drawBands(dc *gg.Context, rng *rand.Rand, palette [][3]float64, size float64) {
	angle := rng.Float64() * math.Pi
	spacing := size / bandCount

	dc.Push()
	dc.RotateAbout(angle, size/2, size/2)
	for i := -bandCount; i < 2*bandCount; i++ {
		c := palette[rng.Intn(len(palette))]
		dc.SetRGBA(c[0], c[1], c[2], 0.55+rng.Float64()*0.4)
		dc.SetLineWidth(spacing * (0.3 + rng.Float64()*0.6))

		x := float64(i) * spacing
		dc.DrawLine(x, -size, x, 2*size)
		dc.Stroke()
	}
	dc.Pop()

	// A soft disc keeps the label readable.
	dc.SetRGBA(0, 0, 0, 0.55)
	dc.DrawCircle(size/2, size/2, size*0.3)
	dc.Fill()
}

// drawLabel writes the genre name centered, scaling the built-in face to the canvas.
func drawLabel(dc *gg.Context, genre string, size float64) {
	label := strings.ToUpper(genre)
	w, _ := dc.MeasureString(label)
	if w == 0 {
		return
	}
	scale := math.Min(size*0.5/w, size/160)

	dc.Push()
	dc.SetRGB(1, 1, 1)
	dc.ScaleAbout(scale, scale, size/2, size/2)
	dc.DrawStringAnchored(label, size/2, size/2, 0.5, 0.35)
	dc.Pop()
}

// triadPalette returns three evenly spaced, saturated colors.
func triadPalette(rng *rand.Rand) [][3]float64 {
	base := rng.Float64() * 360
	return [][3]float64{
		hsvToRGB(base, 0.65, 0.95),
		hsvToRGB(math.Mod(base+120, 360), 0.55, 0.9),
		hsvToRGB(math.Mod(base+240, 360), 0.6, 0.85),
	}
}

// hsvToRGB converts HSV to RGB. h is [0-360), s and v are [0-1].
func hsvToRGB(h, s, v float64) [3]float64 {
	if s == 0 {
		return [3]float64{v, v, v}
	}
	h /= 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return [3]float64{v, t, p}
	case 1:
		return [3]float64{q, v, p}
	case 2:
		return [3]float64{p, v, t}
	case 3:
		return [3]float64{p, q, v}
	case 4:
		return [3]float64{t, p, v}
	default:
		return [3]float64{v, p, q}
	}
}
