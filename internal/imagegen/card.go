package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Card dimensions match the Open Graph recommendation.
const (
	CardWidth  = 1200
	CardHeight = 630
)

var (
	fontLarge   font.Face
	fontRegular font.Face
	fontSmall   font.Face
	fontOnce    sync.Once
	fontErr     error
)

func loadFonts() {
	fontOnce.Do(func() {
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse goregular: %w", err)
			return
		}
		medium, err := opentype.Parse(gomedium.TTF)
		if err != nil {
			fontErr = fmt.Errorf("parse gomedium: %w", err)
			return
		}

		faces := []struct {
			dst  *font.Face
			font *opentype.Font
			size float64
		}{
			{&fontLarge, medium, 140},
			{&fontRegular, regular, 44},
			{&fontSmall, regular, 28},
		}
		for _, f := range faces {
			face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
				Size:    f.size,
				DPI:     72,
				Hinting: font.HintingFull,
			})
			if err != nil {
				fontErr = fmt.Errorf("create %.0fpt face: %w", f.size, err)
				return
			}
			*f.dst = face
		}
	})
}

// CardData is what a share card shows.
type CardData struct {
	Location    string
	Country     string
	Temperature float64
	Condition   string
	// Gradient is a CSS linear-gradient; its colour stops become the
	// vertical background.
	Gradient string
	// TextColor is a #rrggbb colour for the overlay text.
	TextColor string
	Updated   string
}

// Render draws a PNG card.
func Render(data CardData) ([]byte, error) {
	loadFonts()
	if fontErr != nil {
		return nil, fmt.Errorf("load fonts: %w", fontErr)
	}

	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))
	drawGradient(img, ParseGradient(data.Gradient))

	text, ok := ParseHex(data.TextColor)
	if !ok {
		text = color.RGBA{255, 255, 255, 255}
	}
	faded := text
	faded.A = 200

	place := data.Location
	if data.Country != "" {
		place += ", " + data.Country
	}
	drawText(img, place, 60, 100, text, fontRegular)
	drawText(img, fmt.Sprintf("%.0f°", data.Temperature), 60, CardHeight-200, text, fontLarge)
	if data.Condition != "" {
		drawText(img, data.Condition, 60, CardHeight-110, text, fontRegular)
	}
	if data.Updated != "" {
		drawText(img, "Updated "+data.Updated, 60, CardHeight-50, faded, fontSmall)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// Stop is one colour stop of a gradient, Pos in [0,1].
type Stop struct {
	Color color.RGBA
	Pos   float64
}

var (
	stopPattern = regexp.MustCompile(`#([0-9a-fA-F]{6})\s*(\d+(?:\.\d+)?)?%?`)
	fallback    = []Stop{
		{Color: color.RGBA{20, 20, 40, 255}, Pos: 0},
		{Color: color.RGBA{30, 35, 60, 255}, Pos: 1},
	}
)

// ParseGradient extracts the #rrggbb stops of a CSS gradient. Stops without
// a position are spread evenly. Fewer than two stops yields a dark default.
func ParseGradient(css string) []Stop {
	matches := stopPattern.FindAllStringSubmatch(css, -1)
	if len(matches) < 2 {
		return fallback
	}
	stops := make([]Stop, 0, len(matches))
	for i, m := range matches {
		c, _ := ParseHex("#" + m[1])
		pos := float64(i) / float64(len(matches)-1)
		if m[2] != "" {
			if p, err := strconv.ParseFloat(m[2], 64); err == nil {
				pos = p / 100
			}
		}
		stops = append(stops, Stop{Color: c, Pos: pos})
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Pos < stops[j].Pos })
	return stops
}

// ParseHex parses #rrggbb.
func ParseHex(s string) (color.RGBA, bool) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
}

// colorAt interpolates the stops at position p.
func colorAt(stops []Stop, p float64) color.RGBA {
	if p <= stops[0].Pos {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		a, b := stops[i-1], stops[i]
		if p > b.Pos {
			continue
		}
		span := b.Pos - a.Pos
		if span <= 0 {
			return b.Color
		}
		t := (p - a.Pos) / span
		return color.RGBA{
			R: lerp(a.Color.R, b.Color.R, t),
			G: lerp(a.Color.G, b.Color.G, t),
			B: lerp(a.Color.B, b.Color.B, t),
			A: 255,
		}
	}
	return stops[len(stops)-1].Color
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}

func drawGradient(img *image.RGBA, stops []Stop) {
	bounds := img.Bounds()
	h := bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		c := colorAt(stops, float64(y-bounds.Min.Y)/float64(h-1))
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
