package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/surveykn/internal/compiler"
	"github.com/roach88/surveykn/internal/engine"
)

const (
	defaultWidth  = 600
	defaultHeight = 400
	headerHeight  = 60
	legendRow     = 22
	emptyFill     = "#EEEEEE"
)

// SVG renders chart requests as standalone SVG documents. Output is a pure
// function of the request.
type SVG struct{}

// Render implements engine.ChartRenderer.
func (SVG) Render(_ context.Context, req engine.ChartRequest) (engine.Artifact, error) {
	c := newCanvas(req.Width, req.Height)
	c.header(req.Title, req.Annotations)

	switch req.Shape {
	case engine.ShapePie:
		c.pie(req.Slices, req.Pie)
		c.legend(req.Slices, true)
	case engine.ShapeStackedBar:
		c.stackedBar(req.Series, req.Pie)
		if len(req.Series) > 0 {
			c.legend(req.Series[0].Slices, false)
		}
	default:
		return engine.Artifact{}, fmt.Errorf("unsupported chart shape %q", req.Shape)
	}
	return engine.Artifact{Name: req.Name + ".svg", Data: c.bytes()}, nil
}

type canvas struct {
	buf  bytes.Buffer
	w, h float64
}

func newCanvas(w, h int) *canvas {
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	c := &canvas{w: float64(w), h: float64(h)}
	fmt.Fprintf(&c.buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`+"\n", w, h, w, h)
	fmt.Fprintf(&c.buf, `<rect width="%d" height="%d" fill="#FFFFFF"/>`+"\n", w, h)
	return c
}

func (c *canvas) bytes() []byte {
	c.buf.WriteString("</svg>\n")
	return c.buf.Bytes()
}

func (c *canvas) text(x, y float64, size int, anchor, fill, s string) {
	fmt.Fprintf(&c.buf, `<text x="%s" y="%s" font-size="%d" text-anchor="%s" fill="%s">%s</text>`+"\n",
		num(x), num(y), size, anchor, fill, html.EscapeString(s))
}

func (c *canvas) header(title string, annotations []string) {
	c.text(c.w/2, 24, 16, "middle", "#222222", title)
	if len(annotations) > 0 {
		c.text(c.w/2, 44, 12, "middle", "#555555", strings.Join(annotations, " · "))
	}
}

func total(slices []engine.Slice) int {
	n := 0
	for _, s := range slices {
		n += s.Count
	}
	return n
}

func (c *canvas) pie(slices []engine.Slice, style compiler.PieStyle) {
	cx := c.w * 0.35
	cy := headerHeight + (c.h-headerHeight)/2
	r := math.Min(c.w*0.3, (c.h-headerHeight-20)/2)

	sum := total(slices)
	if sum == 0 {
		fmt.Fprintf(&c.buf, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n", num(cx), num(cy), num(r), emptyFill)
		c.text(cx, cy, 12, "middle", "#555555", "No answers")
		return
	}

	stroke := fmt.Sprintf(`stroke="%s" stroke-width="%d"`, style.LineColor, style.LineWidth)
	angle := -math.Pi / 2
	for _, s := range slices {
		if s.Count == 0 {
			continue
		}
		frac := float64(s.Count) / float64(sum)
		sweep := 2 * math.Pi * frac
		if s.Count == sum {
			fmt.Fprintf(&c.buf, `<circle cx="%s" cy="%s" r="%s" fill="%s" %s/>`+"\n", num(cx), num(cy), num(r), s.Color, stroke)
		} else {
			x1, y1 := cx+r*math.Cos(angle), cy+r*math.Sin(angle)
			x2, y2 := cx+r*math.Cos(angle+sweep), cy+r*math.Sin(angle+sweep)
			large := 0
			if sweep > math.Pi {
				large = 1
			}
			fmt.Fprintf(&c.buf, `<path d="M %s %s L %s %s A %s %s 0 %d 1 %s %s Z" fill="%s" %s/>`+"\n",
				num(cx), num(cy), num(x1), num(y1), num(r), num(r), large, num(x2), num(y2), s.Color, stroke)
		}
		if label := sliceLabel(s, frac, style); label != "" {
			mid := angle + sweep/2
			if s.Count == sum {
				mid = math.Pi / 2
			}
			lx, ly := cx+0.65*r*math.Cos(mid), cy+0.65*r*math.Sin(mid)
			c.text(lx, ly+4, 11, "middle", "#000000", label)
		}
		angle += sweep
	}
}

func sliceLabel(s engine.Slice, frac float64, style compiler.PieStyle) string {
	var parts []string
	if style.ShowValue {
		parts = append(parts, strconv.Itoa(s.Count))
	}
	if style.ShowPercent {
		parts = append(parts, percent(frac))
	}
	if style.ShowLabel {
		parts = append(parts, s.Label)
	}
	return strings.Join(parts, " ")
}

func (c *canvas) stackedBar(series []engine.Series, style compiler.PieStyle) {
	left, right := 60.0, c.w*0.68
	top, bottom := float64(headerHeight)+10, c.h-40
	plotH := bottom - top

	// Axis with 0/50/100% ticks.
	fmt.Fprintf(&c.buf, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#999999"/>`+"\n", num(left), num(top), num(left), num(bottom))
	fmt.Fprintf(&c.buf, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#999999"/>`+"\n", num(left), num(bottom), num(right), num(bottom))
	for _, p := range []float64{0, 0.5, 1} {
		y := bottom - p*plotH
		c.text(left-6, y+4, 10, "end", "#555555", percent(p))
	}

	if len(series) == 0 {
		return
	}
	slot := (right - left) / float64(len(series))
	barW := slot * 0.6
	for i, s := range series {
		x := left + slot*float64(i) + (slot-barW)/2
		c.text(x+barW/2, bottom+16, 11, "middle", "#222222", s.Label)

		sum := total(s.Slices)
		if sum == 0 {
			c.text(x+barW/2, bottom-6, 10, "middle", "#555555", "n/a")
			continue
		}
		y := bottom
		for _, sl := range s.Slices {
			if sl.Count == 0 {
				continue
			}
			frac := float64(sl.Count) / float64(sum)
			h := frac * plotH
			y -= h
			fmt.Fprintf(&c.buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s" stroke-width="%d"/>`+"\n",
				num(x), num(y), num(barW), num(h), sl.Color, style.LineColor, style.LineWidth)
			if style.ShowPercent && h >= 14 {
				c.text(x+barW/2, y+h/2+4, 10, "middle", "#000000", percent(frac))
			}
		}
	}
}

func (c *canvas) legend(slices []engine.Slice, withCounts bool) {
	x := c.w * 0.72
	y := float64(headerHeight) + 10
	for _, s := range slices {
		fmt.Fprintf(&c.buf, `<rect x="%s" y="%s" width="14" height="14" fill="%s"/>`+"\n", num(x), num(y), s.Color)
		label := s.Label
		if withCounts {
			label = fmt.Sprintf("%s (%d)", s.Label, s.Count)
		}
		c.text(x+20, y+12, 12, "start", "#222222", label)
		y += legendRow
	}
}

func num(f float64) string {
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func percent(frac float64) string {
	return strconv.FormatFloat(frac*100, 'f', 1, 64) + "%"
}
