// Package signature captures hand-drawn signatures on a raster surface.
//
// A Surface mirrors a browser drawing canvas: its backing buffer is sized to the
// element's on-screen size multiplied by the device pixel ratio, pointer events
// arrive in screen (client) coordinates together with the element's bounding
// rectangle, and Capture serialises the buffer to PNG.
package signature

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// State is the capture state of a surface.
type State string

const (
	StateEmpty    State = "empty"
	StateCaptured State = "captured"
)

var (
	// ErrNothingDrawn is returned by Capture when every pixel is transparent.
	ErrNothingDrawn = errors.New("nothing drawn")
	// ErrTooLarge is returned for images or stroke recordings above the surface limits.
	ErrTooLarge = errors.New("signature too large")
)

const (
	// MaxDevicePixels bounds the backing buffer area (width*height) of any surface or decoded image.
	MaxDevicePixels = 2048 * 1024
	// MaxCSSDimension bounds each side of the element a surface mirrors.
	MaxCSSDimension = 4096
	// MaxReplayPoints bounds the total number of points Replay accepts.
	MaxReplayPoints = 20000

	defaultStrokeWidth = 2.5
	maxPixelRatio      = 4
	capSegments        = 12
)

// Point is a coordinate pair, in client space or surface space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is the element's on-screen bounding box in client space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Stroke is one pointer-down..pointer-up sequence.
type Stroke struct {
	Rect   Rect    `json:"rect"`
	Points []Point `json:"points" validate:"max=4096"`
}

// Option customises a Surface.
type Option func(*Surface)

// WithStrokeWidth sets the pen width in CSS pixels.
func WithStrokeWidth(width float64) Option {
	return func(s *Surface) {
		if width > 0 {
			s.strokeWidth = width
		}
	}
}

// WithInk sets the pen colour.
func WithInk(c color.Color) Option {
	return func(s *Surface) {
		s.ink = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
}

// Surface is a drawing surface with an explicit backing buffer.
type Surface struct {
	buf         *image.NRGBA
	cssWidth    int
	cssHeight   int
	ratio       float64
	strokeWidth float64
	ink         color.NRGBA

	drawing  bool
	last     Point
	state    State
	captured []byte
	raster   *vector.Rasterizer
}

// NewSurface allocates a surface for an element of the given CSS size.
func NewSurface(cssWidth, cssHeight int, pixelRatio float64, opts ...Option) *Surface {
	s := &Surface{
		strokeWidth: defaultStrokeWidth,
		ink:         color.NRGBA{A: 0xff},
		state:       StateEmpty,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Resize(cssWidth, cssHeight, pixelRatio)
	return s
}

// Resize reallocates the backing buffer to cssWidth*pixelRatio by cssHeight*pixelRatio.
// Existing ink is rescaled into the new buffer so strokes keep their proportions.
// Sides are clamped to MaxCSSDimension and the ratio is lowered until the buffer
// fits in MaxDevicePixels.
func (s *Surface) Resize(cssWidth, cssHeight int, pixelRatio float64) {
	cssWidth = clampInt(cssWidth, 1, MaxCSSDimension)
	cssHeight = clampInt(cssHeight, 1, MaxCSSDimension)
	if pixelRatio <= 0 || math.IsNaN(pixelRatio) {
		pixelRatio = 1
	}
	if pixelRatio > maxPixelRatio {
		pixelRatio = maxPixelRatio
	}
	area := float64(cssWidth) * float64(cssHeight)
	if area*pixelRatio*pixelRatio > MaxDevicePixels {
		pixelRatio = math.Sqrt(MaxDevicePixels / area)
	}

	w := clampInt(int(math.Round(float64(cssWidth)*pixelRatio)), 1, MaxDevicePixels)
	h := clampInt(int(math.Round(float64(cssHeight)*pixelRatio)), 1, MaxDevicePixels/w)
	next := image.NewNRGBA(image.Rect(0, 0, w, h))
	if s.buf != nil && !s.IsBlank() {
		xdraw.CatmullRom.Scale(next, next.Bounds(), s.buf, s.buf.Bounds(), xdraw.Over, nil)
	}

	s.buf = next
	s.cssWidth = cssWidth
	s.cssHeight = cssHeight
	s.ratio = pixelRatio
	s.raster = vector.NewRasterizer(w, h)
	s.drawing = false
}

// Bounds returns the backing buffer bounds in device pixels.
func (s *Surface) Bounds() image.Rectangle {
	return s.buf.Bounds()
}

// ToSurface maps a client-space point into backing-buffer coordinates using the
// element's on-screen rectangle, which stays correct under any CSS scaling.
func (s *Surface) ToSurface(client Point, rect Rect) Point {
	b := s.buf.Bounds()
	width, height := rect.Width, rect.Height
	if width <= 0 {
		width = float64(s.cssWidth)
	}
	if height <= 0 {
		height = float64(s.cssHeight)
	}
	return Point{
		X: (client.X - rect.Left) * float64(b.Dx()) / width,
		Y: (client.Y - rect.Top) * float64(b.Dy()) / height,
	}
}

// PointerDown begins a stroke.
func (s *Surface) PointerDown(client Point, rect Rect) {
	s.drawing = true
	s.last = s.ToSurface(client, rect)
}

// PointerMove draws a segment from the previous point when a stroke is active.
func (s *Surface) PointerMove(client Point, rect Rect) {
	if !s.drawing {
		return
	}
	p := s.ToSurface(client, rect)
	s.segment(s.last, p)
	s.last = p
}

// PointerUp ends the active stroke.
func (s *Surface) PointerUp() {
	s.drawing = false
}

// PointerLeave ends the active stroke when the pointer exits the element.
func (s *Surface) PointerLeave() {
	s.drawing = false
}

// Replay feeds recorded strokes through the pointer handlers. Recordings with more
// than MaxReplayPoints points are rejected before anything is drawn.
func (s *Surface) Replay(strokes []Stroke) error {
	total := 0
	for _, stroke := range strokes {
		total += len(stroke.Points)
	}
	if total > MaxReplayPoints {
		return fmt.Errorf("%w: %d points", ErrTooLarge, total)
	}
	for _, stroke := range strokes {
		if len(stroke.Points) == 0 {
			continue
		}
		s.PointerDown(stroke.Points[0], stroke.Rect)
		for _, p := range stroke.Points[1:] {
			s.PointerMove(p, stroke.Rect)
		}
		s.PointerUp()
	}
	return nil
}

// IsBlank reports whether every pixel of the buffer is fully transparent.
func (s *Surface) IsBlank() bool {
	return isBlankNRGBA(s.buf)
}

// State returns the capture state.
func (s *Surface) State() State {
	return s.state
}

// Capture serialises the surface to PNG. It fails with ErrNothingDrawn on a blank surface.
func (s *Surface) Capture() ([]byte, error) {
	if s.IsBlank() {
		return nil, ErrNothingDrawn
	}
	var out bytes.Buffer
	if err := imaging.Encode(&out, s.buf, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode signature: %w", err)
	}
	s.captured = out.Bytes()
	s.state = StateCaptured
	return append([]byte(nil), s.captured...), nil
}

// Captured returns the last captured image, or nil when none.
func (s *Surface) Captured() []byte {
	if s.captured == nil {
		return nil
	}
	return append([]byte(nil), s.captured...)
}

// Clear resets the surface to blank and discards the captured image.
func (s *Surface) Clear() {
	for i := range s.buf.Pix {
		s.buf.Pix[i] = 0
	}
	s.captured = nil
	s.state = StateEmpty
	s.drawing = false
}

func (s *Surface) segment(a, b Point) {
	radius := s.strokeWidth * s.ratio / 2
	s.disc(a, radius)
	s.disc(b, radius)

	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*radius, dx/length*radius
	s.polygon([]Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	})
}

func (s *Surface) disc(c Point, radius float64) {
	pts := make([]Point, capSegments)
	for i := range pts {
		theta := 2 * math.Pi * float64(i) / capSegments
		pts[i] = Point{X: c.X + radius*math.Cos(theta), Y: c.Y + radius*math.Sin(theta)}
	}
	s.polygon(pts)
}

func (s *Surface) polygon(pts []Point) {
	b := s.buf.Bounds()
	s.raster.Reset(b.Dx(), b.Dy())
	s.raster.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		s.raster.LineTo(float32(p.X), float32(p.Y))
	}
	s.raster.ClosePath()
	s.raster.Draw(s.buf, b, image.NewUniform(s.ink), image.Point{})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isBlankNRGBA(img *image.NRGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			return false
		}
	}
	return true
}
