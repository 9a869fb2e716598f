package types

// ------------------------
// Rendered frames
// ------------------------

// DisplayRow is one prepared departure row: text already shortened to
// fit the panel, columns resolved by the layout.
type DisplayRow struct {
	Ident       string
	Destination string
	Minutes     int
}

// Frame is what the render loop hands to a display sink once per tick.
// Pixel sinks blit Bitmap; the console sink prints the text fields.
type Frame struct {
	Header string // screen title, fitted to the header budget
	Clock  string // "HH:MM"
	Rows   []DisplayRow
	// Weather is set instead of Rows on a weather screen.
	Weather *WeatherSnapshot
	Page    int
	// Empty marks "no data yet" (cleared cache right after a screen
	// switch, or before first successful fetch).
	Empty  bool
	Bitmap *Bitmap
}

// Bitmap is a monochrome pixel buffer, row-major, origin top-left.
// Sinks decide what "on" means (amber on the HUB75, white on the OLED).
type Bitmap struct {
	W, H int
	bits []bool
}

func NewBitmap(w, h int) *Bitmap {
	return &Bitmap{W: w, H: h, bits: make([]bool, w*h)}
}

func (b *Bitmap) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return
	}
	b.bits[y*b.W+x] = on
}

func (b *Bitmap) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= b.W || y >= b.H {
		return false
	}
	return b.bits[y*b.W+x]
}

func (b *Bitmap) Clear() {
	for i := range b.bits {
		b.bits[i] = false
	}
}

// Count returns the number of lit pixels.
func (b *Bitmap) Count() int {
	n := 0
	for _, v := range b.bits {
		if v {
			n++
		}
	}
	return n
}
