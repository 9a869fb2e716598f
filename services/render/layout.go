package render

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mkobak/departure-board/types"
	"github.com/mkobak/departure-board/x/strx"
)

// Panel geometry. The header glyph box sits at y=1..7, a full-width
// rule at y=10, and departure rows start at y=14 with 5px spacing.
const (
	boardMargin      = 1 // 1px dark border on all sides
	headerBaselineY  = 1
	ruleY            = headerBaselineY + charH + 2
	departuresStartY = ruleY + 1 + 3

	lineIdentDestGap = 5
	destMinsGap      = 4
	rightMargin      = 1
	minIdentChars    = 2
)

// Swiss stop names abbreviate well; both save a lot of row width.
var (
	bahnhofPattern = regexp.MustCompile(`(?i)bahnhof`)
	strassePattern = regexp.MustCompile(`(?i)strasse`)
)

// Layout fits board content to a panel of the given size.
type Layout struct {
	Cols, Rows int
}

// Capacity is the number of departure rows per page. A final row is
// squeezed in when the leftover fits a glyph box without its spacing.
func (l *Layout) Capacity() int {
	available := l.Rows - departuresStartY - boardMargin
	lineHeight := charH + lineSpacing
	full := available / lineHeight
	if leftover := available - full*lineHeight; leftover >= charH+1 {
		full++
	}
	return full
}

// StationCity is the part of a stop name before the first comma.
func StationCity(stop string) string {
	if i := strings.Index(stop, ","); i >= 0 {
		return strings.TrimSpace(stop[:i])
	}
	return strings.TrimSpace(stop)
}

// stripSameCity removes a leading "<city>, " from a destination when
// it names the board's own city, diacritic-insensitively; the
// remainder keeps its accents.
func stripSameCity(dest, city string) string {
	d := strings.TrimSpace(dest)
	city = strings.TrimSpace(city)
	if city == "" || !strings.Contains(d, ",") {
		return d
	}
	cityPart, remainder, _ := strings.Cut(d, ",")
	if strx.NormalizeKey(cityPart) == strx.NormalizeKey(city) {
		return strings.TrimSpace(remainder)
	}
	return d
}

// headerStopName picks the stop's short name for the header: the part
// after the comma when present, else the full name.
func headerStopName(stop string) string {
	if !strings.Contains(stop, ",") {
		return strings.TrimSpace(stop)
	}
	parts := strings.SplitN(stop, ",", 2)
	name := strings.TrimSpace(parts[1])
	if name == "" {
		name = strings.TrimSpace(parts[0])
	}
	return name
}

// ident picks the line identifier: trams show the bare number,
// everything else keeps the category prefix.
func ident(d types.Departure) string {
	cat := strings.ToUpper(strings.TrimSpace(d.Category))
	num := strings.TrimSpace(d.Number)
	if (cat == "T" || cat == "TRAM") && num != "" {
		return num
	}
	if s := strings.TrimSpace(d.Category) + num; s != "" {
		return s
	}
	return "?"
}

// truncate keeps the longest prefix of text that fits maxW pixels.
func truncate(text string, maxW int) string {
	var acc []rune
	cur := 0
	for _, ch := range text {
		add := GlyphWidth(ch)
		if len(acc) > 0 {
			add += charSpacing
		}
		if cur+add > maxW {
			break
		}
		acc = append(acc, ch)
		cur += add
	}
	return string(acc)
}

// PrepareRows shortens departures to what fits a row: same-city prefix
// stripped, "Bahnhof" abbreviated, destination truncated against the
// right-aligned minutes column.
func (l *Layout) PrepareRows(rows []types.Departure, origin string) []types.DisplayRow {
	city := StationCity(origin)
	innerWidth := l.Cols - 2*boardMargin

	out := make([]types.DisplayRow, 0, len(rows))
	for _, r := range rows {
		id := ident(r)
		identChars := len([]rune(id))
		if identChars < minIdentChars {
			identChars = minIdentChars
		}

		dest := strings.ReplaceAll(r.Destination, "\n", " ")
		dest = stripSameCity(dest, city)
		dest = bahnhofPattern.ReplaceAllString(dest, "Bhf.")
		dest = strassePattern.ReplaceAllString(dest, "Str.")

		identW := Measure(strings.Repeat("X", identChars))
		digitsW := Measure(strconv.Itoa(r.Minutes))
		totalMinutesW := digitsW + charSpacing + GlyphWidth('\'') + rightMargin
		digitsStartX := boardMargin + innerWidth - totalMinutesW
		destStartX := boardMargin + identW + lineIdentDestGap
		maxDestW := digitsStartX - destMinsGap - destStartX
		if maxDestW < 0 {
			maxDestW = 0
		}

		out = append(out, types.DisplayRow{
			Ident:       id,
			Destination: truncate(dest, maxDestW),
			Minutes:     r.Minutes,
		})
	}
	return out
}

// ---- rasterization ----

func (l *Layout) drawGlyph(b *types.Bitmap, x, y int, ch rune) {
	glyph, ok := font[ch]
	if !ok {
		glyph = font[' ']
	}
	y += descenders[ch]
	w := GlyphWidth(ch)
	for dy, row := range glyph {
		for dx := 0; dx < w && dx < len(row); dx++ {
			if row[dx] == '1' {
				b.Set(x+dx, y+dy, true)
			}
		}
	}
}

func (l *Layout) drawText(b *types.Bitmap, x, y int, text string) int {
	cur := x
	runes := []rune(text)
	for i, ch := range runes {
		l.drawGlyph(b, cur, y, ch)
		cur += GlyphWidth(ch)
		if i != len(runes)-1 {
			cur += charSpacing
		}
	}
	return cur - x
}

// Rasterize draws the frame's text content into a fresh bitmap.
func (l *Layout) Rasterize(f *types.Frame) *types.Bitmap {
	b := types.NewBitmap(l.Cols, l.Rows)

	innerLeft := boardMargin
	innerRight := l.Cols - boardMargin - 1
	innerWidth := l.Cols - 2*boardMargin

	// Header: stop name left, clock right, truncated to not collide.
	timeW := Measure(f.Clock)
	timeX := innerRight - timeW
	availableW := timeX - innerLeft - charSpacing
	if availableW < 0 {
		availableW = 0
	}
	l.drawText(b, innerLeft, headerBaselineY, truncate(f.Header, availableW))
	l.drawText(b, timeX, headerBaselineY, f.Clock)

	// Full-width rule, ignoring the horizontal margin.
	for x := 0; x < l.Cols; x++ {
		b.Set(x, ruleY, true)
	}

	switch {
	case f.Weather != nil:
		l.rasterizeWeather(b, f.Weather)
	case !f.Empty:
		l.rasterizeRows(b, f.Rows, innerLeft, innerWidth)
	}
	return b
}

func (l *Layout) rasterizeRows(b *types.Bitmap, rows []types.DisplayRow, innerLeft, innerWidth int) {
	lineHeight := charH + lineSpacing
	for idx, row := range rows {
		y := departuresStartY + idx*lineHeight

		identChars := len([]rune(row.Ident))
		if identChars < minIdentChars {
			identChars = minIdentChars
		}
		identW := Measure(strings.Repeat("X", identChars))
		// Right-align a single-char ident inside the two-char column.
		if identChars == minIdentChars && len([]rune(row.Ident)) == 1 {
			pad := Measure(strings.Repeat("X", minIdentChars)) - Measure(row.Ident)
			l.drawText(b, innerLeft+pad, y, row.Ident)
		} else {
			l.drawText(b, innerLeft, y, row.Ident)
		}

		l.drawText(b, innerLeft+identW+lineIdentDestGap, y, row.Destination)

		digits := strconv.Itoa(row.Minutes)
		digitsW := Measure(digits)
		apostropheW := GlyphWidth('\'')
		totalMinutesW := digitsW + charSpacing + apostropheW + rightMargin
		l.drawText(b, innerLeft+innerWidth-totalMinutesW, y, digits)
		l.drawGlyph(b, innerLeft+innerWidth-rightMargin-apostropheW, y, '\'')
	}
}

func (l *Layout) rasterizeWeather(b *types.Bitmap, w *types.WeatherSnapshot) {
	lineHeight := charH + lineSpacing
	y := departuresStartY

	temp := fmt.Sprintf("%d C", int(math.Round(w.TemperatureC)))
	l.drawText(b, boardMargin, y, temp)
	y += lineHeight

	if w.Description != "" {
		l.drawText(b, boardMargin, y, w.Description)
		y += lineHeight
	}

	wind := fmt.Sprintf("WIND %d KM/H", int(math.Round(w.WindSpeedKMH)))
	l.drawText(b, boardMargin, y, wind)
}
