package render

// 5x7 board font, subset covering digits, basic latin, umlauts and the
// punctuation the board needs. Rows are 5-bit strings, top to bottom.
var font = map[rune][7]string{
	' ': {"00000", "00000", "00000", "00000", "00000", "00000", "00000"},
	'0': {"01110", "10001", "10011", "10101", "11001", "10001", "01110"},
	'1': {"00100", "01100", "00100", "00100", "00100", "00100", "01110"},
	'2': {"01110", "10001", "00001", "00010", "00100", "01000", "11111"},
	'3': {"11110", "00001", "00001", "01110", "00001", "00001", "11110"},
	'4': {"10010", "10010", "10010", "11111", "00010", "00010", "00010"},
	'5': {"11111", "10000", "10000", "11110", "00001", "00001", "11110"},
	'6': {"01110", "10000", "10000", "11110", "10001", "10001", "01110"},
	'7': {"11111", "00001", "00010", "00100", "01000", "01000", "01000"},
	'8': {"01110", "10001", "10001", "01110", "10001", "10001", "01110"},
	'9': {"01110", "10001", "10001", "01111", "00001", "00001", "01110"},
	'A': {"01110", "10001", "10001", "11111", "10001", "10001", "10001"},
	'B': {"11110", "10001", "10001", "11110", "10001", "10001", "11110"},
	'C': {"01110", "10001", "10000", "10000", "10000", "10001", "01110"},
	'D': {"11110", "10001", "10001", "10001", "10001", "10001", "11110"},
	'E': {"11111", "10000", "10000", "11110", "10000", "10000", "11111"},
	'F': {"11111", "10000", "10000", "11110", "10000", "10000", "10000"},
	'G': {"01110", "10001", "10000", "10111", "10001", "10001", "01110"},
	'H': {"10001", "10001", "10001", "11111", "10001", "10001", "10001"},
	'I': {"01110", "00100", "00100", "00100", "00100", "00100", "01110"},
	'J': {"00111", "00010", "00010", "00010", "00010", "10010", "01100"},
	'K': {"10001", "10010", "10100", "11000", "10100", "10010", "10001"},
	'L': {"10000", "10000", "10000", "10000", "10000", "10000", "11111"},
	'M': {"10001", "11011", "10101", "10101", "10001", "10001", "10001"},
	'N': {"10001", "11001", "10101", "10011", "10001", "10001", "10001"},
	'O': {"01110", "10001", "10001", "10001", "10001", "10001", "01110"},
	'P': {"11110", "10001", "10001", "11110", "10000", "10000", "10000"},
	'Q': {"01110", "10001", "10001", "10001", "10101", "10010", "01101"},
	'R': {"11110", "10001", "10001", "11110", "10100", "10010", "10001"},
	'S': {"01111", "10000", "10000", "01110", "00001", "00001", "11110"},
	'T': {"11111", "00100", "00100", "00100", "00100", "00100", "00100"},
	'U': {"10001", "10001", "10001", "10001", "10001", "10001", "01110"},
	'V': {"10001", "10001", "10001", "10001", "10001", "01010", "00100"},
	'W': {"10001", "10001", "10001", "10101", "10101", "11011", "10001"},
	'X': {"10001", "10001", "01010", "00100", "01010", "10001", "10001"},
	'Y': {"10001", "10001", "01010", "00100", "00100", "00100", "00100"},
	'Z': {"11111", "00001", "00010", "00100", "01000", "10000", "11111"},
	'a': {"00000", "00000", "01110", "00001", "01111", "10001", "01111"},
	'b': {"10000", "10000", "11110", "10001", "10001", "10001", "11110"},
	'c': {"00000", "00000", "01110", "10000", "10000", "10001", "01110"},
	'd': {"00001", "00001", "01111", "10001", "10001", "10001", "01111"},
	'e': {"00000", "00000", "01110", "10001", "11111", "10000", "01110"},
	'f': {"00110", "01001", "01000", "11100", "01000", "01000", "01000"},
	'g': {"01110", "10001", "10001", "01111", "00001", "00001", "01110"},
	'h': {"10000", "10000", "11110", "10001", "10001", "10001", "10001"},
	'i': {"00100", "00000", "01100", "00100", "00100", "00100", "01110"},
	'j': {"00000", "00000", "00110", "00010", "00010", "00010", "01100"},
	'k': {"10000", "10000", "10010", "10100", "11000", "10100", "10010"},
	'l': {"01100", "00100", "00100", "00100", "00100", "00100", "01110"},
	'm': {"00000", "00000", "11010", "10101", "10101", "10101", "10101"},
	'n': {"00000", "00000", "11110", "10001", "10001", "10001", "10001"},
	'o': {"00000", "00000", "01110", "10001", "10001", "10001", "01110"},
	'p': {"11110", "10001", "10001", "11110", "10000", "10000", "10000"},
	'q': {"01110", "10001", "10001", "01111", "00001", "00001", "00001"},
	'r': {"00000", "00000", "10110", "11001", "10000", "10000", "10000"},
	's': {"00000", "00000", "01111", "10000", "01110", "00001", "11110"},
	't': {"00100", "00100", "11111", "00100", "00100", "00100", "00110"},
	'u': {"00000", "00000", "10001", "10001", "10001", "10001", "01111"},
	'v': {"00000", "00000", "10001", "10001", "10001", "01010", "00100"},
	'w': {"00000", "00000", "10001", "10101", "10101", "11011", "10001"},
	'x': {"00000", "00000", "10001", "01010", "00100", "01010", "10001"},
	'y': {"10001", "10001", "10001", "01111", "00001", "00001", "01110"},
	'z': {"00000", "00000", "11111", "00010", "00100", "01000", "11111"},
	'-': {"00000", "00000", "00000", "11100", "00000", "00000", "00000"},
	'\'': {"10000", "10000", "10000", "00000", "00000", "00000", "00000"},
	'/': {"00001", "00010", "00100", "00100", "01000", "10000", "10000"},
	':': {"00000", "01000", "00000", "00000", "01000", "00000", "00000"},
	',': {"00000", "00000", "00000", "00000", "00000", "00000", "01000"},
	'Ä': {"01110", "10001", "10001", "11111", "10001", "10001", "10001"},
	'Ö': {"01110", "10001", "10001", "10001", "10001", "10001", "01110"},
	'Ü': {"10001", "10001", "10001", "10001", "10001", "10001", "01110"},
	'ä': {"01010", "00000", "01110", "00001", "01111", "10001", "01111"},
	'ö': {"01010", "00000", "01110", "10001", "10001", "10001", "01110"},
	'ü': {"01010", "00000", "10001", "10001", "10001", "10001", "01111"},
}

const (
	charW       = 5
	charH       = 7
	charSpacing = 1 // between glyph runs
	lineSpacing = 5 // between departure rows
)

// Narrow glyphs advance less than the full cell.
var advWidth = map[rune]int{
	' ':  2,
	'-':  3,
	'\'': 1,
	',':  1,
	':':  3,
}

// These glyphs shift down, whole, instead of piercing the row above.
var descenders = map[rune]int{
	'p': 2, 'g': 2, 'q': 2, 'y': 2, 'j': 2,
	',': 1,
}

// GlyphWidth is the horizontal advance of ch, excluding spacing.
func GlyphWidth(ch rune) int {
	if w, ok := advWidth[ch]; ok {
		return w
	}
	return charW
}

// Measure returns the pixel width of text drawn with 1px spacing.
func Measure(text string) int {
	w := 0
	runes := []rune(text)
	for i, ch := range runes {
		w += GlyphWidth(ch)
		if i != len(runes)-1 {
			w += charSpacing
		}
	}
	return w
}
