package vfs

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// latin maps lowercase non-Latin letters to their closest Latin spelling.
// An empty value drops the letter.
var latin = map[rune]string{
	// Russian
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	// Ukrainian and Belarusian
	'і': "i", 'ї': "yi", 'є': "ye", 'ґ': "g", 'ў': "u",
	// Greek
	'α': "a", 'β': "v", 'γ': "g", 'δ': "d", 'ε': "e", 'ζ': "z", 'η': "i",
	'θ': "th", 'ι': "i", 'κ': "k", 'λ': "l", 'μ': "m", 'ν': "n", 'ξ': "x",
	'ο': "o", 'π': "p", 'ρ': "r", 'σ': "s", 'ς': "s", 'τ': "t", 'υ': "y",
	'φ': "f", 'χ': "ch", 'ψ': "ps", 'ω': "o",
	// Latin letters without a decomposition
	'ß': "ss", 'æ': "ae", 'ø': "o", 'đ': "d", 'ł': "l", 'œ': "oe",
	'þ': "th", 'ð': "d", 'ı': "i",
}

// stripMarks removes combining marks left over by NFD decomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Transliterate turns a display name into an ASCII-safe path segment.
// Letters are mapped rune by rune to Latin, diacritics are removed,
// whitespace and punctuation collapse into a single '_', symbols and
// anything else are dropped, and the result is lowercase with no leading or trailing '_'.
// The result may be empty.
func Transliterate(name string) string {
	var b strings.Builder
	pendingSep := false
	emit := func(s string) {
		if s == "" {
			return
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteString(s)
	}

	for _, r := range norm.NFC.String(name) {
		r = unicode.ToLower(r)
		if s, ok := latin[r]; ok {
			emit(s)
			continue
		}
		if isASCIIAlnum(r) {
			emit(string(r))
			continue
		}
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			pendingSep = true
			continue
		}
		if r > unicode.MaxASCII && unicode.IsLetter(r) {
			emit(baseLetters(r))
		}
	}
	return b.String()
}

// baseLetters strips diacritics from r and keeps whatever ASCII remains.
func baseLetters(r rune) string {
	base, _, err := transform.String(stripMarks, string(r))
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, br := range base {
		br = unicode.ToLower(br)
		if s, ok := latin[br]; ok {
			b.WriteString(s)
		} else if isASCIIAlnum(br) {
			b.WriteRune(br)
		}
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return ('a' <= r && r <= 'z') || ('0' <= r && r <= '9')
}

// Segment returns the physical path segment for a display name.
func Segment(name string) string {
	return Transliterate(name)
}

// UniqueName resolves a name collision among siblings by appending _1, _2, ...
// A candidate collides when it equals a sibling name or when both map to the
// same physical segment.
func UniqueName(name string, siblings []string) string {
	taken := func(candidate string) bool {
		seg := Segment(candidate)
		for _, s := range siblings {
			if s == candidate || Segment(s) == seg {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
