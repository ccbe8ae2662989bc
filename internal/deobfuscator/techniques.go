package deobfuscator

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"encoding/base64"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Base64Deobfuscator replaces base64_decode('...') and atob('...') literals
// with their decoded text
type Base64Deobfuscator struct {
	re *regexp.Regexp
}

// NewBase64Deobfuscator creates a new Base64 deobfuscator
func NewBase64Deobfuscator() *Base64Deobfuscator {
	return &Base64Deobfuscator{
		re: regexp.MustCompile(`(?i)\b(?:base64_decode|atob)\s*\(\s*['"]([A-Za-z0-9+/=]{8,})['"]\s*\)`),
	}
}

// Name returns the deobfuscator name
func (d *Base64Deobfuscator) Name() string {
	return "base64"
}

// CanDeobfuscate checks for a literal argument
func (d *Base64Deobfuscator) CanDeobfuscate(content string) bool {
	return d.re.MatchString(content)
}

// Deobfuscate decodes each literal in place, quoting the result
func (d *Base64Deobfuscator) Deobfuscate(content string) (string, error) {
	return d.re.ReplaceAllStringFunc(content, func(match string) string {
		sub := d.re.FindStringSubmatch(match)
		decoded, ok := decodeBase64(sub[1])
		if !ok {
			return match
		}
		return `"` + decoded + `"`
	}), nil
}

// EvalDeobfuscator unwraps eval(<decoder>('...')) chains used to hide PHP payloads
type EvalDeobfuscator struct {
	base64Re  *regexp.Regexp
	gzinflate *regexp.Regexp
	rot13Re   *regexp.Regexp
	strrevRe  *regexp.Regexp
}

// NewEvalDeobfuscator creates a new Eval deobfuscator
func NewEvalDeobfuscator() *EvalDeobfuscator {
	return &EvalDeobfuscator{
		base64Re:  regexp.MustCompile(`(?i)\beval\s*\(\s*base64_decode\s*\(\s*['"]([A-Za-z0-9+/=]+)['"]\s*\)\s*\)`),
		gzinflate: regexp.MustCompile(`(?i)\beval\s*\(\s*(gzinflate|gzuncompress)\s*\(\s*base64_decode\s*\(\s*['"]([A-Za-z0-9+/=]+)['"]\s*\)\s*\)\s*\)`),
		rot13Re:   regexp.MustCompile(`(?i)\beval\s*\(\s*str_rot13\s*\(\s*` + quotedLiteral + `\s*\)\s*\)`),
		strrevRe:  regexp.MustCompile(`(?i)\beval\s*\(\s*strrev\s*\(\s*` + quotedLiteral + `\s*\)\s*\)`),
	}
}

// Name returns the deobfuscator name
func (d *EvalDeobfuscator) Name() string {
	return "eval"
}

// CanDeobfuscate checks for a supported eval wrapper
func (d *EvalDeobfuscator) CanDeobfuscate(content string) bool {
	return d.base64Re.MatchString(content) || d.gzinflate.MatchString(content) ||
		d.rot13Re.MatchString(content) || d.strrevRe.MatchString(content)
}

// Deobfuscate replaces each wrapper with eval("<payload>") so the eval
// itself stays visible to signatures
func (d *EvalDeobfuscator) Deobfuscate(content string) (string, error) {
	result := d.gzinflate.ReplaceAllStringFunc(content, func(match string) string {
		sub := d.gzinflate.FindStringSubmatch(match)
		raw, err := base64.StdEncoding.DecodeString(sub[2])
		if err != nil {
			return match
		}
		inflated, err := inflate(raw, strings.EqualFold(sub[1], "gzuncompress"))
		if err != nil {
			return match
		}
		return wrapEval(inflated)
	})

	result = d.base64Re.ReplaceAllStringFunc(result, func(match string) string {
		decoded, ok := decodeBase64(d.base64Re.FindStringSubmatch(match)[1])
		if !ok {
			return match
		}
		return wrapEval(decoded)
	})

	result = d.rot13Re.ReplaceAllStringFunc(result, func(match string) string {
		return wrapEval(rot13(literal(d.rot13Re.FindStringSubmatch(match), 1)))
	})

	result = d.strrevRe.ReplaceAllStringFunc(result, func(match string) string {
		return wrapEval(reverse(literal(d.strrevRe.FindStringSubmatch(match), 1)))
	})

	return result, nil
}

// CharCodeDeobfuscator replaces String.fromCharCode(..) and chr(..) chains
// with string literals
type CharCodeDeobfuscator struct {
	fromCharCode *regexp.Regexp
	chrChain     *regexp.Regexp
	chrItem      *regexp.Regexp
}

// NewCharCodeDeobfuscator creates a new char code deobfuscator
func NewCharCodeDeobfuscator() *CharCodeDeobfuscator {
	return &CharCodeDeobfuscator{
		fromCharCode: regexp.MustCompile(`String\.fromCharCode\s*\(\s*((?:\d{1,5}\s*,\s*)*\d{1,5})\s*\)`),
		chrChain:     regexp.MustCompile(`(?i)\bchr\s*\(\s*\d{1,3}\s*\)(?:\s*\.\s*chr\s*\(\s*\d{1,3}\s*\))+`),
		chrItem:      regexp.MustCompile(`(?i)chr\s*\(\s*(\d{1,3})\s*\)`),
	}
}

// Name returns the deobfuscator name
func (d *CharCodeDeobfuscator) Name() string {
	return "charcode"
}

// CanDeobfuscate checks for char code construction
func (d *CharCodeDeobfuscator) CanDeobfuscate(content string) bool {
	return d.fromCharCode.MatchString(content) || d.chrChain.MatchString(content)
}

// Deobfuscate rebuilds the encoded strings
func (d *CharCodeDeobfuscator) Deobfuscate(content string) (string, error) {
	result := d.fromCharCode.ReplaceAllStringFunc(content, func(match string) string {
		codes := strings.Split(d.fromCharCode.FindStringSubmatch(match)[1], ",")
		var sb strings.Builder
		for _, c := range codes {
			n, err := strconv.Atoi(strings.TrimSpace(c))
			if err != nil {
				return match
			}
			sb.WriteRune(rune(n))
		}
		return strconv.Quote(sb.String())
	})

	result = d.chrChain.ReplaceAllStringFunc(result, func(match string) string {
		var sb strings.Builder
		for _, item := range d.chrItem.FindAllStringSubmatch(match, -1) {
			n, _ := strconv.Atoi(item[1])
			sb.WriteByte(byte(n))
		}
		return strconv.Quote(sb.String())
	})

	return result, nil
}

// PercentDeobfuscator decodes unescape/decodeURIComponent/urldecode literals
type PercentDeobfuscator struct {
	re *regexp.Regexp
}

// NewPercentDeobfuscator creates a new percent-encoding deobfuscator
func NewPercentDeobfuscator() *PercentDeobfuscator {
	return &PercentDeobfuscator{
		re: regexp.MustCompile(`(?i)\b(?:unescape|decodeURIComponent|decodeURI|urldecode|rawurldecode)\s*\(\s*` +
			`(?:'(` + percentBody("'") + `)'|"(` + percentBody(`"`) + `)")\s*\)`),
	}
}

// Name returns the deobfuscator name
func (d *PercentDeobfuscator) Name() string {
	return "percent"
}

// CanDeobfuscate checks for a percent-encoded literal
func (d *PercentDeobfuscator) CanDeobfuscate(content string) bool {
	return d.re.MatchString(content)
}

// Deobfuscate decodes each literal in place
func (d *PercentDeobfuscator) Deobfuscate(content string) (string, error) {
	return d.re.ReplaceAllStringFunc(content, func(match string) string {
		decoded, err := url.PathUnescape(literal(d.re.FindStringSubmatch(match), 1))
		if err != nil {
			return match
		}
		return strconv.Quote(decoded)
	}), nil
}

func decodeBase64(s string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// quotedLiteral captures a single- or double-quoted literal in two groups
const quotedLiteral = `(?:'([^']+)'|"([^"]+)")`

// percentBody matches literal text holding at least one %XX escape and no
// unescaped quote character
func percentBody(quote string) string {
	other := `(?:%[0-9a-f]{2}|[^` + quote + `%])*`
	return other + `%[0-9a-f]{2}` + other
}

// literal returns whichever of the quote groups starting at i matched
func literal(sub []string, i int) string {
	if sub[i] != "" {
		return sub[i]
	}
	return sub[i+1]
}

func wrapEval(payload string) string {
	return `eval("` + payload + `")`
}

// inflate handles gzinflate (raw DEFLATE) and gzuncompress (zlib)
func inflate(data []byte, zlibWrapped bool) (string, error) {
	var reader io.ReadCloser
	if zlibWrapped {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		reader = zr
	} else {
		reader = flate.NewReader(bytes.NewReader(data))
	}
	defer reader.Close()

	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// rot13 performs ROT13 transformation
func rot13(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			result.WriteRune('A' + (r-'A'+13)%26)
		case r >= 'a' && r <= 'z':
			result.WriteRune('a' + (r-'a'+13)%26)
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// reverse reverses a string
func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
