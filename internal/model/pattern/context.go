package pattern

import "regexp"

// Context is the surrounding risk factor of a line
type Context string

const (
	ContextDefault    Context = "default"
	ContextUserInput  Context = "user_input"
	ContextEval       Context = "eval"
	ContextSystemCall Context = "system_call"
	ContextObfuscated Context = "obfuscated"
	ContextEncoded    Context = "encoded"
)

// contextMultipliers scale the signature score by the primary context
var contextMultipliers = map[Context]float64{
	ContextDefault:    1.0,
	ContextUserInput:  1.3,
	ContextEval:       1.5,
	ContextSystemCall: 1.4,
	ContextObfuscated: 1.3,
	ContextEncoded:    1.2,
}

// contextPriority orders contexts from most to least significant
var contextPriority = []Context{
	ContextEval,
	ContextUserInput,
	ContextSystemCall,
	ContextObfuscated,
	ContextEncoded,
	ContextDefault,
}

// ContextDetector finds risk factors in a line of code
type ContextDetector struct {
	userInputPattern   *regexp.Regexp
	evalPattern        *regexp.Regexp
	systemCallPattern  *regexp.Regexp
	obfuscatedPatterns []*regexp.Regexp
	encodedPatterns    []*regexp.Regexp
}

// NewContextDetector creates a context detector
func NewContextDetector() *ContextDetector {
	return &ContextDetector{
		// Request data on the server, page address in the browser
		userInputPattern: regexp.MustCompile(`(?i)\$_(GET|POST|REQUEST|COOKIE|SERVER|FILES)\s*\[|\blocation\.(search|hash)\b|\bdocument\.(URL|referrer|cookie)\b|\bwindow\.name\b|\bURLSearchParams\b`),

		evalPattern: regexp.MustCompile(`(?i)\b(eval|assert|create_function)\s*\(|\bnew\s+Function\s*\(`),

		systemCallPattern: regexp.MustCompile(`(?i)\b(exec|system|passthru|shell_exec|proc_open|popen|pcntl_exec)\s*\(|` + "`" + `[^` + "`" + `]+` + "`"),

		obfuscatedPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\$[a-z]\d+[a-z]+\d+`),
			regexp.MustCompile(`\$[O0][O0Il1]+`),
			regexp.MustCompile(`\$_[A-F0-9]{32,}`),
			regexp.MustCompile(`\$\$+[a-zA-Z_]`),
			regexp.MustCompile(`(\\x[0-9a-fA-F]{2}){4,}`),
			regexp.MustCompile(`[\w]+\s*=\s*["'][^"']{100,}["']`),
		},

		encodedPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(base64_decode|gzinflate|gzuncompress|str_rot13|convert_uudecode|hex2bin|atob)\s*\(`),
			regexp.MustCompile(`(?i)\bString\.fromCharCode\s*\(`),
			regexp.MustCompile(`["'][A-Za-z0-9+/]{100,}={0,2}["']`),
		},
	}
}

// DetectContexts returns every context present in text
func (cd *ContextDetector) DetectContexts(text string) map[Context]bool {
	contexts := map[Context]bool{ContextDefault: true}

	if cd.userInputPattern.MatchString(text) {
		contexts[ContextUserInput] = true
	}
	if cd.evalPattern.MatchString(text) {
		contexts[ContextEval] = true
	}
	if cd.systemCallPattern.MatchString(text) {
		contexts[ContextSystemCall] = true
	}

	// Need at least 2 obfuscation indicators
	obfuscation := 0
	for _, p := range cd.obfuscatedPatterns {
		if p.MatchString(text) {
			obfuscation++
		}
	}
	if obfuscation >= 2 {
		contexts[ContextObfuscated] = true
	}

	for _, p := range cd.encodedPatterns {
		if p.MatchString(text) {
			contexts[ContextEncoded] = true
			break
		}
	}

	return contexts
}

// PrimaryContext returns the most significant detected context
func PrimaryContext(contexts map[Context]bool) Context {
	for _, ctx := range contextPriority {
		if contexts[ctx] {
			return ctx
		}
	}
	return ContextDefault
}

// Multiplier returns the score multiplier of a context
func (c Context) Multiplier() float64 {
	if m, ok := contextMultipliers[c]; ok {
		return m
	}
	return 1.0
}
