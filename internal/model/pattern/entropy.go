package pattern

import (
	"math"
	"regexp"
)

// Entropy above which a literal looks random rather than human-chosen
const EntropyRandomLiteral = 3.5

var quotedLiteral = regexp.MustCompile(`["']([^"'\s]{8,})["']`)

// CalculateEntropy calculates Shannon entropy of a string in bits per byte
func CalculateEntropy(data string) float64 {
	if len(data) == 0 {
		return 0
	}

	freq := make(map[byte]int)
	for i := 0; i < len(data); i++ {
		freq[data[i]]++
	}

	length := float64(len(data))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// MaxLiteralEntropy returns the highest entropy among quoted literals of 8+ chars
func MaxLiteralEntropy(text string) float64 {
	var max float64
	for _, m := range quotedLiteral.FindAllStringSubmatch(text, -1) {
		if e := CalculateEntropy(m[1]); e > max {
			max = e
		}
	}
	return max
}
