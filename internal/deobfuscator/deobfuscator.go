// Package deobfuscator unwraps encoded payloads inside a single candidate
// so that signatures can see the code they hide.
package deobfuscator

// Deobfuscator is the interface for one unwrapping technique
type Deobfuscator interface {
	Name() string
	CanDeobfuscate(content string) bool
	Deobfuscate(content string) (string, error)
}

// Manager applies registered deobfuscators until the text stops changing
type Manager struct {
	deobfuscators []Deobfuscator
	maxDepth      int
}

// NewManager creates a new deobfuscator manager
func NewManager(maxDepth int) *Manager {
	return &Manager{
		deobfuscators: make([]Deobfuscator, 0),
		maxDepth:      maxDepth,
	}
}

// NewDefaultManager returns a manager with every built-in technique registered
func NewDefaultManager(maxDepth int) *Manager {
	m := NewManager(maxDepth)
	m.Register(NewEvalDeobfuscator())
	m.Register(NewBase64Deobfuscator())
	m.Register(NewCharCodeDeobfuscator())
	m.Register(NewPercentDeobfuscator())
	return m
}

// Register registers a deobfuscator
func (m *Manager) Register(d Deobfuscator) {
	m.deobfuscators = append(m.deobfuscators, d)
}

// Deobfuscate attempts to deobfuscate content recursively.
// It returns the final text and the names of the techniques applied in order.
func (m *Manager) Deobfuscate(content string) (string, []string) {
	result := content
	var applied []string

	for depth := 0; depth < m.maxDepth; depth++ {
		deobfuscated := false

		for _, d := range m.deobfuscators {
			if !d.CanDeobfuscate(result) {
				continue
			}
			newResult, err := d.Deobfuscate(result)
			if err == nil && newResult != result {
				result = newResult
				applied = append(applied, d.Name())
				deobfuscated = true
				break // Try again from the beginning
			}
		}

		if !deobfuscated {
			break
		}
	}

	return result, applied
}
