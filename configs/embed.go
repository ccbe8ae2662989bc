// Package configs embeds the built-in suppression rules and label maps.
package configs

import _ "embed"

// DefaultRules is the built-in suppression rule table
//
//go:embed rules/default.yaml
var DefaultRules []byte

// SeverityLabels is the default severity label map (name -> index)
//
//go:embed labels/severity_label_map.json
var SeverityLabels []byte

// VulnerabilityLabels is the default vulnerability label map (name -> index)
//
//go:embed labels/vuln_label_map.json
var VulnerabilityLabels []byte

// Signatures is the weighted signature table of the pattern model
//
//go:embed signatures/default.yaml
var Signatures []byte
