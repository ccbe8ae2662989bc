// Package model defines the scoring capability used by the classifier and
// the helpers shared by its backends.
package model

import (
	"context"
	"strings"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// Model turns text into an encoding and scores it with two heads
type Model interface {
	Encode(text string) (*models.Encoding, error)
	Score(ctx context.Context, enc *models.Encoding) (*models.Prediction, error)
}

// Distribution returns a probability vector covering every index of labels
// plus one trailing slot. The named label receives p and the remaining mass
// is spread over the other defined indices. A name missing from labels is
// placed in the trailing slot, which resolves to Unknown.
func Distribution(labels *models.LabelMap, name string, p float64) []float64 {
	size := labels.Size() + 1
	dist := make([]float64, size)

	target, ok := LookupIndex(labels, name)
	if !ok {
		target = size - 1
	}

	others := 0
	for _, idx := range labels.Indices() {
		if idx != target {
			others++
		}
	}
	if others == 0 {
		dist[target] = 1
		return dist
	}

	share := (1 - p) / float64(others)
	for _, idx := range labels.Indices() {
		if idx != target {
			dist[idx] = share
		}
	}
	dist[target] = p

	return dist
}

// LookupIndex finds a label by name, ignoring case and surrounding whitespace
func LookupIndex(labels *models.LabelMap, name string) (int, bool) {
	name = strings.TrimSpace(name)
	if idx, ok := labels.Index(name); ok {
		return idx, true
	}
	for _, idx := range labels.Indices() {
		if strings.EqualFold(labels.Name(idx), name) {
			return idx, true
		}
	}
	return 0, false
}
