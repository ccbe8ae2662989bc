package model

import (
	"fmt"

	"github.com/mhdfahrurozi/codebertTest/pkg/models"
)

// Special token ids. Byte values are shifted past them.
const (
	PadID      int64 = 0
	ClsID      int64 = 1
	SepID      int64 = 2
	byteOffset int64 = 3
)

// DefaultMaxLength is the sequence length used when none is configured
const DefaultMaxLength = 256

// Encoder produces fixed-size byte-level encodings framed by CLS and SEP
type Encoder struct {
	maxLength int
}

// NewEncoder creates an encoder padding and truncating to maxLength ids
func NewEncoder(maxLength int) *Encoder {
	if maxLength < 2 {
		maxLength = DefaultMaxLength
	}
	return &Encoder{maxLength: maxLength}
}

// MaxLength returns the sequence length
func (e *Encoder) MaxLength() int {
	return e.maxLength
}

// Encode converts text to ids. Input longer than the sequence is truncated.
func (e *Encoder) Encode(text string) (*models.Encoding, error) {
	data := []byte(text)
	if limit := e.maxLength - 2; len(data) > limit {
		data = data[:limit]
	}

	ids := make([]int64, e.maxLength)
	mask := make([]int64, e.maxLength)

	ids[0] = ClsID
	mask[0] = 1
	for i, b := range data {
		ids[i+1] = int64(b) + byteOffset
		mask[i+1] = 1
	}
	ids[len(data)+1] = SepID
	mask[len(data)+1] = 1

	return &models.Encoding{
		InputIDs:      ids,
		AttentionMask: mask,
		Text:          string(data),
	}, nil
}

// Decode recovers the text carried by an encoding
func (e *Encoder) Decode(enc *models.Encoding) (string, error) {
	if enc == nil {
		return "", fmt.Errorf("nil encoding")
	}
	if len(enc.InputIDs) != len(enc.AttentionMask) {
		return "", fmt.Errorf("ids and mask length mismatch: %d != %d", len(enc.InputIDs), len(enc.AttentionMask))
	}

	out := make([]byte, 0, len(enc.InputIDs))
	for i, id := range enc.InputIDs {
		if enc.AttentionMask[i] == 0 {
			break
		}
		switch {
		case id == ClsID:
			continue
		case id == SepID:
			return string(out), nil
		case id >= byteOffset && id < byteOffset+256:
			out = append(out, byte(id-byteOffset))
		default:
			return "", fmt.Errorf("invalid token id %d at position %d", id, i)
		}
	}
	return string(out), nil
}
