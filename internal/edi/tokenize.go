package edi

import "strings"

const bom = "\ufeff"

// Tokenize splits a message into segments, one per non-blank line.
// Line endings may be \n, \r\n or \r.
func Tokenize(data []byte) []Segment {
	text := strings.TrimPrefix(string(data), bom)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	out := make([]Segment, 0, len(lines))
	for i, line := range lines {
		if seg, ok := NewSegment(line, i+1); ok {
			out = append(out, seg)
		}
	}
	return out
}

// Fold threads an accumulator through segs in order and returns the final
// state. Parsers express their state machines as a step function over it.
func Fold[S any](segs []Segment, init S, step func(S, Segment) S) S {
	acc := init
	for _, seg := range segs {
		acc = step(acc, seg)
	}
	return acc
}
