package testutil

import "github.com/roach88/replychain/internal/ir"

// Posts returns one {text: s} payload per argument.
func Posts(texts ...string) []ir.Object {
	payloads := make([]ir.Object, len(texts))
	for i, s := range texts {
		payloads[i] = ir.Object{ir.F("text", ir.String(s))}
	}
	return payloads
}
