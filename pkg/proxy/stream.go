package proxy

import (
	"context"
	"iter"
	"strings"
)

// SSEDataPrefix marks the payload lines of a server-sent event stream.
const SSEDataPrefix = "data: "

// FrameStream re-frames a llama.cpp event stream for OpenAI clients. Each
// input line that starts with "data: " is yielded followed by a blank line
// ("\n\n"); every other line is dropped.
//
// The result is lazy and single-pass: it pulls from lines only as the caller
// consumes it. The first error from lines is yielded and ends the sequence,
// as does cancellation of ctx.
func FrameStream(ctx context.Context, lines iter.Seq2[string, error]) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for line, err := range lines {
			if err != nil {
				yield("", err)
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield("", ctxErr)
				return
			}
			if !strings.HasPrefix(line, SSEDataPrefix) {
				continue
			}
			if !yield(line+"\n\n", nil) {
				return
			}
		}
	}
}
