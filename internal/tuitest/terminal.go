package tuitest

import (
	"bytes"
	"io"
)

// queryReplies answers the terminal queries bubbletea and termenv send on
// startup so the program does not stall waiting for a real terminal.
var queryReplies = []struct {
	query, reply string
}{
	{"\x1b[6n", "\x1b[1;1R"},
	{"\x1b]10;?\x07", "\x1b]10;rgb:cccc/cccc/cccc\x07"},
	{"\x1b]10;?\x1b\\", "\x1b]10;rgb:cccc/cccc/cccc\x1b\\"},
	{"\x1b]11;?\x07", "\x1b]11;rgb:0000/0000/0000\x07"},
	{"\x1b]11;?\x1b\\", "\x1b]11;rgb:0000/0000/0000\x1b\\"},
}

const (
	pendingLimit = 256
	pendingKeep  = 64
)

type queryResponder struct {
	w       io.Writer
	pending []byte
}

func newQueryResponder(w io.Writer) *queryResponder {
	return &queryResponder{w: w, pending: make([]byte, 0, pendingLimit)}
}

// Feed scans output for queries. A short tail is kept so a query split
// across reads is still seen.
func (q *queryResponder) Feed(chunk []byte) {
	q.pending = append(q.pending, chunk...)
	for q.answerOne() {
	}
	if len(q.pending) > pendingLimit {
		q.pending = q.pending[len(q.pending)-pendingKeep:]
	}
}

func (q *queryResponder) answerOne() bool {
	for _, qr := range queryReplies {
		idx := bytes.Index(q.pending, []byte(qr.query))
		if idx < 0 {
			continue
		}
		q.pending = q.pending[idx+len(qr.query):]
		_, _ = q.w.Write([]byte(qr.reply))
		return true
	}
	return false
}
