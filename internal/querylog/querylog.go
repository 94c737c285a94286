// Package querylog records one line per answered question for offline
// inspection of what the pipeline decided to run.
package querylog

import (
	"github.com/tradechat-bot/server/internal/intent"
	logx "github.com/tradechat-bot/server/pkg/logger"
)

// Entry is one answered (or failed) turn.
type Entry struct {
	SessionID string
	Question  string
	Intent    *intent.Intent
	View      string
	Calc      intent.Calc
	RowCount  int
	Status    string
}

const (
	StatusOK        = "ok"
	StatusClarify   = "clarify"
	StatusSmalltalk = "smalltalk"
	StatusError     = "error"
)

// Recorder drains entries on a background goroutine so a slow sink never
// delays a chat turn.
type Recorder struct {
	ch   chan Entry
	done chan struct{}
}

func NewRecorder(buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 128
	}
	r := &Recorder{
		ch:   make(chan Entry, buffer),
		done: make(chan struct{}),
	}
	go r.drain()
	return r
}

// Record enqueues an entry without blocking. Entries are dropped when the
// buffer is full.
func (r *Recorder) Record(e Entry) {
	select {
	case r.ch <- e:
	default:
		logx.Warn().Str("sessionID", e.SessionID).Msg("query log buffer full, dropping entry")
	}
}

// Close stops accepting entries and waits for the buffer to drain.
func (r *Recorder) Close() {
	close(r.ch)
	<-r.done
}

func (r *Recorder) drain() {
	defer close(r.done)
	for e := range r.ch {
		ev := logx.Info().
			Str("sessionID", e.SessionID).
			Str("question", e.Question).
			Str("status", e.Status).
			Str("view", e.View).
			Str("calc", string(e.Calc)).
			Int("rowCount", e.RowCount)
		if e.Intent != nil {
			ev = ev.Interface("intent", e.Intent)
		}
		ev.Msg("query log")
	}
}
