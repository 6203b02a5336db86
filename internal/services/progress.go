package services

import (
	"log/slog"
	"sync"

	"github.com/moskvinegor321/Project-analyzer/internal/models"
)

// Event names on the progress stream.
const (
	EventStatus = "status"
	EventToken  = "token"
	EventResult = "result"
)

// EventSink delivers one named event to the caller. Send fails once the transport is closed.
type EventSink interface {
	Send(event string, data any) error
}

// progress enforces the stream contract: progress never goes down, nothing follows
// the terminal status, and a closed transport silences the rest of the run.
type progress struct {
	mu       sync.Mutex
	sink     EventSink
	last     int
	finished bool
	closed   bool
	log      *slog.Logger
}

func newProgress(sink EventSink, log *slog.Logger) *progress {
	return &progress{sink: sink, log: log}
}

func (p *progress) send(event string, data any) {
	if p.closed || p.finished {
		return
	}
	if err := p.sink.Send(event, data); err != nil {
		p.closed = true
		p.log.Info("event stream closed by client", "err", err)
	}
}

func (p *progress) status(stage models.Stage, pct int, msg string) {
	p.emitStatus(models.ProcessingStatus{Stage: stage, Progress: pct, Message: msg})
}

func (p *progress) emitStatus(st models.ProcessingStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st.Progress < p.last {
		st.Progress = p.last
	}
	p.last = st.Progress
	p.send(EventStatus, st)
	if st.Stage.Terminal() {
		p.finished = true
	}
}

func (p *progress) token(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send(EventToken, text)
}

func (p *progress) result(ev models.AnalyzeResultEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.send(EventResult, ev)
}

func (p *progress) fail(code models.ErrorCode, msg, details string) {
	p.emitStatus(models.ProcessingStatus{
		Stage:    models.StageError,
		Progress: 100,
		Message:  msg,
		Error:    &models.StatusError{Code: code, Details: details},
	})
}
