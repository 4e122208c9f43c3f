package transform

import "time"

// Stage describes a high-level transform phase.
type Stage string

const (
	// StageLoad covers loading and parsing the module graph.
	StageLoad Stage = "load"
	// StageMap assigns output paths.
	StageMap Stage = "map"
	// StageRewrite computes and applies text changes per module.
	StageRewrite Stage = "rewrite"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a module, or for the whole run when Module
// is empty.
type Event struct {
	Module  string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from
// several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
