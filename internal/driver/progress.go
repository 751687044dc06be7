package driver

import "time"

// Stage describes a generator phase for progress reporting.
type Stage string

const (
	StageLoad    Stage = "load"
	StageExtract Stage = "extract"
	StageSynth   Stage = "synth"
	StageRender  Stage = "render"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the package is waiting to start.
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	// StatusError means the run failed or reported error diagnostics.
	StatusError Status = "error"
)

// Event reports progress for one package directory.
type Event struct {
	Dir     string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be goroutine-safe.
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

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
