package session

import "sync/atomic"

// Stats is a snapshot of the counters of one session.
type Stats struct {
	SamplesSubmitted uint64
	FramesDecoded    uint64
	FramesDelivered  uint64
	FramesDropped    uint64
	TryAgainPolls    uint64
	FormatChanges    uint64
	ReleaseErrors    uint64
	LastPTSMicros    int64
}

// counters is updated by the worker and read from any goroutine.
type counters struct {
	samplesSubmitted atomic.Uint64
	framesDecoded    atomic.Uint64
	framesDelivered  atomic.Uint64
	framesDropped    atomic.Uint64
	tryAgainPolls    atomic.Uint64
	formatChanges    atomic.Uint64
	releaseErrors    atomic.Uint64
	lastPTS          atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		SamplesSubmitted: c.samplesSubmitted.Load(),
		FramesDecoded:    c.framesDecoded.Load(),
		FramesDelivered:  c.framesDelivered.Load(),
		FramesDropped:    c.framesDropped.Load(),
		TryAgainPolls:    c.tryAgainPolls.Load(),
		FormatChanges:    c.formatChanges.Load(),
		ReleaseErrors:    c.releaseErrors.Load(),
		LastPTSMicros:    c.lastPTS.Load(),
	}
}
