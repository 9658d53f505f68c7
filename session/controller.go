package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/capture"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/log"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/status"
)

type State int

const (
	StateIdle State = iota
	StateAcquiring
	StateRecording
	StateFinalizing
	StateUploading
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	case StateUploading:
		return "uploading"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SourceResolver yields a live capture source or fails.
type SourceResolver interface {
	Acquire(ctx context.Context) (*capture.Source, error)
}

// Uploader transmits a finalized artifact and returns the summary text.
type Uploader interface {
	Upload(ctx context.Context, artifact *Artifact) (string, error)
}

type Config struct {
	Resolver SourceResolver
	Uploader Uploader
	Sink     status.Sink

	// OnArtifact observes each finalized artifact, e.g. for local
	// archiving. Runs before the upload is issued; must not block.
	OnArtifact func(*Artifact)
	// OnLevel receives the RMS level of each arriving chunk.
	OnLevel func(float64)
}

// Controller runs the one process-wide recording lifecycle:
//
//	Idle -> Acquiring -> Recording -> Finalizing -> Uploading -> Idle | Error
//
// Phases never overlap; the mutex plus the state checks serialize
// re-entrant start/stop triggers.
type Controller struct {
	cfg Config

	mu    sync.Mutex
	state State
	rec   *Recorder
	src   *capture.Source
}

func NewController(cfg Config) *Controller {
	if cfg.Sink == nil {
		cfg.Sink = status.NopSink{}
	}
	return &Controller{cfg: cfg}
}

func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires a source and begins accumulating chunks. While a
// session is active it is a logged no-op that leaves accumulated chunks
// untouched. From StateError it reinitializes cleanly.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateError {
		c.mu.Unlock()
		log.Warnf("start ignored: session is %s", c.state)
		return ErrAlreadyRecording
	}
	// No residue from a failed previous session.
	c.state = StateAcquiring
	c.rec = nil
	c.src = nil
	c.mu.Unlock()

	c.cfg.Sink.SetStatus(status.Update{
		State: status.StateProcessing,
		Main:  "Acquiring audio source...",
	})

	src, err := c.cfg.Resolver.Acquire(ctx)
	if err != nil {
		log.Errorf("source acquisition failed: %v", err)
		c.fail("Could not start recording", "Check microphone access and try again")
		return err
	}

	rec := NewRecorder()
	onLevel := c.cfg.OnLevel
	src.Attach(func(data []byte, _ uint32) {
		rec.Ingest(data)
		if onLevel != nil && len(data) > 1 {
			onLevel(rmsLevel(data))
		}
	})

	c.mu.Lock()
	c.src = src
	c.rec = rec
	c.state = StateRecording
	c.mu.Unlock()

	log.Info("recording_start: id=" + rec.ID() + " source=" + string(src.Kind()))
	c.cfg.Sink.SetStatus(status.Update{
		State:  status.StateRecording,
		Main:   "Recording...",
		Detail: src.Name(),
	})
	return nil
}

// Stop ends accumulation, finalizes the artifact and uploads it. While
// nothing is recording it reports "no active session" and performs no
// transition; that is a status, not an error.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRecording {
		cur := c.state
		c.mu.Unlock()
		log.Info("stop ignored: session is " + cur.String())
		c.cfg.Sink.SetStatus(status.Update{
			State: sinkState(cur),
			Main:  "No active session",
		})
		return nil
	}
	src := c.src
	rec := c.rec
	c.state = StateFinalizing
	c.src = nil
	c.rec = nil
	c.mu.Unlock()

	c.cfg.Sink.SetStatus(status.Update{
		State: status.StateProcessing,
		Main:  "Processing recording...",
	})

	artifact, err := rec.Finalize(src)
	if err != nil {
		log.Warnf("finalize failed: id=%s: %v", rec.ID(), err)
		c.fail("Nothing was recorded", "No audio arrived before stop")
		return err
	}
	log.Info(fmt.Sprintf("recording_stop: id=%s bytes=%d", artifact.ID, len(artifact.Data)))

	if c.cfg.OnArtifact != nil {
		c.cfg.OnArtifact(artifact)
	}

	c.mu.Lock()
	c.state = StateUploading
	c.mu.Unlock()

	c.cfg.Sink.SetStatus(status.Update{
		State:  status.StateProcessing,
		Main:   "Uploading recording...",
		Detail: fmt.Sprintf("%.1f KB", float64(len(artifact.Data))/1024),
	})

	// No cancellation and no client-side timeout: once issued, the
	// upload runs to completion or failure. Never retried; the user
	// re-records instead.
	summary, err := c.cfg.Uploader.Upload(ctx, artifact)
	if err != nil {
		log.Errorf("upload failed: id=%s: %v", artifact.ID, err)
		c.fail("Upload failed", "Please try recording again")
		return err
	}

	log.SummaryText(summary)
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()

	c.cfg.Sink.SetStatus(status.Update{
		State:  status.StateIdle,
		Main:   "Summary ready",
		Detail: fmt.Sprintf("%.1fs of audio processed", artifact.DurationSeconds()),
	})
	c.cfg.Sink.SetSummary(status.Summary{Visible: true, Text: summary})
	return nil
}

// fail surfaces an error status and leaves the machine in StateError.
// StateError behaves like Idle for both triggers, so the next start
// always begins from a clean slate. The summary panel is untouched.
func (c *Controller) fail(main, detail string) {
	c.mu.Lock()
	c.state = StateError
	c.rec = nil
	c.src = nil
	c.mu.Unlock()

	c.cfg.Sink.SetStatus(status.Update{
		State:  status.StateIdle,
		Main:   main,
		Detail: detail,
	})
}

func sinkState(s State) status.State {
	switch s {
	case StateRecording:
		return status.StateRecording
	case StateAcquiring, StateFinalizing, StateUploading:
		return status.StateProcessing
	default:
		return status.StateIdle
	}
}

func rmsLevel(data []byte) float64 {
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(data)/2))
}
