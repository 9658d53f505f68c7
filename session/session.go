package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/capture"
)

// Artifact is the finalized recording: all retained chunks concatenated
// in arrival order. Created once at stop time, consumed by one upload.
type Artifact struct {
	ID     string
	Source capture.Kind
	Data   []byte
}

func (a *Artifact) DurationSeconds() float64 {
	return float64(len(a.Data)/2) / float64(audio.SampleRate)
}

// Recorder accumulates chunks for a single recording session. One
// Recorder is constructed fresh per start, so no state survives into
// the next session.
type Recorder struct {
	id string

	mu     sync.Mutex
	chunks [][]byte
	size   int
	sealed bool
}

func NewRecorder() *Recorder {
	return &Recorder{id: uuid.NewString()}
}

func (r *Recorder) ID() string { return r.id }

// Ingest appends one arriving chunk. Zero-length chunks are discarded,
// never stored; chunks arriving after Finalize are dropped.
func (r *Recorder) Ingest(data []byte) {
	if len(data) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.chunks = append(r.chunks, chunk)
	r.size += len(chunk)
}

// Size reports accumulated bytes so far.
func (r *Recorder) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Finalize releases the source, seals the recorder and assembles the
// artifact. The device is let go before any assembly so hardware is
// never held during network I/O. An empty recording is an error, not a
// zero-length artifact.
func (r *Recorder) Finalize(src *capture.Source) (*Artifact, error) {
	src.Release()

	r.mu.Lock()
	r.sealed = true
	chunks := r.chunks
	size := r.size
	r.chunks = nil
	r.size = 0
	r.mu.Unlock()

	if size == 0 {
		return nil, ErrEmptyRecording
	}

	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c...)
	}
	return &Artifact{ID: r.id, Source: src.Kind(), Data: data}, nil
}
