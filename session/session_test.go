package session

import (
	"errors"
	"testing"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/capture"
)

type countingDevice struct {
	stopCalls  int
	closeCalls int
}

func (d *countingDevice) Start() error                   { return nil }
func (d *countingDevice) Stop()                          { d.stopCalls++ }
func (d *countingDevice) Close()                         { d.closeCalls++ }
func (d *countingDevice) SetCallback(audio.DataCallback) {}
func (d *countingDevice) ClearCallback()                 {}
func (d *countingDevice) Name() string                   { return "counting" }

func newTestSource(dev *countingDevice) *capture.Source {
	return capture.NewSource(capture.KindMicrophone, "counting", dev)
}

func TestFinalizeConcatenatesInOrder(t *testing.T) {
	rec := NewRecorder()
	rec.Ingest(make([]byte, 10))
	rec.Ingest(nil) // dropped, not stored
	rec.Ingest(make([]byte, 20))

	artifact, err := rec.Finalize(newTestSource(&countingDevice{}))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(artifact.Data) != 30 {
		t.Errorf("artifact size = %d, want 30", len(artifact.Data))
	}
	if artifact.ID != rec.ID() {
		t.Errorf("artifact ID = %q, want %q", artifact.ID, rec.ID())
	}
	if artifact.Source != capture.KindMicrophone {
		t.Errorf("artifact source = %s", artifact.Source)
	}
}

func TestIngestCopiesChunk(t *testing.T) {
	rec := NewRecorder()
	chunk := []byte{1, 2, 3, 4}
	rec.Ingest(chunk)
	chunk[0] = 99 // caller reuses its buffer

	artifact, err := rec.Finalize(newTestSource(&countingDevice{}))
	if err != nil {
		t.Fatal(err)
	}
	if artifact.Data[0] != 1 {
		t.Error("recorder stored a reference instead of a copy")
	}
}

func TestEmptyRecordingIsError(t *testing.T) {
	rec := NewRecorder()
	rec.Ingest(nil)
	rec.Ingest([]byte{})

	_, err := rec.Finalize(newTestSource(&countingDevice{}))
	if !errors.Is(err, ErrEmptyRecording) {
		t.Errorf("err = %v, want ErrEmptyRecording", err)
	}
}

func TestFinalizeReleasesSourceFirst(t *testing.T) {
	dev := &countingDevice{}
	src := newTestSource(dev)

	rec := NewRecorder()
	rec.Ingest(make([]byte, 8))
	if _, err := rec.Finalize(src); err != nil {
		t.Fatal(err)
	}

	if dev.stopCalls != 1 || dev.closeCalls != 1 {
		t.Errorf("device not released: stops=%d closes=%d", dev.stopCalls, dev.closeCalls)
	}

	// A second release attempt must be a no-op.
	src.Release()
	if dev.stopCalls != 1 || dev.closeCalls != 1 {
		t.Error("release ran twice")
	}
}

func TestIngestAfterFinalizeDropped(t *testing.T) {
	rec := NewRecorder()
	rec.Ingest(make([]byte, 8))
	if _, err := rec.Finalize(newTestSource(&countingDevice{})); err != nil {
		t.Fatal(err)
	}

	rec.Ingest(make([]byte, 8)) // late callback after seal
	if rec.Size() != 0 {
		t.Errorf("late chunk retained: size=%d", rec.Size())
	}
}

func TestDurationSeconds(t *testing.T) {
	a := &Artifact{Data: make([]byte, audio.SampleRate*2)} // 1s of PCM16 mono
	if got := a.DurationSeconds(); got != 1.0 {
		t.Errorf("duration = %f, want 1.0", got)
	}
}
