package audio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeTestWAV(t *testing.T, samples int) string {
	t.Helper()
	dataSize := samples * 2
	buf := make([]byte, WAVHeaderSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(WAVHeaderSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(buf[WAVHeaderSize+i*2:], uint16(int16(i%100+1)))
	}

	path := filepath.Join(t.TempDir(), "test.wav")
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFakeContextStripsHeader(t *testing.T) {
	path := writeTestWAV(t, 1000)
	ctx, err := NewFakeContext(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(ctx.pcm) != 2000 {
		t.Errorf("pcm = %d bytes, want 2000", len(ctx.pcm))
	}
}

func TestFakeCaptureFeedsAllAudioThenSilence(t *testing.T) {
	path := writeTestWAV(t, 1000)
	ctx, err := NewFakeContext(path)
	if err != nil {
		t.Fatal(err)
	}

	dev, err := ctx.NewCapture(nil, DefaultCaptureConfig())
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var nonzero, total int
	dev.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		total += len(data)
		for _, b := range data {
			if b != 0 {
				nonzero++
			}
		}
		mu.Unlock()
	})
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	dev.Stop()

	mu.Lock()
	defer mu.Unlock()
	if nonzero == 0 {
		t.Error("no WAV payload delivered")
	}
	if total <= 2000 {
		t.Errorf("expected silence after payload, got %d bytes total", total)
	}
}

func TestFakeCaptureStopIsIdempotent(t *testing.T) {
	path := writeTestWAV(t, 10)
	ctx, err := NewFakeContext(path)
	if err != nil {
		t.Fatal(err)
	}
	dev, _ := ctx.NewCapture(nil, DefaultCaptureConfig())
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Stop()
	dev.Stop() // second stop must not panic or block
}

func TestIsBluetooth(t *testing.T) {
	if !IsBluetooth("Jabra Elite 75t") {
		t.Error("Jabra should be detected")
	}
	if !IsBluetooth("AirPods Pro") {
		t.Error("AirPods should be detected")
	}
	if IsBluetooth("Built-in Microphone") {
		t.Error("built-in mic misdetected as bluetooth")
	}
}
