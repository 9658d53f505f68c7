package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
)

type stubDevice struct {
	name     string
	startErr error

	startCalls int
	stopCalls  int
	closeCalls int
	cb         audio.DataCallback
}

func (d *stubDevice) Start() error {
	d.startCalls++
	return d.startErr
}
func (d *stubDevice) Stop()                            { d.stopCalls++ }
func (d *stubDevice) Close()                           { d.closeCalls++ }
func (d *stubDevice) SetCallback(cb audio.DataCallback) { d.cb = cb }
func (d *stubDevice) ClearCallback()                   { d.cb = nil }
func (d *stubDevice) Name() string                     { return d.name }

type stubContext struct {
	devices     []audio.DeviceInfo
	devicesErr  error
	mic         *stubDevice
	micErr      error
	loopback    *stubDevice
	loopbackErr error

	micOpens      int
	loopbackOpens int
}

func (c *stubContext) Devices() ([]audio.DeviceInfo, error) {
	return c.devices, c.devicesErr
}

func (c *stubContext) NewCapture(_ *audio.DeviceInfo, _ audio.CaptureConfig) (audio.CaptureDevice, error) {
	c.micOpens++
	if c.micErr != nil {
		return nil, c.micErr
	}
	return c.mic, nil
}

func (c *stubContext) NewLoopback(_ audio.CaptureConfig) (audio.CaptureDevice, error) {
	c.loopbackOpens++
	if c.loopbackErr != nil {
		return nil, c.loopbackErr
	}
	return c.loopback, nil
}

func (c *stubContext) Close() {}

func newStubContext() *stubContext {
	return &stubContext{
		devices:  []audio.DeviceInfo{{ID: "mic0", Name: "Test Mic"}},
		mic:      &stubDevice{name: "Test Mic"},
		loopback: &stubDevice{name: "Monitor of Speakers"},
	}
}

func newTestResolver(ctx *stubContext) *Resolver {
	cfg := audio.DefaultCaptureConfig()
	return NewResolver(
		DevicePermission(ctx),
		NewMicProvider(ctx, nil, cfg),
		NewLoopbackProvider(ctx, cfg),
	)
}

func TestAcquirePrefersMicrophone(t *testing.T) {
	ctx := newStubContext()
	src, err := newTestResolver(ctx).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if src.Kind() != KindMicrophone {
		t.Errorf("kind = %s, want microphone", src.Kind())
	}
	if src.Name() != "Test Mic" {
		t.Errorf("name = %q", src.Name())
	}
	if ctx.loopbackOpens != 0 {
		t.Error("loopback attempted although mic succeeded")
	}
	if ctx.mic.startCalls != 1 {
		t.Errorf("mic started %d times, want 1", ctx.mic.startCalls)
	}
}

func TestAcquireFallsBackToLoopback(t *testing.T) {
	ctx := newStubContext()
	ctx.mic.startErr = fmt.Errorf("device busy")

	src, err := newTestResolver(ctx).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if src.Kind() != KindLoopback {
		t.Errorf("kind = %s, want loopback", src.Kind())
	}
	if ctx.micOpens != 1 {
		t.Errorf("mic attempted %d times, want exactly 1", ctx.micOpens)
	}
	// Failed mic device must not stay open.
	if ctx.mic.closeCalls != 1 {
		t.Errorf("failed mic closed %d times, want 1", ctx.mic.closeCalls)
	}
}

func TestAcquireNoSourceAvailable(t *testing.T) {
	ctx := newStubContext()
	ctx.micErr = fmt.Errorf("no mic")
	ctx.loopbackErr = fmt.Errorf("no monitor")

	_, err := newTestResolver(ctx).Acquire(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var capErr *Error
	if !errors.As(err, &capErr) {
		t.Fatalf("error type = %T", err)
	}
	if capErr.Kind != NoSourceAvailable {
		t.Errorf("kind = %v, want NoSourceAvailable", capErr.Kind)
	}
}

func TestAcquireDeniedPermissionStillAttempts(t *testing.T) {
	ctx := newStubContext()
	denied := func() PermissionState { return PermissionStateDenied }

	cfg := audio.DefaultCaptureConfig()
	r := NewResolver(denied, NewMicProvider(ctx, nil, cfg), NewLoopbackProvider(ctx, cfg))

	src, err := r.Acquire(context.Background())
	if err != nil {
		t.Fatalf("denied permission must not gate acquisition: %v", err)
	}
	if src.Kind() != KindMicrophone {
		t.Errorf("kind = %s, want microphone", src.Kind())
	}
}

func TestAcquireCancelledContext(t *testing.T) {
	ctx := newStubContext()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestResolver(ctx).Acquire(cancelled); err == nil {
		t.Fatal("expected context error")
	}
	if ctx.micOpens != 0 {
		t.Error("provider attempted after cancellation")
	}
}

func TestMicProviderNoDevices(t *testing.T) {
	ctx := newStubContext()
	ctx.devices = nil

	_, err := NewMicProvider(ctx, nil, audio.DefaultCaptureConfig()).Open(context.Background())
	var capErr *Error
	if !errors.As(err, &capErr) {
		t.Fatalf("error type = %T", err)
	}
	if capErr.Kind != NoDevice {
		t.Errorf("kind = %v, want NoDevice", capErr.Kind)
	}
}

func TestSourceReleaseOnce(t *testing.T) {
	dev := &stubDevice{name: "Test Mic"}
	src := NewSource(KindMicrophone, dev.name, dev)

	src.Release()
	src.Release()
	src.Release()

	if dev.stopCalls != 1 {
		t.Errorf("Stop called %d times, want 1", dev.stopCalls)
	}
	if dev.closeCalls != 1 {
		t.Errorf("Close called %d times, want 1", dev.closeCalls)
	}
}

func TestDevicePermissionStates(t *testing.T) {
	ctx := newStubContext()
	if got := DevicePermission(ctx)(); got != PermissionStateGranted {
		t.Errorf("with devices: %s, want granted", got)
	}

	ctx.devices = nil
	if got := DevicePermission(ctx)(); got != PermissionStatePrompt {
		t.Errorf("no devices: %s, want prompt", got)
	}

	ctx.devicesErr = fmt.Errorf("enumeration refused")
	if got := DevicePermission(ctx)(); got != PermissionStateDenied {
		t.Errorf("enumeration error: %s, want denied", got)
	}
}
