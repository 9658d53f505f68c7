package capture

import (
	"context"
	"fmt"
	"sync"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/log"
)

type Kind string

const (
	KindMicrophone Kind = "microphone"
	KindLoopback   Kind = "loopback"
)

// Source is a live, exclusively-owned audio stream. It is handed to
// exactly one recording session and must be released exactly once.
type Source struct {
	kind Kind
	name string
	dev  audio.CaptureDevice

	releaseOnce sync.Once
}

func NewSource(kind Kind, name string, dev audio.CaptureDevice) *Source {
	return &Source{kind: kind, name: name, dev: dev}
}

func (s *Source) Kind() Kind   { return s.kind }
func (s *Source) Name() string { return s.name }

// Attach subscribes the session to the data-available signal. Data
// arriving before Attach is dropped.
func (s *Source) Attach(cb audio.DataCallback) {
	s.dev.SetCallback(cb)
}

// Release stops the device and frees the hardware hold. Safe to call on
// every exit path; only the first call has effect.
func (s *Source) Release() {
	s.releaseOnce.Do(func() {
		s.dev.Stop()
		s.dev.ClearCallback()
		s.dev.Close()
	})
}

// Provider opens one kind of capture source. Open returns a started,
// data-producing source or an error classified by ErrorKind.
type Provider interface {
	Kind() Kind
	Open(ctx context.Context) (*Source, error)
}

// Resolver walks an ordered provider chain until one yields a live
// source. Attempts are strictly sequential so the OS never shows two
// capture prompts at once.
type Resolver struct {
	providers []Provider
	perm      PermissionQuery
}

func NewResolver(perm PermissionQuery, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, perm: perm}
}

// Acquire tries each provider in order and returns the first live source.
// A denied permission state is logged but does not skip any attempt.
func (r *Resolver) Acquire(ctx context.Context) (*Source, error) {
	if r.perm != nil {
		if state := r.perm(); state == PermissionStateDenied {
			log.Warnf("microphone permission reported denied; attempting capture anyway")
		}
	}

	var lastErr error
	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := p.Open(ctx)
		if err == nil {
			log.Info("source_acquired: " + string(p.Kind()) + " (" + src.Name() + ")")
			return src, nil
		}
		log.Warnf("%s capture failed: %v", p.Kind(), err)
		lastErr = err
	}

	return nil, &Error{Kind: NoSourceAvailable, Cause: lastErr}
}

// MicProvider opens the configured (or default) microphone.
type MicProvider struct {
	ctx    audio.Context
	device *audio.DeviceInfo
	config audio.CaptureConfig
}

func NewMicProvider(ctx audio.Context, device *audio.DeviceInfo, config audio.CaptureConfig) *MicProvider {
	return &MicProvider{ctx: ctx, device: device, config: config}
}

func (p *MicProvider) Kind() Kind { return KindMicrophone }

func (p *MicProvider) Open(_ context.Context) (*Source, error) {
	devices, err := p.ctx.Devices()
	if err == nil && len(devices) == 0 && p.device == nil {
		return nil, &Error{Kind: NoDevice, Cause: fmt.Errorf("no capture devices found")}
	}

	dev, err := p.ctx.NewCapture(p.device, p.config)
	if err != nil {
		return nil, &Error{Kind: NoDevice, Cause: err}
	}
	if err := dev.Start(); err != nil {
		dev.Close()
		return nil, &Error{Kind: PermissionDenied, Cause: err}
	}
	return NewSource(KindMicrophone, dev.Name(), dev), nil
}

// LoopbackProvider opens a capture of the system audio output, the
// fallback when no microphone is usable.
type LoopbackProvider struct {
	ctx    audio.Context
	config audio.CaptureConfig
}

func NewLoopbackProvider(ctx audio.Context, config audio.CaptureConfig) *LoopbackProvider {
	return &LoopbackProvider{ctx: ctx, config: config}
}

func (p *LoopbackProvider) Kind() Kind { return KindLoopback }

func (p *LoopbackProvider) Open(_ context.Context) (*Source, error) {
	dev, err := p.ctx.NewLoopback(p.config)
	if err != nil {
		return nil, &Error{Kind: NoDevice, Cause: err}
	}
	if err := dev.Start(); err != nil {
		dev.Close()
		return nil, &Error{Kind: NoDevice, Cause: err}
	}
	return NewSource(KindLoopback, dev.Name(), dev), nil
}
