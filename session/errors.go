package session

import "errors"

var (
	// ErrAlreadyRecording is returned by Start while a session is active.
	ErrAlreadyRecording = errors.New("session: already recording")
	// ErrEmptyRecording means no nonzero chunk arrived before stop.
	ErrEmptyRecording = errors.New("session: recording is empty")
)
