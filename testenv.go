package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/archive"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/capture"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/log"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/session"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/status"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/upload"
)

// printSink writes status transitions to stdout so a driving test can
// assert on them line by line.
type printSink struct{}

func (printSink) SetStatus(u status.Update) {
	if u.Detail != "" {
		fmt.Printf("STATUS %s %s (%s)\n", u.State, u.Main, u.Detail)
		return
	}
	fmt.Printf("STATUS %s %s\n", u.State, u.Main)
}

func (printSink) SetSummary(s status.Summary) {
	if s.Visible {
		fmt.Printf("SUMMARY %s\n", s.Text)
	}
}

// runTestMode drives the full record/upload lifecycle headlessly: audio
// comes from a WAV file, triggers come from stdin commands (START, STOP,
// SLEEP <ms>, QUIT).
func runTestMode(wavPath, endpoint, archiveDir string) {
	fakeCtx, err := audio.NewFakeContext(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	captureConfig := audio.DefaultCaptureConfig()
	resolver := capture.NewResolver(
		capture.DevicePermission(fakeCtx),
		capture.NewMicProvider(fakeCtx, nil, captureConfig),
		capture.NewLoopbackProvider(fakeCtx, captureConfig),
	)

	var archiver *archive.Writer
	if archiveDir != "" {
		archiver, err = archive.New(archiveDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating archive dir: %v\n", err)
			os.Exit(1)
		}
	}

	controller := session.NewController(session.Config{
		Resolver: resolver,
		Uploader: upload.NewClient(endpoint),
		Sink:     printSink{},
		OnArtifact: func(a *session.Artifact) {
			if archiver == nil {
				return
			}
			if path, err := archiver.Save(a.ID, a.Data); err == nil {
				fmt.Printf("ARCHIVE %s\n", path)
			}
		},
	})

	completed := 0
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "START":
			if err := controller.Start(context.Background()); err != nil {
				fmt.Printf("ERROR start: %v\n", err)
			}
		case "STOP":
			wasRecording := controller.CurrentState() == session.StateRecording
			if err := controller.Stop(context.Background()); err != nil {
				fmt.Printf("ERROR stop: %v\n", err)
			} else if wasRecording {
				completed++
			}
		case "QUIT":
			log.SessionEnd(completed)
			log.Close()
			os.Exit(0)
		default:
			if strings.HasPrefix(cmd, "SLEEP ") {
				if ms, err := strconv.Atoi(cmd[6:]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		}
	}
	log.SessionEnd(completed)
	log.Close()
}
