package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/archive"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/capture"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/clipboard"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/doctor"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/hotkey"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/log"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/session"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/shutdown"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/status"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/upload"
)

var version = "dev"

const defaultEndpoint = "http://127.0.0.1:5000"

var summaryCount atomic.Int64

var (
	lastSummaryMu sync.Mutex
	lastSummary   string
)

func lastSummaryText() string {
	lastSummaryMu.Lock()
	defer lastSummaryMu.Unlock()
	return lastSummary
}

// appSink feeds the TUI and keeps the latest summary text around for the
// clipboard copy.
type appSink struct {
	tuiSink
}

func (s appSink) SetSummary(sum status.Summary) {
	if sum.Visible && sum.Text != "" {
		lastSummaryMu.Lock()
		lastSummary = sum.Text
		lastSummaryMu.Unlock()
	}
	s.tuiSink.SetSummary(sum)
}

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if n := summaryCount.Load(); n > 0 {
			log.SessionEnd(int(n))
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

// resolveEndpoint picks the backend base URL: flag, then AIMS_ENDPOINT,
// then the local development default.
func resolveEndpoint(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if env := os.Getenv("AIMS_ENDPOINT"); env != "" {
		return env
	}
	return defaultEndpoint
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

// runAsk handles the "ask" subcommand: one follow-up question about the
// most recently summarized meeting, answered by the backend.
func runAsk(args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	endpointFlag := fs.String("endpoint", "", "Summarizer backend base URL")
	fs.Parse(args)

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "Usage: aims ask [-endpoint URL] <question>")
		os.Exit(1)
	}

	client := upload.NewClient(resolveEndpoint(*endpointFlag))
	answer, err := client.Ask(context.Background(), question)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(answer)
}

func run() {
	// .env is optional; absence is not an error.
	godotenv.Load()

	if len(os.Args) > 1 && os.Args[1] == "ask" {
		runAsk(os.Args[2:])
		return
	}

	endpointFlag := flag.String("endpoint", "", "Summarizer backend base URL (default: AIMS_ENDPOINT or "+defaultEndpoint+")")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	copyFlag := flag.Bool("copy", true, "Copy each summary to the clipboard")
	archiveFlag := flag.String("archive", "", "Keep a local FLAC copy of each recording in this directory")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	flag.Parse()

	endpoint := resolveEndpoint(*endpointFlag)

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("aims %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(endpoint))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	log.SessionStart(endpoint)

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: aims -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0], endpoint, *archiveFlag)
		return
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			log.Warnf("device not found, using default: %s", *deviceFlag)
			fmt.Printf("Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	captureConfig := audio.DefaultCaptureConfig()
	resolver := capture.NewResolver(
		capture.DevicePermission(ctx),
		capture.NewMicProvider(ctx, selectedDevice, captureConfig),
		capture.NewLoopbackProvider(ctx, captureConfig),
	)

	client := upload.NewClient(endpoint)
	client.WarmUp()

	var archiver *archive.Writer
	if *archiveFlag != "" {
		archiver, err = archive.New(*archiveFlag)
		if err != nil {
			log.Errorf("archive init error: %v", err)
			fmt.Printf("Warning: archive disabled: %v\n", err)
		}
	}

	copySummary := *copyFlag

	controller := session.NewController(session.Config{
		Resolver: resolver,
		Uploader: client,
		Sink:     appSink{},
		OnArtifact: func(a *session.Artifact) {
			if archiver == nil {
				return
			}
			data := a.Data
			id := a.ID
			go func() {
				path, err := archiver.Save(id, data)
				if err != nil {
					log.Warnf("archive write failed: %v", err)
					return
				}
				log.Info("archive_written: " + path)
			}()
		},
		OnLevel: func(level float64) {
			tuiSend(AudioLevelMsg{Level: level})
		},
	})

	// Start TUI
	if !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram()
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()

		<-tuiReady
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})
	tuiSend(EndpointLineMsg{Text: "endpoint: " + endpoint})

	// Recording ticker: duration display while a session is live
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		var start time.Time
		recording := false
		for range ticker.C {
			now := controller.CurrentState() == session.StateRecording
			if now && !recording {
				start = time.Now()
			}
			recording = now
			if recording {
				tuiSend(RecordingTickMsg{Duration: time.Since(start).Seconds()})
			}
		}
	}()

	// Event loop: one hotkey toggles the recording lifecycle. The
	// controller serializes everything, so a trigger arriving mid-phase
	// is just a logged no-op.
	for range hk.Keydown() {
		switch controller.CurrentState() {
		case session.StateRecording:
			log.Info("hotkey_stop")
			go func() {
				if err := controller.Stop(context.Background()); err == nil {
					onSummaryDelivered(copySummary)
				}
			}()
		case session.StateIdle, session.StateError:
			log.Info("hotkey_start")
			go controller.Start(context.Background())
		default:
			log.Info("hotkey ignored: session is " + controller.CurrentState().String())
		}
	}
}

// onSummaryDelivered runs the post-upload conveniences that are outside
// the session lifecycle proper.
func onSummaryDelivered(copySummary bool) {
	summaryCount.Add(1)
	if !copySummary {
		return
	}
	text := lastSummaryText()
	if text == "" {
		return
	}
	if err := clipboard.Copy(text); err != nil {
		log.Warnf("clipboard copy failed: %v", err)
	}
}
