// Package doctor runs interactive system diagnostics: can we capture
// audio, is a loopback fallback available, and does the summarizer
// backend answer.
package doctor

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"
	"github.com/rayavijit26/AI-MEETING-SUMMARIZER/hotkey"
)

// Run executes the diagnostic checks and returns an exit code
// (0=all pass, 1=any fail). The loopback check is warn-only: a machine
// without a loopback device can still record from a microphone.
func Run(endpoint string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("aims doctor - system diagnostics")
	fmt.Println("================================")

	allPass := true

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("\n[1/4] Microphone capture\n  FAIL: cannot connect to audio: %v\n", err)
		allPass = false
	} else {
		defer ctx.Close()
		if !checkMicrophone(ctx) {
			allPass = false
		}
		checkLoopback(ctx)
	}

	checkHotkey()

	if !checkEndpoint(endpoint) {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkMicrophone(ctx audio.Context) bool {
	fmt.Println()
	fmt.Println("[1/4] Microphone capture")

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	for _, d := range devices {
		tag := ""
		if audio.IsBluetooth(d.Name) {
			tag = " (bluetooth)"
		}
		fmt.Printf("  found: %s%s\n", d.Name, tag)
	}

	captured, err := sampleCapture(ctx, nil, time.Second)
	if err != nil {
		fmt.Printf("  FAIL: capture error: %v\n", err)
		return false
	}
	if captured == 0 {
		fmt.Println("  FAIL: no audio data arrived within 1s")
		return false
	}
	fmt.Printf("  PASS: captured %.1f KB in 1s\n", float64(captured)/1024)
	return true
}

func checkLoopback(ctx audio.Context) {
	fmt.Println()
	fmt.Println("[2/4] System-audio loopback (fallback source)")

	dev, err := ctx.NewLoopback(audio.DefaultCaptureConfig())
	if err != nil {
		fmt.Printf("  WARN: no loopback device: %v\n", err)
		return
	}
	name := dev.Name()
	dev.Close()
	fmt.Printf("  PASS: loopback available (%s)\n", name)
}

// checkHotkey is warn-only: a missing hotkey still leaves doctor usable
// for diagnosing capture and backend problems.
func checkHotkey() {
	fmt.Println()
	fmt.Println("[3/4] Recording hotkey")

	info, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  WARN: %v\n", err)
		return
	}
	fmt.Printf("  PASS: %s\n", info)
}

func checkEndpoint(endpoint string) bool {
	fmt.Println()
	fmt.Println("[4/4] Summarizer backend")
	fmt.Printf("  endpoint: %s\n", endpoint)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(endpoint)
	if err != nil {
		fmt.Printf("  FAIL: not reachable: %v\n", err)
		return false
	}
	resp.Body.Close()

	// Any HTTP answer means the backend is up; the upload route itself
	// only accepts POST.
	fmt.Printf("  PASS: reachable (HTTP %d)\n", resp.StatusCode)
	return true
}

func sampleCapture(ctx audio.Context, device *audio.DeviceInfo, d time.Duration) (int, error) {
	dev, err := ctx.NewCapture(device, audio.DefaultCaptureConfig())
	if err != nil {
		return 0, err
	}
	defer dev.Close()

	var mu sync.Mutex
	captured := 0
	dev.SetCallback(func(data []byte, _ uint32) {
		mu.Lock()
		captured += len(data)
		mu.Unlock()
	})
	if err := dev.Start(); err != nil {
		return 0, err
	}

	time.Sleep(d)
	dev.Stop()
	dev.ClearCallback()

	mu.Lock()
	defer mu.Unlock()
	return captured, nil
}
