package capture

import "github.com/rayavijit26/AI-MEETING-SUMMARIZER/audio"

type PermissionState string

const (
	PermissionStateGranted PermissionState = "granted"
	PermissionStateDenied  PermissionState = "denied"
	PermissionStatePrompt  PermissionState = "prompt"
)

// PermissionQuery reports the platform's microphone permission state.
// It is informational only and never gates an acquisition attempt.
type PermissionQuery func() PermissionState

// DevicePermission derives a permission state from device enumeration.
// Platforms without a real permission API expose denial indirectly: the
// enumeration fails or comes back empty.
func DevicePermission(ctx audio.Context) PermissionQuery {
	return func() PermissionState {
		devices, err := ctx.Devices()
		if err != nil {
			return PermissionStateDenied
		}
		if len(devices) == 0 {
			return PermissionStatePrompt
		}
		return PermissionStateGranted
	}
}
