package loader

import "github.com/cwbudde/stemmix/fx"

// Profile captures the device-dependent tuning the session runs under. Both
// profiles are first-class supported modes, not a primary path plus a
// degraded one.
type Profile struct {
	// Mobile selects the lower-bitrate stem variants where a descriptor
	// provides them.
	Mobile bool

	// BatchSize bounds concurrent stem downloads.
	BatchSize int

	// WarmUp enables the post-decode midpoint touch. Mobile stem encodings
	// do not exhibit the decode stall it works around, so they skip it.
	WarmUp bool

	// ReverbSeconds is the shared impulse-response length.
	ReverbSeconds float64

	// ActiveSyncCorrection enables rate nudging and hard resyncs. Platforms
	// where rate changes audibly stutter run optimistic-only.
	ActiveSyncCorrection bool
}

// DesktopProfile returns the tuning for powerful, stable platforms.
func DesktopProfile() Profile {
	return Profile{
		BatchSize:            4,
		WarmUp:               true,
		ReverbSeconds:        fx.DesktopReverbSeconds,
		ActiveSyncCorrection: true,
	}
}

// MobileProfile returns the tuning for resource-constrained platforms.
func MobileProfile() Profile {
	return Profile{
		Mobile:        true,
		BatchSize:     2,
		ReverbSeconds: fx.MobileReverbSeconds,
	}
}
