package loader

import (
	"encoding/json"
	"fmt"
	"io"
)

// TrackConfig describes one track session: metadata plus an ordered stem
// list, optionally carrying a pre-encoded mix string and a master volume
// percentage. Supplied by the hosting environment at session start.
type TrackConfig struct {
	ID            string       `json:"id"`
	Title         string       `json:"title,omitempty"`
	Tempo         float64      `json:"tempo,omitempty"`
	Key           string       `json:"key,omitempty"`
	DisplayNumber int          `json:"displayNumber,omitempty"`
	Stems         []StemConfig `json:"stems"`

	Mix             string `json:"mix,omitempty"`
	MasterVolumePct *int   `json:"masterVolume,omitempty"`
}

// StemConfig describes one stem resource.
type StemConfig struct {
	File        string `json:"file"`
	MobileFile  string `json:"mobileFile,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`

	// Mono and SampleRateHint describe the encoding; they are hints for the
	// hosting environment, not constraints the loader enforces.
	Mono           bool `json:"mono,omitempty"`
	SampleRateHint int  `json:"sampleRateHint,omitempty"`
}

// fileFor returns the stem file for a device profile: the mobile variant
// when the profile asks for it and the descriptor provides one.
func (sc *StemConfig) fileFor(p Profile) string {
	if p.Mobile && sc.MobileFile != "" {
		return sc.MobileFile
	}
	return sc.File
}

// ParseTrackConfig decodes a JSON track descriptor.
func ParseTrackConfig(r io.Reader) (*TrackConfig, error) {
	var cfg TrackConfig
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("loader: parse track config: %w", err)
	}
	if len(cfg.Stems) == 0 {
		return nil, fmt.Errorf("loader: track %q has no stems", cfg.ID)
	}
	for i, stem := range cfg.Stems {
		if stem.File == "" {
			return nil, fmt.Errorf("loader: stem %d (%q) has no file", i, stem.Name)
		}
	}
	return &cfg, nil
}
