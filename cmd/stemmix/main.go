// Command stemmix plays a multi-stem track described by a JSON config.
//
// Usage:
//
//	stemmix -config track.json
//	stemmix -config track.json -mix "0:80:1:0,1:0:0:0&master=90"
//	stemmix -config track.json -mobile -duration 30s
//
// Stems are downloaded in batches, decoded, and played back through the
// default audio device with synchronized transport and per-stem effects.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/stemmix/dsp/dither"
	"github.com/cwbudde/stemmix/engine"
	"github.com/cwbudde/stemmix/loader"
	"github.com/cwbudde/stemmix/playback"
	"github.com/cwbudde/stemmix/sched"
)

func main() {
	var (
		configPath = flag.String("config", "track.json", "track configuration file")
		mix        = flag.String("mix", "", "share string applied after loading (overrides the config's mix)")
		baseURL    = flag.String("base-url", "", "base URL that relative stem files resolve against")
		mobile     = flag.Bool("mobile", false, "use the mobile device profile")
		duration   = flag.Duration("duration", 0, "stop after this long (0 plays to the end)")
	)
	flag.Parse()

	if err := run(*configPath, *mix, *baseURL, *mobile, *duration); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, mix, baseURL string, mobile bool, duration time.Duration) error {
	f, err := os.Open(configPath)
	if err != nil {
		return err
	}
	cfg, err := loader.ParseTrackConfig(f)
	f.Close()
	if err != nil {
		return err
	}

	profile := loader.DesktopProfile()
	if mobile {
		profile = loader.MobileProfile()
	}

	stems, err := loadStems(cfg, profile, baseURL)
	if err != nil {
		return err
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(engine.DefaultSampleRate),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	})
	if err != nil {
		return fmt.Errorf("audio device: %w", err)
	}
	<-ready

	var mu sync.Mutex
	session, err := engine.NewSession(stems, profile,
		engine.WithClockResume(func() { _ = otoCtx.Resume() }),
		engine.WithStateListener(func(st playback.State) {
			log.Printf("playback: %s", st)
		}),
		engine.WithWarnFunc(func(element string, err error) {
			log.Printf("playback: %s: %v", element, err)
		}),
	)
	if err != nil {
		return err
	}

	if cfg.MasterVolumePct != nil {
		session.SetMasterVolume(float64(*cfg.MasterVolumePct) / 100)
	}
	if mix == "" {
		mix = cfg.Mix
	}
	if mix != "" {
		if err := session.ApplyShareString(mix); err != nil {
			log.Printf("mix string ignored: %v", err)
		}
	}

	stream, err := newPCMStream(&mu, session)
	if err != nil {
		return err
	}
	player := otoCtx.NewPlayer(stream)
	player.SetBufferSize(engine.DefaultBlockSize * 4 * 4)
	defer player.Close()

	s := sched.New()
	s.Add("sync", time.Second, func() {
		mu.Lock()
		session.SyncTick()
		mu.Unlock()
	})
	s.Add("meters", 100*time.Millisecond, func() {
		mu.Lock()
		session.MeterTick()
		mu.Unlock()
	})
	s.Add("report", time.Second, func() {
		mu.Lock()
		line := fmt.Sprintf("%s  master %.2f", session.FormattedTime(), session.MasterLevel())
		for i := 0; i < session.NumStems(); i++ {
			line += fmt.Sprintf("  %s %.2f", session.StemName(i), session.Level(i))
		}
		mu.Unlock()
		log.Print(line)
	})
	s.Start()
	defer s.Stop()

	mu.Lock()
	total := session.Duration()
	session.Play()
	mu.Unlock()

	player.Play()

	if duration <= 0 {
		duration = time.Duration(total*float64(time.Second)) + time.Second
	}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-time.After(duration):
	case <-interrupt:
		log.Print("interrupted")
	}

	mu.Lock()
	session.Stop()
	mu.Unlock()
	return nil
}

func loadStems(cfg *loader.TrackConfig, profile loader.Profile, baseURL string) ([]*loader.Stem, error) {
	opts := []loader.Option{
		loader.WithProgressFunc(progressLogger()),
		loader.WithFailureFunc(func(stem string, err error) {
			log.Printf("skipping %s: %v", stem, err)
		}),
	}
	if baseURL != "" {
		opts = append(opts, loader.WithBaseURL(baseURL))
	}

	log.Printf("loading %q (%d stems)", cfg.Title, len(cfg.Stems))
	stems, err := loader.New(profile, opts...).LoadTrack(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("ready: %d of %d stems", len(stems), len(cfg.Stems))
	return stems, nil
}

// progressLogger reports each stem once when its download completes. The
// loader invokes the callback concurrently, per chunk, so anything chattier
// would swamp the log.
func progressLogger() func(loader.Progress) {
	var mu sync.Mutex
	done := make(map[string]bool)
	return func(p loader.Progress) {
		if p.StemSize <= 0 || p.ReceivedBytes < p.StemSize {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if done[p.StemName] {
			return
		}
		done[p.StemName] = true
		log.Printf("  %-12s %6d KiB  (%d/%d KiB total)",
			p.StemName, p.StemSize/1024, p.TotalDownloaded/1024, p.TotalSize/1024)
	}
}

// pcmStream adapts the engine's block renderer to the io.Reader the audio
// backend consumes, quantizing float64 frames to dithered signed 16-bit
// little endian. Rendering shares a mutex with the scheduler tasks.
type pcmStream struct {
	mu      *sync.Mutex
	session *engine.Session
	quantL  *dither.Quantizer
	quantR  *dither.Quantizer
	outL    []float64
	outR    []float64
	buf     []byte
	pending []byte
}

func newPCMStream(mu *sync.Mutex, session *engine.Session) (*pcmStream, error) {
	// One quantizer per channel so each keeps its own error history.
	quantL, err := dither.NewQuantizer(engine.DefaultSampleRate, dither.WithBitDepth(16))
	if err != nil {
		return nil, err
	}
	quantR, err := dither.NewQuantizer(engine.DefaultSampleRate, dither.WithBitDepth(16))
	if err != nil {
		return nil, err
	}
	return &pcmStream{
		mu:      mu,
		session: session,
		quantL:  quantL,
		quantR:  quantR,
		outL:    make([]float64, engine.DefaultBlockSize),
		outR:    make([]float64, engine.DefaultBlockSize),
		buf:     make([]byte, engine.DefaultBlockSize*4),
	}, nil
}

func (p *pcmStream) Read(dst []byte) (int, error) {
	filled := 0
	for filled < len(dst) {
		if len(p.pending) == 0 {
			p.mu.Lock()
			err := p.session.RenderBlock(p.outL, p.outR)
			p.mu.Unlock()
			if err != nil {
				return filled, err
			}
			for i := range p.outL {
				l := int16(p.quantL.ProcessInteger(p.outL[i]))
				r := int16(p.quantR.ProcessInteger(p.outR[i]))
				p.buf[i*4] = byte(l)
				p.buf[i*4+1] = byte(l >> 8)
				p.buf[i*4+2] = byte(r)
				p.buf[i*4+3] = byte(r >> 8)
			}
			p.pending = p.buf
		}
		n := copy(dst[filled:], p.pending)
		p.pending = p.pending[n:]
		filled += n
	}
	return filled, nil
}
