// Command ownaudio-demo is a minimal composition root wiring the engine,
// mixer, and source packages into a runnable program: it opens an audio
// output device, optionally plays a file, and otherwise mixes a silence
// placeholder so the pipeline is exercised end-to-end even with no
// arguments.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/ModernMube/ownaudio/clock"
	"github.com/ModernMube/ownaudio/config"
	"github.com/ModernMube/ownaudio/engine"
	"github.com/ModernMube/ownaudio/events"
	"github.com/ModernMube/ownaudio/mixer"
	"github.com/ModernMube/ownaudio/source"
)

func main() {
	var (
		filePath   = pflag.StringP("file", "f", "", "audio file to play (wav/mp3/flac); silence if empty")
		sampleRate = pflag.IntP("rate", "r", 48000, "output sample rate")
		channels   = pflag.IntP("channels", "c", 2, "output channel count")
		bufFrames  = pflag.IntP("buffer", "b", 1024, "buffer size in frames")
		volume     = pflag.Float32P("volume", "v", 1.0, "master volume, 0..2")
		loop       = pflag.BoolP("loop", "l", false, "loop the file source")
	)
	pflag.Parse()

	logger := config.NewLogger("ownaudio-demo")

	if err := run(*filePath, *sampleRate, *channels, *bufFrames, *volume, *loop, logger); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(filePath string, sampleRate, channels, bufFrames int, volume float32, loop bool, logger *log.Logger) error {
	cfg, err := config.NewAudioConfig(config.AudioConfig{
		SampleRate:       sampleRate,
		Channels:         channels,
		BufferSizeFrames: bufFrames,
		EnableOutput:     true,
	})
	if err != nil {
		return fmt.Errorf("ownaudio-demo: %w", err)
	}

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("ownaudio-demo: open engine: %w", err)
	}
	defer eng.Dispose()

	bus := events.NewBus()
	go logDroppedEvents(bus)

	mx := mixer.New(cfg.SampleRate, cfg.Channels, clock.Realtime, bufFrames, bus)

	var src source.Source
	if filePath != "" {
		f, err := source.NewFile(filePath, cfg.SampleRate, cfg.Channels, bus)
		if err != nil {
			return fmt.Errorf("ownaudio-demo: open %s: %w", filePath, err)
		}
		f.SetLoop(loop)
		src = f
	} else {
		src = source.NewSilence(cfg.SampleRate, cfg.Channels, bus)
	}
	mx.AddSource(src)
	mx.SetMasterVolume(volume)
	src.Play()

	if err := eng.Start(mx.Render, nil); err != nil {
		return fmt.Errorf("ownaudio-demo: start engine: %w", err)
	}
	mx.Start()
	defer mx.Stop()
	defer eng.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	fmt.Fprintf(os.Stderr, "ownaudio-demo: playing (ctrl-c to stop)\n")
	select {
	case <-sigCh:
	case <-waitForEnd(src):
	}
	return nil
}

// waitForEnd polls for a file source reaching Ended, so the demo exits
// cleanly on its own when playing a short non-looping file.
func waitForEnd(src source.Source) <-chan struct{} {
	done := make(chan struct{})
	if _, ok := src.(*source.Silence); ok {
		return done // never fires; silence runs until ctrl-c
	}
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if src.State() == source.Ended || src.State() == source.Failed {
				close(done)
				return
			}
		}
	}()
	return done
}

func logDroppedEvents(bus *events.Bus) {
	for ev := range bus.Subscribe(32) {
		switch e := ev.(type) {
		case events.SourceError:
			fmt.Fprintf(os.Stderr, "source %s failed: %s\n", e.SourceID, e.Message)
		case events.TrackDropout:
			fmt.Fprintf(os.Stderr, "dropout on %s: %d frames (%s)\n", e.SourceID, e.MissedFrames, e.Reason)
		}
	}
}
