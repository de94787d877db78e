package smartmaster

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ModernMube/ownaudio/events"
	"github.com/ModernMube/ownaudio/mixer"
	"github.com/ModernMube/ownaudio/source"
)

// errCancelled is returned internally by a step's recording/analysis
// helpers when it observes a stale generation or a done context; run()
// always re-checks m.cancelled before treating this as a real Error-phase
// failure, so it never leaks out as a reported measurement error.
var errCancelled = errors.New("smartmaster: measurement cancelled")

// Phase is a position in the measurement state machine: Idle ->
// Initializing -> CheckingRight -> CheckingLeft -> CheckingSub ->
// AnalyzingSpectrum -> CalculatingCorrection -> Completed | Error, plus the
// orthogonal Cancelled terminal reachable from any in-flight phase.
type Phase int32

const (
	Idle Phase = iota
	Initializing
	CheckingRight
	CheckingLeft
	CheckingSub
	AnalyzingSpectrum
	CalculatingCorrection
	Completed
	Error
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case CheckingRight:
		return "checking_right"
	case CheckingLeft:
		return "checking_left"
	case CheckingSub:
		return "checking_sub"
	case AnalyzingSpectrum:
		return "analyzing_spectrum"
	case CalculatingCorrection:
		return "calculating_correction"
	case Completed:
		return "completed"
	case Error:
		return "error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// isoCenterFrequencies mirrors the effect package's 31 ISO one-third-octave
// band centers, duplicated here since that table is a package-private
// implementation detail of the graphic EQ.
var isoCenterFrequencies = [31]float64{
	20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160,
	200, 250, 315, 400, 500, 630, 800, 1000, 1250, 1600,
	2000, 2500, 3150, 4000, 5000, 6300, 8000, 10000, 12500, 16000, 20000,
}

// Result carries the recorded channel levels and the 31-band spectral
// deviation the apply-correction step consumes.
type Result struct {
	RightDB float64
	LeftDB  float64
	SubDB   float64
	BandsDB [31]float64 // deviation from a flat reference, per ISO band
}

const (
	checkSignalSeconds    = 0.5
	spectrumSignalSeconds = 1.0
)

// Measurement drives the calibration pipeline described by Phase: it plays
// test signals into mx's mix and records the result back via input, then
// derives a Result. Nothing is auto-applied; ApplyCorrection must be
// called explicitly by the caller on a Completed result, per the package's
// "never auto-applied" contract.
//
// Cancellation is modeled on the teacher's media-loader generation counter:
// Start bumps gen and captures it; every cooperative yield point (each
// phase transition, each recording chunk) re-checks gen against the live
// counter and unwinds to Cancelled without touching any persisted state the
// moment a newer Start or an explicit Cancel has superseded it.
type Measurement struct {
	mx    *mixer.Mixer
	input *source.Input
	bus   *events.Bus

	gen   atomic.Uint64
	phase atomic.Int32

	mu     sync.Mutex
	result Result
	err    error
}

// NewMeasurement returns an idle Measurement driving test tones through mx
// and recording from input.
func NewMeasurement(mx *mixer.Mixer, input *source.Input, bus *events.Bus) *Measurement {
	m := &Measurement{mx: mx, input: input, bus: bus}
	m.phase.Store(int32(Idle))
	return m
}

// Phase returns the current state-machine position.
func (m *Measurement) Phase() Phase { return Phase(m.phase.Load()) }

// Result returns the last completed (or partially completed, on Error)
// measurement result along with any error.
func (m *Measurement) Result() (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result, m.err
}

// Cancel invalidates any in-flight run. The running goroutine observes the
// generation mismatch at its next cooperative yield point, moves to
// Cancelled, and returns without writing a result or touching any preset
// file.
func (m *Measurement) Cancel() {
	m.gen.Add(1)
	if m.Phase() != Idle && m.Phase() != Completed && m.Phase() != Error {
		m.phase.Store(int32(Cancelled))
	}
}

func (m *Measurement) cancelled(gen uint64, ctx context.Context) bool {
	if gen != m.gen.Load() {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Start begins a new measurement run in the background, superseding any
// prior in-flight one (its generation becomes stale and it unwinds on its
// own next yield point).
func (m *Measurement) Start(ctx context.Context) {
	gen := m.gen.Add(1)
	m.phase.Store(int32(Initializing))
	go m.run(ctx, gen)
}

type measurementStep struct {
	phase Phase
	run   func(ctx context.Context, gen uint64) error
}

func (m *Measurement) run(ctx context.Context, gen uint64) {
	var result Result

	steps := []measurementStep{
		{CheckingRight, func(ctx context.Context, gen uint64) error {
			db, err := m.checkChannel(ctx, gen, 1, whiteNoise)
			result.RightDB = db
			return err
		}},
		{CheckingLeft, func(ctx context.Context, gen uint64) error {
			db, err := m.checkChannel(ctx, gen, 0, whiteNoise)
			result.LeftDB = db
			return err
		}},
		{CheckingSub, func(ctx context.Context, gen uint64) error {
			db, err := m.checkChannel(ctx, gen, -1, lowFrequencyNoise)
			result.SubDB = db
			return err
		}},
		{AnalyzingSpectrum, func(ctx context.Context, gen uint64) error {
			bands, err := m.analyzeSpectrum(ctx, gen)
			result.BandsDB = bands
			return err
		}},
	}

	for _, step := range steps {
		if m.cancelled(gen, ctx) {
			m.phase.Store(int32(Cancelled))
			return
		}
		m.phase.Store(int32(step.phase))
		if err := step.run(ctx, gen); err != nil {
			if m.cancelled(gen, ctx) {
				m.phase.Store(int32(Cancelled))
				return
			}
			m.mu.Lock()
			m.err = err
			m.mu.Unlock()
			m.phase.Store(int32(Error))
			return
		}
	}

	if m.cancelled(gen, ctx) {
		m.phase.Store(int32(Cancelled))
		return
	}
	m.phase.Store(int32(CalculatingCorrection))

	m.mu.Lock()
	m.result = result
	m.err = nil
	m.mu.Unlock()
	m.phase.Store(int32(Completed))
}

// checkChannel plays a test tone panned to channel (0=left, 1=right, -1=
// both, used for the sub check) and returns the recorded RMS in dB.
func (m *Measurement) checkChannel(ctx context.Context, gen uint64, channel int, toneGen func(n int) []float32) (float64, error) {
	sr := m.mx.SampleRate()
	ch := m.mx.Channels()
	nFrames := int(checkSignalSeconds * float64(sr))

	tone := toneGen(nFrames * ch)
	if channel >= 0 && ch > 1 {
		for i := 0; i < nFrames; i++ {
			for c := 0; c < ch; c++ {
				if c != channel {
					tone[i*ch+c] = 0
				}
			}
		}
	}

	s := source.NewSample(tone, sr, ch, m.bus)
	s.Play()
	m.mx.AddSource(s)
	defer m.mx.RemoveSource(s.ID())

	samples, err := m.recordFor(ctx, gen, checkSignalSeconds)
	if err != nil {
		return -100, err
	}
	return rmsDB(samples), nil
}

// analyzeSpectrum plays a longer pink-noise-like burst, records it, FFTs
// the result, and reduces it to a 31-band octave-smoothed deviation from a
// flat reference.
func (m *Measurement) analyzeSpectrum(ctx context.Context, gen uint64) ([31]float64, error) {
	var bands [31]float64

	sr := m.mx.SampleRate()
	ch := m.mx.Channels()
	nFrames := int(spectrumSignalSeconds * float64(sr))

	tone := pinkNoise(nFrames * ch)
	s := source.NewSample(tone, sr, ch, m.bus)
	s.Play()
	m.mx.AddSource(s)
	defer m.mx.RemoveSource(s.ID())

	samples, err := m.recordFor(ctx, gen, spectrumSignalSeconds)
	if err != nil {
		return bands, err
	}

	mono := monoDownmix(samples, ch)
	fft := fourier.NewFFT(len(mono))
	spectrum := fft.Coefficients(nil, mono)

	mag := make([]float64, len(spectrum))
	for i, c := range spectrum {
		mag[i] = math.Hypot(real(c), imag(c))
	}

	binHz := float64(sr) / float64(len(mono))
	for b, centerHz := range isoCenterFrequencies {
		lo := centerHz / math.Pow(2, 1.0/6)
		hi := centerHz * math.Pow(2, 1.0/6)
		var sum float64
		var count int
		for i, mg := range mag {
			f := float64(i) * binHz
			if f < lo || f > hi {
				continue
			}
			sum += mg
			count++
		}
		if count == 0 {
			bands[b] = 0
			continue
		}
		avgMag := sum / float64(count)
		bands[b] = linearToDB(avgMag / float64(len(mono)))
	}

	// Reference against the band-average level rather than an absolute
	// scale, since the test signal's overall gain is arbitrary.
	var meanDB float64
	for _, v := range bands {
		meanDB += v
	}
	meanDB /= float64(len(bands))
	for b := range bands {
		bands[b] -= meanDB
	}

	return bands, nil
}

// recordFor drains the input source in chunks <= 1024 frames, sleeping
// roughly one chunk's real-time duration after each read. Input.ReadSamples
// never blocks and returns 0 frames when its ring is empty, so got advances
// only by captured frames and the sleep keeps the loop from spinning while
// it waits for the capture callback. Stops early, returning
// errCancelled, the moment gen goes stale or ctx is done.
func (m *Measurement) recordFor(ctx context.Context, gen uint64, durationSeconds float64) ([]float32, error) {
	sr := m.mx.SampleRate()
	ch := m.mx.Channels()
	wantFrames := int(durationSeconds * float64(sr))
	out := make([]float32, wantFrames*ch)

	m.input.Play()
	defer m.input.Stop()

	const chunkFrames = 1024
	chunk := make([]float32, chunkFrames*ch)
	chunkPace := time.Duration(float64(chunkFrames) / float64(sr) * float64(time.Second))

	got := 0
	for got < wantFrames {
		if m.cancelled(gen, ctx) {
			return nil, errCancelled
		}
		n := m.input.ReadSamples(chunk)
		take := n
		if got+take > wantFrames {
			take = wantFrames - got
		}
		copy(out[got*ch:(got+take)*ch], chunk[:take*ch])
		got += take
		time.Sleep(chunkPace)
	}
	return out, nil
}

func rmsDB(samples []float32) float64 {
	if len(samples) == 0 {
		return -100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	return linearToDB(rms)
}

func linearToDB(v float64) float64 {
	if v <= 0 {
		return -100
	}
	db := 20 * math.Log10(v)
	if db < -100 {
		return -100
	}
	return db
}

func monoDownmix(samples []float32, channels int) []float64 {
	frames := len(samples) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(samples[i*channels+c])
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

func whiteNoise(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(rand.Float64()*2 - 1)
	}
	return out
}

// lowFrequencyNoise approximates pink-ish sub-bass content with a one-pole
// lowpass over white noise, adequate for an RMS-level check (not used for
// spectral shape).
func lowFrequencyNoise(n int) []float32 {
	out := whiteNoise(n)
	var prev float32
	const a = 0.995 // ~38Hz at 48kHz per one-pole cutoff = sr*(1-a)/(2*pi)
	for i := range out {
		prev = a*prev + (1-a)*out[i]
		out[i] = prev * 4 // compensate for the lowpass's amplitude loss
	}
	return out
}

// pinkNoise approximates a -3dB/octave spectrum via the Voss-McCartney
// algorithm, giving the spectrum-analysis step roughly even per-octave
// energy to measure deviation against.
func pinkNoise(n int) []float32 {
	const rows = 16
	generators := make([]float64, rows)
	out := make([]float32, n)
	var runningSum float64
	counter := 0
	for i := range out {
		counter++
		last := counter
		for r := 0; r < rows; r++ {
			if last&1 == 1 {
				old := generators[r]
				generators[r] = rand.Float64()*2 - 1
				runningSum += generators[r] - old
			}
			last >>= 1
			if last == 0 {
				break
			}
		}
		out[i] = float32(runningSum / rows)
	}
	return out
}
