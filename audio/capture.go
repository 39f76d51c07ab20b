package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture is a live microphone input source for the Extractor, grounded
// on the retrieved san-kum-dynsim audio processor's portaudio
// input-stream idiom (internal/audio/audio.go), stripped down to
// capture-only (that example also synthesizes an output pad; this
// simulator never needs to produce sound, only react to it).
type Capture struct {
	stream *portaudio.Stream
	ext    *Extractor

	mu      sync.Mutex
	running bool
}

// NewCapture opens the default input device's stereo stream and wires
// its callback to push samples into ext. bufferSize is in frames per
// callback.
func NewCapture(ext *Extractor, sampleRate, bufferSize int) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: portaudio init: %w", err)
	}

	c := &Capture{ext: ext}

	stream, err := portaudio.OpenDefaultStream(2, 0, float64(sampleRate), bufferSize, c.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("audio: opening input stream: %w", err)
	}
	c.stream = stream
	return c, nil
}

// process is the portaudio callback, invoked on the audio thread with
// non-interleaved stereo input; it hands the block straight to the
// extractor, which is itself safe for single-writer/single-reader use.
func (c *Capture) process(in [][]float32) {
	if len(in) < 2 {
		return
	}
	dt := float64(len(in[0])) / float64(c.ext.cfg.SampleRate)
	c.ext.PushStereo(in[0], in[1], dt)
}

// Start begins capturing.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return nil
	}
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("audio: starting stream: %w", err)
	}
	c.running = true
	return nil
}

// Stop halts capture and releases the device.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	err := c.stream.Stop()
	c.stream.Close()
	portaudio.Terminate()
	c.running = false
	return err
}
