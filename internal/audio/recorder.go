package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
)

// DeviceInfo describes a capture device.
type DeviceInfo struct {
	Name      string
	IsDefault bool
}

// Recorder captures audio from a microphone. Each driver callback appends
// one chunk; Stop concatenates the chunks into a single float32 buffer.
type Recorder struct {
	ctx        *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate uint32
	channels   uint32
	deviceName string // empty = system default

	mu        sync.Mutex
	chunks    [][]float32
	recording bool
}

// NewRecorder creates a new audio recorder. deviceName selects a capture
// device by case-insensitive substring; empty uses the system default.
// Call Close() when done.
func NewRecorder(sampleRate, channels uint32, deviceName string) (*Recorder, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("audio: initializing context: %w", err)
	}

	return &Recorder{
		ctx:        ctx,
		sampleRate: sampleRate,
		channels:   channels,
		deviceName: deviceName,
	}, nil
}

// SampleRate returns the capture sample rate in Hz.
func (r *Recorder) SampleRate() uint32 {
	return r.sampleRate
}

// Devices lists the available capture devices.
func (r *Recorder) Devices() ([]DeviceInfo, error) {
	infos, err := r.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("audio: listing capture devices: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, DeviceInfo{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
		})
	}
	return devices, nil
}

// findDevice resolves r.deviceName to a malgo device ID.
func (r *Recorder) findDevice() (*malgo.DeviceInfo, error) {
	infos, err := r.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("audio: listing capture devices: %w", err)
	}
	want := strings.ToLower(r.deviceName)
	for i := range infos {
		if strings.Contains(strings.ToLower(infos[i].Name()), want) {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("audio: no capture device matching %q", r.deviceName)
}

// Start opens the capture stream and begins collecting chunks.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return fmt.Errorf("audio: already recording")
	}
	r.chunks = nil
	r.recording = true
	r.mu.Unlock()

	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatF32
	deviceCfg.Capture.Channels = r.channels
	deviceCfg.SampleRate = r.sampleRate

	if r.deviceName != "" {
		info, err := r.findDevice()
		if err != nil {
			r.setRecording(false)
			return err
		}
		deviceCfg.Capture.DeviceID = info.ID.Pointer()
	}

	callbacks := malgo.DeviceCallbacks{
		Data: r.onData,
	}

	device, err := malgo.InitDevice(r.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		r.setRecording(false)
		return fmt.Errorf("audio: initializing capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		r.setRecording(false)
		return fmt.Errorf("audio: starting capture device: %w", err)
	}

	r.mu.Lock()
	r.device = device
	r.mu.Unlock()

	return nil
}

func (r *Recorder) setRecording(v bool) {
	r.mu.Lock()
	r.recording = v
	r.mu.Unlock()
}

// Stop closes the capture stream and returns the recorded audio as one
// contiguous buffer. It returns nil if no recording was in progress.
func (r *Recorder) Stop() []float32 {
	r.mu.Lock()
	device := r.device
	r.device = nil
	wasRecording := r.recording
	r.recording = false
	r.mu.Unlock()

	if !wasRecording {
		return nil
	}

	// Uninit waits for the driver thread, so no callback runs after this.
	if device != nil {
		device.Uninit()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	samples := Concat(r.chunks)
	r.chunks = nil
	return samples
}

// IsRecording returns whether the recorder is currently capturing audio.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Close releases all audio resources.
func (r *Recorder) Close() error {
	r.Stop()

	if r.ctx != nil {
		if err := r.ctx.Uninit(); err != nil {
			return fmt.Errorf("audio: uninitializing context: %w", err)
		}
		r.ctx.Free()
		r.ctx = nil
	}

	return nil
}

// onData is the malgo callback invoked on the driver thread when audio
// data is available. pSample holds little-endian float32 frames.
func (r *Recorder) onData(_, pSample []byte, frameCount uint32) {
	chunk := bytesToFloat32(pSample, frameCount*r.channels)

	r.mu.Lock()
	if r.recording {
		r.chunks = append(r.chunks, chunk)
	}
	r.mu.Unlock()
}

// Concat joins recorded chunks into a single buffer. It returns nil when
// there is no audio.
func Concat(chunks [][]float32) []float32 {
	n := 0
	for _, c := range chunks {
		n += len(c)
	}
	if n == 0 {
		return nil
	}
	out := make([]float32, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// bytesToFloat32 converts raw bytes (little-endian float32) to a float32 slice.
func bytesToFloat32(data []byte, sampleCount uint32) []float32 {
	samples := make([]float32, 0, sampleCount)
	for i := uint32(0); i < sampleCount; i++ {
		offset := i * 4
		if offset+4 > uint32(len(data)) {
			break
		}
		bits := binary.LittleEndian.Uint32(data[offset : offset+4])
		samples = append(samples, math.Float32frombits(bits))
	}
	return samples
}
