// Package miniaudio records microphone input through malgo.
package miniaudio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-relay/core/audio"
)

var ErrNotRecording = errors.New("not recording")

// Recorder captures mono linear16 audio into memory between Start and Stop.
type Recorder struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device

	mu        sync.Mutex
	recording bool
	buffer    []byte
}

func NewRecorder() (*Recorder, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	r := &Recorder{audioContext: audioCtx}

	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * audio.DefaultChannels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = audio.DefaultSampleRate
	config.Capture.Format = format
	config.Capture.Channels = audio.DefaultChannels
	config.Alsa.NoMMap = 1

	r.device, err = malgo.InitDevice(audioCtx.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			r.write(pInput[:n])
		},
	})
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return r, nil
}

func (r *Recorder) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start discards anything recorded earlier and begins capturing.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return nil
	}

	r.buffer = r.buffer[:0]
	if err := r.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	r.recording = true
	return nil
}

// Stop ends capturing and returns the recording wrapped as WAV.
func (r *Recorder) Stop() ([]byte, error) {
	if err := r.device.Stop(); err != nil {
		return nil, fmt.Errorf("failed to stop capture device: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil, ErrNotRecording
	}
	r.recording = false

	return audio.EncodeWAV(r.buffer, r.EncodingInfo())
}

func (r *Recorder) Close() {
	if r.device != nil {
		r.device.Uninit()
		r.device = nil
	}
	_ = r.audioContext.Uninit()
	r.audioContext.Free()
}

func (r *Recorder) write(samples []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		r.buffer = append(r.buffer, samples...)
	}
}
