package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/media"
	"github.com/lexi/pkg/models"
)

// ErrDeviceBusy is returned when a capture device is already held
var ErrDeviceBusy = errors.New("capture device is in use")

// Device is an audio source that can be opened by one recorder at a time
type Device interface {
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open recording. Stop ends it and returns the clip; Close
// releases the device and is safe to call more than once.
type Capture interface {
	Stop() (models.AudioClip, error)
	Close() error
}

// RecorderState is Idle or Recording
type RecorderState string

const (
	RecorderIdle      RecorderState = "idle"
	RecorderRecording RecorderState = "recording"
)

// Recorder owns at most one open capture
type Recorder struct {
	capture Capture
	field   string
}

// Start opens device for dictation into field
func (r *Recorder) Start(ctx context.Context, device Device, field string) error {
	if r.capture != nil {
		return fmt.Errorf("%w: already recording", ErrInvalidTransition)
	}
	capture, err := device.Open(ctx)
	if err != nil {
		return fmt.Errorf("open capture device: %w", err)
	}
	r.capture = capture
	r.field = field
	return nil
}

// Stop ends the recording and releases the device, also when Stop fails
func (r *Recorder) Stop() (clip models.AudioClip, field string, err error) {
	if r.capture == nil {
		return models.AudioClip{}, "", fmt.Errorf("%w: not recording", ErrInvalidTransition)
	}
	capture := r.capture
	field = r.field
	r.capture = nil
	r.field = ""
	defer func() {
		if cerr := capture.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to release capture device")
		}
	}()

	clip, err = capture.Stop()
	if err != nil {
		return models.AudioClip{}, field, fmt.Errorf("stop recording: %w", err)
	}
	return clip, field, nil
}

func (r *Recorder) State() RecorderState {
	if r.capture != nil {
		return RecorderRecording
	}
	return RecorderIdle
}

// exclusive is the shared single-holder lock of a device
type exclusive struct {
	mu   sync.Mutex
	held bool
}

func (e *exclusive) acquire() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.held {
		return ErrDeviceBusy
	}
	e.held = true
	return nil
}

func (e *exclusive) release() {
	e.mu.Lock()
	e.held = false
	e.mu.Unlock()
}

// InUse reports whether the device is currently held
func (e *exclusive) InUse() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.held
}

// BufferDevice replays an already-captured clip, as uploaded over HTTP
type BufferDevice struct {
	exclusive
	MIMEType string
	Data     []byte
}

// NewBufferDevice wraps uploaded audio bytes
func NewBufferDevice(mimeType string, data []byte) *BufferDevice {
	return &BufferDevice{MIMEType: mimeType, Data: data}
}

func (d *BufferDevice) Open(ctx context.Context) (Capture, error) {
	if err := d.acquire(); err != nil {
		return nil, err
	}
	return &bufferCapture{device: d}, nil
}

type bufferCapture struct {
	device *BufferDevice
	once   sync.Once
}

func (c *bufferCapture) Stop() (models.AudioClip, error) {
	return media.NewAudioClip(c.device.MIMEType, c.device.Data), nil
}

func (c *bufferCapture) Close() error {
	c.once.Do(c.device.release)
	return nil
}

// FileDevice reads a recording from disk when stopped
type FileDevice struct {
	exclusive
	Path     string
	MIMEType string
	// MaxBytes bounds how much is read; 0 means the default ceiling plus one byte
	MaxBytes int64
}

func (d *FileDevice) Open(ctx context.Context) (Capture, error) {
	if err := d.acquire(); err != nil {
		return nil, err
	}
	f, err := os.Open(d.Path)
	if err != nil {
		d.release()
		return nil, err
	}
	return &fileCapture{device: d, file: f}, nil
}

type fileCapture struct {
	device *FileDevice
	file   *os.File
	once   sync.Once
	err    error
}

func (c *fileCapture) Stop() (models.AudioClip, error) {
	limit := c.device.MaxBytes
	if limit <= 0 {
		limit = media.DefaultMaxBytes
	}
	// read one byte past the ceiling so oversize clips are still rejected
	data, err := io.ReadAll(io.LimitReader(c.file, limit+1))
	if err != nil {
		return models.AudioClip{}, err
	}
	mimeType := c.device.MIMEType
	if mimeType == "" {
		mimeType = media.DetectMIME(c.device.Path, data, "")
	}
	return media.NewAudioClip(mimeType, data), nil
}

func (c *fileCapture) Close() error {
	c.once.Do(func() {
		c.err = c.file.Close()
		c.device.release()
	})
	return c.err
}
