package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DeviceCamera opens V4L2 device nodes, one per facing
type DeviceCamera struct {
	Devices map[Facing]string
}

func NewDeviceCamera(environment, user string) *DeviceCamera {
	return &DeviceCamera{
		Devices: map[Facing]string{
			FacingEnvironment: environment,
			FacingUser:        user,
		},
	}
}

func (c *DeviceCamera) RequestStream(ctx context.Context, facing Facing) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, ok := c.Devices[facing]
	if !ok || path == "" {
		return nil, fmt.Errorf("no device for facing %q: %w", facing, ErrDeviceUnavailable)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%s: %w", path, ErrPermissionDenied)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, ErrDeviceUnavailable, err)
	}

	slog.Debug("Opened camera device", "path", path, "facing", facing)
	return &deviceStream{file: f}, nil
}

type deviceStream struct {
	file *os.File
	once sync.Once
}

func (s *deviceStream) Stop() {
	s.once.Do(func() {
		if err := s.file.Close(); err != nil {
			slog.Warn("Failed to close camera device", "path", s.file.Name(), "err", err)
		}
	})
}

// DelayedDetector stands in for frame analysis: after Delay it reports the
// next identifier from Codes. It does not decode anything.
type DelayedDetector struct {
	Delay time.Duration
	Codes []string

	mu   sync.Mutex
	next int
}

// DefaultScanCodes are the identifiers the stand-in detector cycles through
var DefaultScanCodes = []string{"SKU123456789", "PROD987654321", "BOX555123789"}

func NewDelayedDetector(delay time.Duration) *DelayedDetector {
	return &DelayedDetector{
		Delay: delay,
		Codes: DefaultScanCodes,
	}
}

func (d *DelayedDetector) Watch(ctx context.Context, _ Stream, found func(string)) {
	timer := time.NewTimer(d.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if len(d.Codes) == 0 {
		return
	}
	d.mu.Lock()
	code := d.Codes[d.next%len(d.Codes)]
	d.next++
	d.mu.Unlock()

	found(code)
}
