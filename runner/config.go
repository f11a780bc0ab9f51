package runner

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid runner config")

// Config sizes a Runner.
type Config struct {
	BufferSize int // per worker queue, default: 1
	NumWorkers int // default: 1
}

// NewConfig clamps non-positive values to 1.
func NewConfig(bufferSize int, numWorkers int) Config {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return Config{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
	}
}

// Validate reports a Config built by hand with non-positive sizes.
func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size must be positive, got %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.NumWorkers <= 0 {
		return fmt.Errorf("%w: number of workers must be positive, got %d", ErrInvalidConfig, c.NumWorkers)
	}
	return nil
}
