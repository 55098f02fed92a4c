// Package serialport abstracts the byte channel to the subordinate lock
// controller so the actuator link can be exercised without real hardware.
package serialport

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Porter defines the minimal interface needed for a serial port.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// Options describes the serial connection parameters used when opening a
// real port.
type Options struct {
	BaudRate int `json:"baud_rate"`
	DataBits int `json:"data_bits"`
}

// Normalize applies defaults for any unset values and validates the rest.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 115200
	}
	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	return opts, nil
}

// Open opens a real serial port at the given path. 8N1 framing, matching
// the subordinate controller's fixed configuration.
func Open(path string, opts Options) (Porter, error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: normalized.BaudRate,
		DataBits: normalized.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", path, err)
	}
	return port, nil
}
