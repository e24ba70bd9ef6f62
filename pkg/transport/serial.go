// Package transport is the serial transport component (spec §2 #1):
// byte-level read/write with a configurable bitrate and a read timeout in
// milliseconds.
//
// The teacher (librescoot-bluetooth-service) declared go.bug.st/serial in
// its go.mod but actually opened the port with github.com/tarm/serial at a
// permanently blocking ReadTimeout of 0. This module uses go.bug.st/serial
// for real, because its Port.SetReadTimeout gives the configurable
// millisecond read timeout spec §2 names for the transport (Config.ReadTimeout
// below); tarm/serial's ReadTimeout is a one-shot open
// option, not adjustable once the port is open.
package transport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Config describes how to open the serial link to the node.
type Config struct {
	// Port is the OS device path (e.g. "/dev/ttyUSB0", "COM3").
	Port string
	// BitRate is the UART bitrate in bits per second.
	BitRate int
	// ReadTimeout bounds a single Read call. Zero means block
	// indefinitely, matching go.bug.st/serial's own zero-value
	// semantics.
	ReadTimeout time.Duration
}

// Serial is the byte-level read/write endpoint the engine drives. It is
// deliberately narrow (io.ReadWriteCloser) so the request/confirm engine,
// the SLIP reader/writer and tests can all be built against an interface
// rather than a concrete go.bug.st/serial.Port.
type Serial interface {
	io.Reader
	io.Writer
	io.Closer
}

// Open opens the serial port described by cfg with 8 data bits, no parity
// and one stop bit — the framing every dual-MCU port in the field uses.
func Open(cfg Config) (Serial, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BitRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open %s: %w", cfg.Port, err)
	}

	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("transport: set read timeout: %w", err)
		}
	}

	return port, nil
}
