// Package digitizer reads landmark coordinates streamed by a 3D digitizing
// probe over a serial port. Each press of the probe's foot pedal emits one
// line of text, which is parsed into a Reading and delivered on a channel.
package digitizer

import (
	"bufio"
	"context"
	"io"
	"sync"

	"go.bug.st/serial"
)

// Porter defines the minimal interface needed for a serial port.
// This abstraction enables unit testing without real digitizer hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// Digitizer monitors a serial port for digitized landmark readings.
type Digitizer struct {
	port     Porter
	readings chan Reading
	done     chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New creates a Digitizer backed by the given port.
func New(port Porter) *Digitizer {
	return &Digitizer{
		port:     port,
		readings: make(chan Reading),
		done:     make(chan struct{}),
	}
}

// Open creates a Digitizer backed by a real serial port at the given path.
func Open(path string, baud int) (*Digitizer, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return New(port), nil
}

// Readings returns the channel on which parsed probe readings are delivered.
func (d *Digitizer) Readings() <-chan Reading {
	return d.readings
}

// Monitor reads lines from the serial port, parses them, and sends the
// resulting readings to the Readings channel. Lines that do not parse are
// dropped. Monitor returns when the context is cancelled, Close is called,
// or the port closes. Monitor owns the readings channel and closes it on
// exit, so Close is safe while a delivery is in flight.
func (d *Digitizer) Monitor(ctx context.Context) error {
	defer close(d.readings)

	scan := bufio.NewScanner(d.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking scan.Scan runs in its own goroutine so the outer loop can
	// await lines and context cancellation at once.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-d.done:
				return
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-d.done:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-d.done:
			return nil

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			// Channel closed means the port stopped producing lines.
			if !ok {
				return scan.Err()
			}

			reading, err := ParseLine(line)
			if err != nil {
				continue
			}

			select {
			case d.readings <- reading:
			case <-d.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close stops Monitor and closes the underlying port. The readings channel
// is closed by Monitor when it exits, never here.
func (d *Digitizer) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		d.closeErr = d.port.Close()
	})
	return d.closeErr
}
