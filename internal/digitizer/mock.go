package digitizer

import (
	"io"
	"time"
)

// MockPort implements Porter for testing.
type MockPort struct {
	ReadData      []byte
	WrittenData   []byte
	ReadError     error
	WriteError    error
	CloseError    error
	Closed        bool
	ReadDelay     time.Duration
	ReadCallCount int
}

func (m *MockPort) Read(p []byte) (n int, err error) {
	if m.ReadError != nil {
		return 0, m.ReadError
	}

	if m.ReadDelay > 0 {
		time.Sleep(m.ReadDelay)
	}

	m.ReadCallCount++

	if len(m.ReadData) == 0 {
		return 0, io.EOF
	}

	n = copy(p, m.ReadData)
	m.ReadData = m.ReadData[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.Closed = true
	return m.CloseError
}

// NewMockDigitizer creates a Digitizer backed by a mock port preloaded with
// the given probe output.
func NewMockDigitizer(mockData []byte) *Digitizer {
	return New(&MockPort{ReadData: mockData})
}
