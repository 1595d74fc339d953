package digitizer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Reading
		wantErr bool
	}{
		{
			name: "bare coordinates",
			line: "48.3,6.1,9.7",
			want: Reading{X: 48.3, Y: 6.1, Z: 9.7},
		},
		{
			name: "labelled coordinates",
			line: "poR,48.3,6.1,9.7",
			want: Reading{Name: "poR", X: 48.3, Y: 6.1, Z: 9.7},
		},
		{
			name: "whitespace around fields",
			line: "  se , -2.2 , -5.6 , 38.1 ",
			want: Reading{Name: "se", X: -2.2, Y: -5.6, Z: 38.1},
		},
		{
			name: "negative and zero values",
			line: "0,-51.2,0.0",
			want: Reading{X: 0, Y: -51.2, Z: 0},
		},
		{
			name:    "blank line",
			line:    "   ",
			wantErr: true,
		},
		{
			name:    "comment line",
			line:    "# probe ready",
			wantErr: true,
		},
		{
			name:    "too few fields",
			line:    "1.0,2.0",
			wantErr: true,
		},
		{
			name:    "too many fields",
			line:    "poR,1,2,3,4",
			wantErr: true,
		},
		{
			name:    "non-numeric coordinate",
			line:    "poR,1.0,abc,3.0",
			wantErr: true,
		},
		{
			name:    "empty name field",
			line:    ",1.0,2.0,3.0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseLine(%q) = %+v, want error", tt.line, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine(%q) error: %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestMonitor_DeliversParsedReadings(t *testing.T) {
	d := NewMockDigitizer([]byte("poR,48.3,6.1,9.7\n# startup banner\n1.0,2.0,3.0\nnot a reading\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.Monitor(ctx)
	}()

	want := []Reading{
		{Name: "poR", X: 48.3, Y: 6.1, Z: 9.7},
		{X: 1.0, Y: 2.0, Z: 3.0},
	}
	for i, w := range want {
		select {
		case got := <-d.Readings():
			if got != w {
				t.Errorf("reading %d = %+v, want %+v", i, got, w)
			}
		case <-ctx.Done():
			t.Fatal("timed out waiting for reading")
		}
	}

	// Unparseable lines are dropped and EOF ends the monitor cleanly.
	if err := <-done; err != nil {
		t.Errorf("Monitor returned %v, want nil at end of input", err)
	}
}

func TestMonitor_ContextCancellation(t *testing.T) {
	// No consumer on the readings channel, so Monitor blocks mid-delivery
	// until the context is cancelled.
	d := NewMockDigitizer([]byte("poR,48.3,6.1,9.7\n"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- d.Monitor(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Monitor returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Monitor did not return after cancellation")
	}
}

func TestClose(t *testing.T) {
	port := &MockPort{}
	d := New(port)

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !port.Closed {
		t.Error("underlying port was not closed")
	}

	// Closing twice must be a no-op.
	if err := d.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestClose_DuringBlockedDelivery(t *testing.T) {
	// No consumer on the readings channel, so Monitor blocks mid-delivery.
	// Close must unblock it cleanly rather than pulling the channel out from
	// under the pending send.
	d := NewMockDigitizer([]byte("poR,48.3,6.1,9.7\n1.0,2.0,3.0\n"))

	done := make(chan error, 1)
	go func() {
		done <- d.Monitor(context.Background())
	}()

	// Consume the first reading so Monitor moves on and blocks delivering
	// the second, then close while that send is pending.
	<-d.Readings()
	time.Sleep(10 * time.Millisecond)

	if err := d.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Monitor returned %v, want nil after Close", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Monitor did not return after Close")
	}

	// Monitor closes the readings channel on its way out.
	if _, ok := <-d.Readings(); ok {
		t.Error("readings channel still open after Monitor returned")
	}
}

func TestClose_PropagatesPortError(t *testing.T) {
	wantErr := errors.New("port stuck")
	d := New(&MockPort{CloseError: wantErr})
	if err := d.Close(); !errors.Is(err, wantErr) {
		t.Errorf("Close returned %v, want %v", err, wantErr)
	}
}
