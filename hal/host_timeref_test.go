//go:build !tinygo

package hal

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func sntpResponse(t time.Time) []byte {
	b := make([]byte, 48)
	b[0] = 0x24 // LI=0 VN=4 Mode=4
	b[1] = 1
	binary.BigEndian.PutUint32(b[40:44], uint32(t.Unix()+2208988800))
	return b
}

func TestParseSNTP(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	got, err := parseSNTP(sntpResponse(want))
	if err != nil {
		t.Fatalf("parseSNTP: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("parseSNTP() = %v, want %v", got, want)
	}

	kod := sntpResponse(want)
	kod[1] = 0
	if _, err := parseSNTP(kod); err == nil {
		t.Fatal("expected kiss-of-death error")
	}
	if _, err := parseSNTP(make([]byte, 12)); err == nil {
		t.Fatal("expected short response error")
	}
}

func TestTimeRefNotSyncedBeforeConfigure(t *testing.T) {
	r := newHostTimeRef(HostTimeConfig{Source: TimeSourceSystem}, &testLogger{})
	if _, err := r.LocalTime(); !errors.Is(err, ErrNotSynced) {
		t.Fatalf("LocalTime() = %v, want %v", err, ErrNotSynced)
	}
	if err := r.Configure(8 * time.Hour); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	lt, err := r.LocalTime()
	if err != nil {
		t.Fatalf("LocalTime: %v", err)
	}
	if _, off := lt.Zone(); off != 8*3600 {
		t.Fatalf("zone offset = %d, want %d", off, 8*3600)
	}
}

func TestTimeRefNTPFirstResponderWins(t *testing.T) {
	log := &testLogger{}
	r := newHostTimeRef(HostTimeConfig{Source: TimeSourceNTP, RetryInterval: 10 * time.Millisecond}, log)
	base := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	r.now = func() time.Time { return base }

	var asked []string
	r.query = func(_ context.Context, server string, _ time.Duration) (time.Time, error) {
		asked = append(asked, server)
		if server == "a" {
			return time.Time{}, errors.New("unreachable")
		}
		return base.Add(time.Hour), nil
	}
	if err := r.Configure(0, "a", "b", "c"); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	r.wg.Wait()

	lt, err := r.LocalTime()
	if err != nil {
		t.Fatalf("LocalTime: %v", err)
	}
	if want := base.Add(time.Hour); !lt.Equal(want) {
		t.Fatalf("LocalTime() = %v, want %v", lt, want)
	}
	if len(asked) != 2 || asked[0] != "a" || asked[1] != "b" {
		t.Fatalf("asked = %q, want [a b]", asked)
	}
	if !log.contains("synchronized via b") {
		t.Fatal("missing sync log line")
	}
}

func TestTimeRefNTPNeverAnswers(t *testing.T) {
	r := newHostTimeRef(HostTimeConfig{Source: TimeSourceNTP, RetryInterval: time.Millisecond}, &testLogger{})
	r.query = func(ctx context.Context, _ string, _ time.Duration) (time.Time, error) {
		return time.Time{}, errors.New("timeout")
	}
	if err := r.Configure(0, "a"); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := r.LocalTime(); !errors.Is(err, ErrNotSynced) {
		t.Fatalf("LocalTime() = %v, want %v", err, ErrNotSynced)
	}
	r.stop()
}

func TestZoneName(t *testing.T) {
	tests := map[time.Duration]string{
		0:                            "UTC",
		8 * time.Hour:                "UTC+8",
		-5 * time.Hour:               "UTC-5",
		5*time.Hour + 30*time.Minute: "UTC+5:30",
	}
	for in, want := range tests {
		if got := zoneName(in); got != want {
			t.Fatalf("zoneName(%v) = %q, want %q", in, got, want)
		}
	}
}
