//go:build !tinygo

package hal

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"
)

// TimeSource selects where the host time reference gets its time from.
type TimeSource string

const (
	// TimeSourceSystem trusts the host clock and is synchronized immediately.
	TimeSourceSystem TimeSource = "system"
	// TimeSourceNTP queries the configured servers with SNTP.
	TimeSourceNTP TimeSource = "ntp"
)

// HostTimeConfig configures the host time reference.
type HostTimeConfig struct {
	Source        TimeSource
	QueryTimeout  time.Duration
	RetryInterval time.Duration
}

type hostTimeRef struct {
	cfg   HostTimeConfig
	log   Logger
	now   func() time.Time
	query func(ctx context.Context, server string, timeout time.Duration) (time.Time, error)

	mu     sync.Mutex
	offset time.Duration
	skew   time.Duration
	synced bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newHostTimeRef(cfg HostTimeConfig, log Logger) *hostTimeRef {
	if cfg.Source == "" {
		cfg.Source = TimeSourceSystem
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 2 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	return &hostTimeRef{cfg: cfg, log: log, now: time.Now, query: sntpQuery}
}

func (r *hostTimeRef) Configure(offset time.Duration, servers ...string) error {
	r.stop()

	r.mu.Lock()
	r.offset = offset
	r.synced = false
	r.skew = 0
	r.mu.Unlock()

	switch r.cfg.Source {
	case TimeSourceSystem:
		r.mu.Lock()
		r.synced = true
		r.mu.Unlock()
		r.log.WriteLineString("timeref: using host clock")
		return nil
	case TimeSourceNTP:
		if len(servers) == 0 {
			return errors.New("timeref: no servers")
		}
	default:
		return fmt.Errorf("timeref: unknown source %q", r.cfg.Source)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	list := append([]string(nil), servers...)
	r.wg.Add(1)
	go r.syncLoop(ctx, list)
	return nil
}

// syncLoop tries the servers in order until one answers, then stops.
func (r *hostTimeRef) syncLoop(ctx context.Context, servers []string) {
	defer r.wg.Done()
	for {
		for _, s := range servers {
			t, err := r.query(ctx, s, r.cfg.QueryTimeout)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.log.WriteLineString(fmt.Sprintf("timeref: %s: %v", s, err))
				continue
			}
			r.mu.Lock()
			r.skew = t.Sub(r.now())
			r.synced = true
			r.mu.Unlock()
			r.log.WriteLineString("timeref: synchronized via " + s)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.cfg.RetryInterval):
		}
	}
}

func (r *hostTimeRef) LocalTime() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.synced {
		return time.Time{}, ErrNotSynced
	}
	zone := time.FixedZone(zoneName(r.offset), int(r.offset/time.Second))
	return r.now().Add(r.skew).In(zone), nil
}

func (r *hostTimeRef) stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func zoneName(offset time.Duration) string {
	if offset == 0 {
		return "UTC"
	}
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	h := int(offset / time.Hour)
	m := int(offset%time.Hour) / int(time.Minute)
	if m == 0 {
		return fmt.Sprintf("UTC%c%d", sign, h)
	}
	return fmt.Sprintf("UTC%c%d:%02d", sign, h, m)
}

var ntpEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// sntpQuery sends a single client request to server (port 123 unless given).
func sntpQuery(ctx context.Context, server string, timeout time.Duration) (time.Time, error) {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "123")
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "udp", server)
	if err != nil {
		return time.Time{}, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return time.Time{}, err
	}

	// 48 bytes, LI=0 VN=3 Mode=3 (client).
	req := make([]byte, 48)
	req[0] = 0x1b
	if _, err := conn.Write(req); err != nil {
		return time.Time{}, err
	}
	resp := make([]byte, 48)
	n, err := conn.Read(resp)
	if err != nil {
		return time.Time{}, err
	}
	return parseSNTP(resp[:n])
}

func parseSNTP(resp []byte) (time.Time, error) {
	if len(resp) < 48 {
		return time.Time{}, fmt.Errorf("short sntp response: %d bytes", len(resp))
	}
	if mode := resp[0] & 0x7; mode != 4 && mode != 5 {
		return time.Time{}, fmt.Errorf("unexpected sntp mode %d", mode)
	}
	// Stratum 0 is a kiss-of-death packet.
	if resp[1] == 0 {
		return time.Time{}, errors.New("sntp kiss-of-death")
	}
	sec := binary.BigEndian.Uint32(resp[40:44])
	frac := binary.BigEndian.Uint32(resp[44:48])
	t := ntpEpoch.Add(time.Duration(sec)*time.Second + time.Duration(uint64(frac)*uint64(time.Second)>>32))
	return t.UTC(), nil
}
