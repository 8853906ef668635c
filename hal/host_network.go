//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// HostNetworkConfig drives the simulated Wi-Fi radio on host.
type HostNetworkConfig struct {
	// CredentialsFile persists the last paired credentials.
	CredentialsFile string
	// ReachableSSIDs lists the networks that will accept an association.
	// Empty means every SSID is reachable.
	ReachableSSIDs []string
	// AssociateDelay is how long an association takes to complete.
	AssociateDelay time.Duration
	// PairingListen is the UDP address the pairing listener binds to.
	PairingListen string
}

type credentials struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

type hostNetwork struct {
	cfg HostNetworkConfig
	log Logger
	now func() time.Time

	mu          sync.Mutex
	creds       credentials
	associating bool
	assocAt     time.Time
	connected   bool

	pairConn net.PacketConn
	pairWG   sync.WaitGroup
}

func newHostNetwork(cfg HostNetworkConfig, log Logger) *hostNetwork {
	return &hostNetwork{cfg: cfg, log: log, now: time.Now}
}

func (n *hostNetwork) ConnectStored() error {
	c, err := loadCredentials(n.cfg.CredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoCredentials
		}
		return fmt.Errorf("load credentials: %w", err)
	}
	if c.SSID == "" {
		return ErrNoCredentials
	}
	n.associate(c)
	return nil
}

func (n *hostNetwork) associate(c credentials) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.creds = c
	n.associating = true
	n.assocAt = n.now().Add(n.cfg.AssociateDelay)
	n.log.WriteLineString("radio: associating with " + c.SSID)
}

func (n *hostNetwork) reachable(ssid string) bool {
	if len(n.cfg.ReachableSSIDs) == 0 {
		return true
	}
	for _, s := range n.cfg.ReachableSSIDs {
		if s == ssid {
			return true
		}
	}
	return false
}

func (n *hostNetwork) Connected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.connected {
		return true
	}
	if !n.associating || n.now().Before(n.assocAt) {
		return false
	}
	if !n.reachable(n.creds.SSID) {
		// Keep retrying silently, like a real radio would.
		n.assocAt = n.now().Add(n.cfg.AssociateDelay)
		return false
	}
	n.associating = false
	n.connected = true
	n.log.WriteLineString("radio: associated with " + n.creds.SSID)
	return true
}

func (n *hostNetwork) BeginPairing() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pairConn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp", n.cfg.PairingListen)
	if err != nil {
		return fmt.Errorf("pairing listen %q: %w", n.cfg.PairingListen, err)
	}
	n.pairConn = conn
	n.log.WriteLineString("radio: pairing on udp " + conn.LocalAddr().String())

	n.pairWG.Add(1)
	go n.servePairing(conn)
	return nil
}

func (n *hostNetwork) servePairing(conn net.PacketConn) {
	defer n.pairWG.Done()
	buf := make([]byte, 512)
	for {
		sz, from, err := conn.ReadFrom(buf)
		if err != nil {
			return
		}
		c, err := parsePairing(buf[:sz])
		if err != nil {
			n.log.WriteLineString(fmt.Sprintf("radio: bad pairing packet from %s: %v", from, err))
			continue
		}
		if err := saveCredentials(n.cfg.CredentialsFile, c); err != nil {
			n.log.WriteLineString("radio: store credentials: " + err.Error())
		}
		n.associate(c)
	}
}

func (n *hostNetwork) StopPairing() error {
	n.mu.Lock()
	conn := n.pairConn
	n.pairConn = nil
	n.mu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	n.pairWG.Wait()
	return err
}

func (n *hostNetwork) LocalAddr() netip.Addr {
	n.mu.Lock()
	connected := n.connected
	n.mu.Unlock()
	if !connected {
		return netip.Addr{}
	}
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			ipn, ok := a.(*net.IPNet)
			if !ok || ipn.IP.IsLoopback() {
				continue
			}
			if ip, ok := netip.AddrFromSlice(ipn.IP.To4()); ok && ipn.IP.To4() != nil {
				return ip
			}
		}
	}
	return netip.AddrFrom4([4]byte{127, 0, 0, 1})
}

// parsePairing decodes a pairing broadcast: a shell-quoted SSID followed by
// an optional passphrase, e.g. `'Home WiFi' 'secret pass'`.
func parsePairing(pkt []byte) (credentials, error) {
	fields, err := shlex.Split(string(pkt))
	if err != nil {
		return credentials{}, err
	}
	switch len(fields) {
	case 1:
		return credentials{SSID: fields[0]}, nil
	case 2:
		return credentials{SSID: fields[0], Passphrase: fields[1]}, nil
	default:
		return credentials{}, fmt.Errorf("want ssid [passphrase], got %d fields", len(fields))
	}
}

func loadCredentials(path string) (credentials, error) {
	var c credentials
	if path == "" {
		return c, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse %q: %w", path, err)
	}
	return c, nil
}

func saveCredentials(path string, c credentials) error {
	if path == "" {
		return nil
	}
	data, err := yaml.Marshal(&c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
