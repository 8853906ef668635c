//go:build !tinygo

// Package config loads the host simulator's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"watch/app"
	"watch/hal"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration file. Durations are Go duration strings
// ("1500ms", "8h").
type Config struct {
	Display DisplayConfig `yaml:"display"`
	Network NetworkConfig `yaml:"network"`
	Time    TimeConfig    `yaml:"time"`
	Update  UpdateConfig  `yaml:"update"`
	UI      UIConfig      `yaml:"ui"`
}

type DisplayConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Scale  int `yaml:"scale"`
}

// NetworkConfig covers the simulated radio and the provisioning timings.
type NetworkConfig struct {
	CredentialsFile string   `yaml:"credentials_file"`
	ReachableSSIDs  []string `yaml:"reachable_ssids"`
	AssociateDelay  string   `yaml:"associate_delay"`
	PairingListen   string   `yaml:"pairing_listen"`

	PollInterval   string `yaml:"poll_interval"`
	StoredAttempts int    `yaml:"stored_attempts"`
	PairingTimeout string `yaml:"pairing_timeout"`
}

// TimeConfig covers the time reference and the sync step.
type TimeConfig struct {
	Source        string   `yaml:"source"` // system, ntp
	Servers       []string `yaml:"servers"`
	Offset        string   `yaml:"offset"`
	QueryTimeout  string   `yaml:"query_timeout"`
	RetryInterval string   `yaml:"retry_interval"`
	SyncTimeout   string   `yaml:"sync_timeout"`
	SyncRetry     string   `yaml:"sync_retry"`
}

type UpdateConfig struct {
	Transport    string `yaml:"transport"` // none, mqtt, ws
	Broker       string `yaml:"broker"`
	Topic        string `yaml:"topic"`
	ClientID     string `yaml:"client_id"`
	Listen       string `yaml:"listen"`
	Path         string `yaml:"path"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	FirmwarePath string `yaml:"firmware_path"`
	StagingDir   string `yaml:"staging_dir"`
	IdleTimeout  string `yaml:"idle_timeout"`
}

type UIConfig struct {
	BufferLines   int    `yaml:"buffer_lines"`
	RefreshPeriod string `yaml:"refresh_period"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{Width: 320, Height: 240, Scale: 2},
		Network: NetworkConfig{
			AssociateDelay: "1500ms",
			PairingListen:  ":18266",
			PollInterval:   "100ms",
			StoredAttempts: 100,
			PairingTimeout: "10m",
		},
		Time: TimeConfig{
			Source:        string(hal.TimeSourceSystem),
			Servers:       []string{"ntp6.aliyun.com", "cn.ntp.org.cn", "ntp.ntsc.ac.cn"},
			Offset:        "8h",
			QueryTimeout:  "2s",
			RetryInterval: "2s",
			SyncTimeout:   "30s",
			SyncRetry:     "5m",
		},
		Update: UpdateConfig{
			Transport:   string(hal.UpdateTransportNone),
			Topic:       "watch/ota",
			ClientID:    "watch",
			Path:        "/ota",
			IdleTimeout: "30s",
		},
		UI: UIConfig{BufferLines: 10, RefreshPeriod: "30ms"},
	}
}

// Load reads a YAML file and fills in defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	if _, err := c.App(); err != nil {
		return nil, err
	}
	if _, err := c.Host(); err != nil {
		return nil, err
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		c.Display.Width, c.Display.Height = d.Display.Width, d.Display.Height
	}
	if c.Display.Scale <= 0 {
		c.Display.Scale = d.Display.Scale
	}

	setString(&c.Network.AssociateDelay, d.Network.AssociateDelay)
	setString(&c.Network.PairingListen, d.Network.PairingListen)
	setString(&c.Network.PollInterval, d.Network.PollInterval)
	setString(&c.Network.PairingTimeout, d.Network.PairingTimeout)
	if c.Network.StoredAttempts <= 0 {
		c.Network.StoredAttempts = d.Network.StoredAttempts
	}

	setString(&c.Time.Source, d.Time.Source)
	if len(c.Time.Servers) == 0 {
		c.Time.Servers = d.Time.Servers
	}
	setString(&c.Time.Offset, d.Time.Offset)
	setString(&c.Time.QueryTimeout, d.Time.QueryTimeout)
	setString(&c.Time.RetryInterval, d.Time.RetryInterval)
	setString(&c.Time.SyncTimeout, d.Time.SyncTimeout)
	setString(&c.Time.SyncRetry, d.Time.SyncRetry)

	setString(&c.Update.Transport, d.Update.Transport)
	setString(&c.Update.Topic, d.Update.Topic)
	setString(&c.Update.ClientID, d.Update.ClientID)
	setString(&c.Update.Path, d.Update.Path)
	setString(&c.Update.IdleTimeout, d.Update.IdleTimeout)

	if c.UI.BufferLines <= 0 {
		c.UI.BufferLines = d.UI.BufferLines
	}
	setString(&c.UI.RefreshPeriod, d.UI.RefreshPeriod)
}

func setString(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

// durations parses named duration fields, reporting the first bad one.
type durations struct {
	err error
}

func (d *durations) parse(name, s string) time.Duration {
	if d.err != nil {
		return 0
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		d.err = fmt.Errorf("config: %s: %w", name, err)
	}
	return v
}

// App maps the file onto the device component config.
func (c *Config) App() (app.Config, error) {
	var d durations
	cfg := app.DefaultConfig()

	cfg.Net.PollInterval = d.parse("network.poll_interval", c.Network.PollInterval)
	cfg.Net.StoredAttempts = c.Network.StoredAttempts
	cfg.Net.PairingTimeout = d.parse("network.pairing_timeout", c.Network.PairingTimeout)

	cfg.Sync.Servers = append([]string(nil), c.Time.Servers...)
	cfg.Sync.Offset = d.parse("time.offset", c.Time.Offset)
	cfg.Sync.Timeout = d.parse("time.sync_timeout", c.Time.SyncTimeout)
	cfg.Sync.RetryInterval = d.parse("time.sync_retry", c.Time.SyncRetry)

	cfg.UI.Width = int16(c.Display.Width)
	cfg.UI.Height = int16(c.Display.Height)
	cfg.UI.BufferLines = int16(c.UI.BufferLines)
	cfg.UI.RefreshPeriod = uint32(d.parse("ui.refresh_period", c.UI.RefreshPeriod) / time.Millisecond)

	return cfg, d.err
}

// Host maps the file onto the host HAL config.
func (c *Config) Host() (hal.HostConfig, error) {
	var d durations
	cfg := hal.DefaultHostConfig()

	cfg.Width, cfg.Height, cfg.Scale = c.Display.Width, c.Display.Height, c.Display.Scale

	cfg.Network = hal.HostNetworkConfig{
		CredentialsFile: c.Network.CredentialsFile,
		ReachableSSIDs:  append([]string(nil), c.Network.ReachableSSIDs...),
		AssociateDelay:  d.parse("network.associate_delay", c.Network.AssociateDelay),
		PairingListen:   c.Network.PairingListen,
	}

	cfg.Time = hal.HostTimeConfig{
		Source:        hal.TimeSource(c.Time.Source),
		QueryTimeout:  d.parse("time.query_timeout", c.Time.QueryTimeout),
		RetryInterval: d.parse("time.retry_interval", c.Time.RetryInterval),
	}
	switch cfg.Time.Source {
	case hal.TimeSourceSystem, hal.TimeSourceNTP:
	default:
		if d.err == nil {
			d.err = fmt.Errorf("config: time.source: unknown source %q", c.Time.Source)
		}
	}

	u := c.Update
	cfg.Update = hal.HostUpdateConfig{
		Transport:    hal.UpdateTransport(u.Transport),
		Broker:       u.Broker,
		Topic:        u.Topic,
		ClientID:     u.ClientID,
		Listen:       u.Listen,
		Path:         u.Path,
		User:         u.User,
		Password:     u.Password,
		FirmwarePath: u.FirmwarePath,
		StagingDir:   u.StagingDir,
		IdleTimeout:  d.parse("update.idle_timeout", u.IdleTimeout),
	}
	return cfg, d.err
}
