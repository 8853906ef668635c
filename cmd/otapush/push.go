//go:build !tinygo

package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"watch/watchos/proto"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/net/websocket"
)

// frames returns the full frame sequence for image: begin, chunks, end.
func frames(image []byte, chunk int) ([][]byte, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}
	if uint64(len(image)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("image too large: %d bytes", len(image))
	}
	if chunk > proto.MaxChunk {
		chunk = proto.MaxChunk
	}
	digest := blake2b.Sum256(image)
	out := [][]byte{proto.BeginFrame(uint32(len(image)), digest)}
	out = append(out, proto.Split(image, chunk)...)
	return append(out, proto.EndFrame()), nil
}

// sender delivers frames to the device in order.
type sender interface {
	Send(frame []byte) error
	Close() error
}

func dial(c *pushConfig) (sender, error) {
	switch c.Via {
	case "mqtt":
		return dialMQTT(c)
	case "ws":
		return dialWS(c)
	}
	return nil, fmt.Errorf("unknown transport %q", c.Via)
}

type mqttSender struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

func dialMQTT(c *pushConfig) (*mqttSender, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(c.Broker).
		SetClientID(c.ClientID).
		SetConnectTimeout(c.Timeout)
	if c.User != "" {
		opts.SetUsername(c.User)
		opts.SetPassword(c.Password)
	}
	client := mqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(c.Timeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", c.Broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", c.Broker, err)
	}
	return &mqttSender{client: client, topic: c.Topic, timeout: c.Timeout}, nil
}

func (s *mqttSender) Send(frame []byte) error {
	tok := s.client.Publish(s.topic, 1, false, frame)
	if !tok.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish %s: timed out", s.topic)
	}
	return tok.Error()
}

func (s *mqttSender) Close() error {
	s.client.Disconnect(250)
	return nil
}

type wsSender struct {
	conn *websocket.Conn
}

func dialWS(c *pushConfig) (*wsSender, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	origin := "http://" + u.Host
	cfg, err := websocket.NewConfig(c.URL, origin)
	if err != nil {
		return nil, err
	}
	if c.User != "" {
		req := http.Request{Header: http.Header{}}
		req.SetBasicAuth(c.User, c.Password)
		cfg.Header = req.Header
	}
	conn, err := websocket.DialConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.URL, err)
	}
	return &wsSender{conn: conn}, nil
}

func (s *wsSender) Send(frame []byte) error {
	return websocket.Message.Send(s.conn, frame)
}

func (s *wsSender) Close() error { return s.conn.Close() }

// push sends every frame, reporting progress after each chunk.
func push(s sender, frames [][]byte, pace time.Duration, progress func(sent, total int)) error {
	for i, f := range frames {
		if err := s.Send(f); err != nil {
			// Best effort: tell the device to drop the partial image.
			_ = s.Send(proto.AbortFrame())
			return fmt.Errorf("frame %d/%d: %w", i+1, len(frames), err)
		}
		if progress != nil {
			progress(i+1, len(frames))
		}
		if pace > 0 {
			time.Sleep(pace)
		}
	}
	return nil
}
