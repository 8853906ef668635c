//go:build !tinygo

package hal

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// mqttLink receives update frames published on a broker topic.
type mqttLink struct {
	cfg    HostUpdateConfig
	client mqtt.Client
}

func (l *mqttLink) start(r *updateReceiver) error {
	clientID := l.cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("watch-%d", time.Now().UnixNano())
	}
	opts := mqtt.NewClientOptions().
		AddBroker(l.cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if l.cfg.User != "" {
		opts.SetUsername(l.cfg.User)
		opts.SetPassword(l.cfg.Password)
	}

	onFrame := func(_ mqtt.Client, m mqtt.Message) {
		r.post(m.Payload())
	}
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		r.log.WriteLineString("update: mqtt connected, subscribing " + l.cfg.Topic)
		tok := c.Subscribe(l.cfg.Topic, 1, onFrame)
		go func() {
			if tok.Wait() && tok.Error() != nil {
				r.fault(UpdateErrConnect, fmt.Errorf("subscribe %s: %w", l.cfg.Topic, tok.Error()))
			}
		}()
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		r.fault(UpdateErrConnect, fmt.Errorf("mqtt connection lost: %w", err))
	})

	l.client = mqtt.NewClient(opts)
	tok := l.client.Connect()
	go func() {
		if tok.Wait() && tok.Error() != nil {
			r.fault(UpdateErrConnect, fmt.Errorf("mqtt connect %s: %w", l.cfg.Broker, tok.Error()))
		}
	}()
	return nil
}

func (l *mqttLink) Close() error {
	if l.client != nil {
		l.client.Disconnect(250)
	}
	return nil
}
