package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"i4.energy/across/espwifi/esp"
	"i4.energy/across/espwifi/wifidb"
)

// joinTimeout bounds a join requested over MQTT, which has no caller
// context.
const joinTimeout = 30 * time.Second

// Bridge publishes the link state to <Topic>/state and accepts join
// requests on <Topic>/connect with the same JSON body as POST /connect.
type Bridge struct {
	Client mqtt.Client
	Topic  string
	Driver *Driver
	DB     *wifidb.DB
	Logger *slog.Logger
}

// NewMQTTClient returns an auto-reconnecting client for the broker in
// config. onConnect runs after every (re)connect.
func NewMQTTClient(config *Config, onConnect mqtt.OnConnectHandler) mqtt.Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.MqttBroker)
	opts.SetClientID(config.MqttClientID)
	if config.MqttUsername != "" {
		opts.SetUsername(config.MqttUsername)
		opts.SetPassword(config.MqttPassword)
	}
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(onConnect)
	return mqtt.NewClient(opts)
}

// Subscribe registers the join request handler. It is meant to be called
// from the client's OnConnect handler so the subscription survives
// reconnects.
func (b *Bridge) Subscribe() error {
	token := b.Client.Subscribe(b.Topic+"/connect", 1, b.handleConnect)
	token.Wait()
	return token.Error()
}

// PublishState sends the state as a retained message. It does not wait for
// the broker so it is safe to call from the driver goroutine.
func (b *Bridge) PublishState(state esp.NetworkState) {
	payload, err := json.Marshal(statusResponse{
		Connected: state.Has(esp.StateConnected),
		GotIP:     state.Has(esp.StateGotIP),
		State:     state.String(),
	})
	if err != nil {
		b.Logger.Error("Failed to encode state", "error", err)
		return
	}
	b.Client.Publish(b.Topic+"/state", 1, true, payload)
}

func (b *Bridge) handleConnect(_ mqtt.Client, m mqtt.Message) {
	var req struct {
		SSID     string `json:"ssid"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(m.Payload(), &req); err != nil {
		b.Logger.Warn("Bad join request", "error", err, "topic", m.Topic())
		return
	}
	if req.SSID == "" {
		b.Logger.Warn("Join request without ssid", "topic", m.Topic())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	err := b.Driver.Do(ctx, func(ctx context.Context, c *esp.Client) error {
		return Run(ctx, b.Logger, c, func() error { return c.Connect(req.SSID, req.Password) })
	})
	if err != nil {
		b.Logger.Error("Failed to join access point", "error", err, "ssid", req.SSID)
		return
	}
	if err := b.DB.SetCredentials(wifidb.Credentials{SSID: req.SSID, Password: req.Password}); err != nil {
		b.Logger.Error("Failed to save credentials", "error", err)
		return
	}
	b.Logger.Info("Joined access point", "ssid", req.SSID)
}
