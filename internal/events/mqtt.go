// Package events publishes transcription completion events to MQTT for
// downstream consumers (indexers, notification bots, dashboards).
package events

import (
	"encoding/json"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/openscribe/scribe/internal/metrics"
)

// CompletionEvent is published after each successfully processed file.
type CompletionEvent struct {
	AudioFile string   `json:"audio_file"`
	Duration  float64  `json:"duration"`
	Language  string   `json:"language"`
	Speakers  int      `json:"speakers_detected"`
	Segments  int      `json:"segments"`
	Model     string   `json:"model"`
	Formats   []string `json:"formats"`
	Timestamp string   `json:"timestamp"`
}

// Publisher is an MQTT completion-event publisher.
type Publisher struct {
	conn      mqtt.Client
	topic     string
	connected atomic.Bool
	log       zerolog.Logger
}

// Options configure the MQTT connection.
type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
	Username  string
	Password  string
	Log       zerolog.Logger
}

// Connect establishes the MQTT connection with auto-reconnect.
func Connect(opts Options) (*Publisher, error) {
	p := &Publisher{
		topic: opts.Topic,
		log:   opts.Log,
	}

	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	p.conn = mqtt.NewClient(clientOpts)
	token := p.conn.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}

	return p, nil
}

// Publish sends a completion event on {topic}/{stem}. Errors are logged,
// not returned; event delivery is best-effort and never fails a job.
func (p *Publisher) Publish(stem string, ev CompletionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("marshal completion event")
		return
	}

	token := p.conn.Publish(p.topic+"/"+stem, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		p.log.Warn().Err(err).Str("stem", stem).Msg("mqtt publish failed")
		return
	}
	metrics.EventsPublishedTotal.Inc()
}

func (p *Publisher) onConnect(_ mqtt.Client) {
	p.connected.Store(true)
	p.log.Info().Str("topic", p.topic).Msg("mqtt connected")
}

func (p *Publisher) onConnectionLost(_ mqtt.Client, err error) {
	p.connected.Store(false)
	p.log.Warn().Err(err).Msg("mqtt connection lost, will auto-reconnect")
}

// IsConnected reports the current connection state.
func (p *Publisher) IsConnected() bool {
	return p.connected.Load()
}

// Close disconnects the MQTT client.
func (p *Publisher) Close() {
	p.log.Info().Msg("disconnecting mqtt publisher")
	p.conn.Disconnect(1000)
}
