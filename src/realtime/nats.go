package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/metrics"
)

// Connect dials the broker with unlimited reconnects.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NATSPublisher publishes room events on <prefix>.<room> so every node's
// bridge can deliver them. When the broker is unavailable it falls back to
// the local hub, which still reaches sessions held by this node.
type NATSPublisher struct {
	conn     *nats.Conn
	prefix   string
	fallback *Hub
	breaker  *gobreaker.CircuitBreaker[struct{}]
}

func NewNATSPublisher(conn *nats.Conn, prefix string, fallback *Hub) *NATSPublisher {
	const name = "nats-publish"
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &NATSPublisher{
		conn:     conn,
		prefix:   prefix,
		fallback: fallback,
		breaker:  gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (p *NATSPublisher) Publish(ctx context.Context, room, event string, data any) error {
	payload, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.conn.Publish(p.prefix+"."+room, payload)
	})
	if err == nil {
		metrics.RealtimePublishes.WithLabelValues("nats", "ok").Inc()
		return nil
	}

	metrics.RealtimePublishes.WithLabelValues("nats", "fallback").Inc()
	logging.Warn().Err(err).Str("room", room).Msg("NATS publish failed, delivering locally")
	if p.fallback == nil {
		return err
	}
	return p.fallback.Publish(ctx, room, event, data)
}

// NATSBridge forwards broker events into the local hub.
type NATSBridge struct {
	conn   *nats.Conn
	prefix string
	hub    *Hub
}

func NewNATSBridge(conn *nats.Conn, prefix string, hub *Hub) *NATSBridge {
	return &NATSBridge{conn: conn, prefix: prefix, hub: hub}
}

// Run subscribes to <prefix>.* and blocks until ctx is cancelled.
func (b *NATSBridge) Run(ctx context.Context) error {
	log := logging.With("nats-bridge")
	msgs := make(chan *nats.Msg, 256)
	sub, err := b.conn.ChanSubscribe(b.prefix+".*", msgs)
	if err != nil {
		return fmt.Errorf("subscribe %s.*: %w", b.prefix, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	// the subscription must be registered before callers publish
	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("flush NATS subscription: %w", err)
	}
	log.Info().Str("subject", b.prefix+".*").Msg("NATS bridge started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("NATS bridge stopped")
			return nil
		case m := <-msgs:
			b.forward(ctx, log, m)
		}
	}
}

func (b *NATSBridge) forward(ctx context.Context, log *zerolog.Logger, m *nats.Msg) {
	room := strings.TrimPrefix(m.Subject, b.prefix+".")

	var frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(m.Data, &frame); err != nil {
		log.Warn().Err(err).Str("subject", m.Subject).Msg("failed to decode NATS event")
		return
	}

	var data any
	if len(frame.Data) > 0 {
		data = frame.Data
	}
	if err := b.hub.Publish(ctx, room, frame.Event, data); err != nil {
		log.Warn().Err(err).Str("room", room).Msg("failed to forward NATS event")
	}
}

// EmbeddedNATS is an in-process broker for single-node deployments and tests.
type EmbeddedNATS struct {
	server *server.Server
}

// StartEmbeddedNATS starts a broker on host:port. Port -1 picks a free port.
func StartEmbeddedNATS(host string, port int) (*EmbeddedNATS, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "talentnest",
		Host:       host,
		Port:       port,
		NoLog:      true,
		NoSigs:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}
	logging.Info().Str("url", ns.ClientURL()).Msg("embedded NATS server started")
	return &EmbeddedNATS{server: ns}, nil
}

func (e *EmbeddedNATS) ClientURL() string {
	return e.server.ClientURL()
}

func (e *EmbeddedNATS) Shutdown() {
	e.server.Shutdown()
	e.server.WaitForShutdown()
}
