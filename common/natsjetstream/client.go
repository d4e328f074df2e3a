package natsjetstream

import (
	"context"
	"time"

	apperrors "github.com/burakmert236/goodswipe-escrow/common/errors"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type Config struct {
	URL           string
	Name          string
	MaxReconnect  int
	ReconnectWait time.Duration
	Timeout       time.Duration

	// DuplicateWindow bounds message-id deduplication on streams created
	// by EnsureStream. Zero keeps the server default.
	DuplicateWindow time.Duration
}

type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	cfg    *Config
	logger *logger.Logger
}

func NewClient(cfg *Config, log *logger.Logger) (*Client, *apperrors.AppError) {
	log = log.With("component", "nats")

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeServiceUnavailable, "failed to connect to NATS")
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to create JetStream context")
	}

	client := &Client{
		conn:   nc,
		js:     js,
		cfg:    cfg,
		logger: log,
	}

	return client, nil
}

// EnsureStream creates the stream or updates its subjects.
func (c *Client) EnsureStream(ctx context.Context, name string, subjects ...string) *apperrors.AppError {
	stream := jetstream.StreamConfig{
		Name:       name,
		Subjects:   subjects,
		Duplicates: c.cfg.DuplicateWindow,
	}

	if _, err := c.js.CreateOrUpdateStream(ctx, stream); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalServer, "failed to create jetstream stream "+name)
	}

	c.logger.Info("Stream ready", "stream", name)
	return nil
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Drain()
	}

	return nil
}
