package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/kramano/log-export/errors"
	"github.com/kramano/log-export/natsclient"
)

// Config selects the reader mode and bound.
type Config struct {
	// Stream is the JetStream stream holding the log records.
	Stream string `json:"stream"`

	// Subscription names a durable consumer on the stream. Exactly one of
	// Subscription and Topic must be set.
	Subscription string `json:"subscription,omitempty"`

	// Topic is a subject to read via an ephemeral consumer created for this
	// run. Exactly one of Subscription and Topic must be set.
	Topic string `json:"topic,omitempty"`

	// MaxMessages bounds the number of messages delivered across the whole
	// run; zero means unbounded.
	MaxMessages int `json:"max_messages,omitempty"`
}

// Validate checks the reader configuration.
func (c *Config) Validate() error {
	if c.Stream == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Reader", "Validate", "stream is required")
	}
	if (c.Subscription == "") == (c.Topic == "") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Reader", "Validate",
			"exactly one of subscription and topic must be set")
	}
	if c.MaxMessages < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Reader", "Validate",
			"max_messages cannot be negative")
	}
	return nil
}

// Reader produces the sequence of raw messages for the pipeline.
type Reader struct {
	client *natsclient.Client
	cfg    Config
	logger *slog.Logger

	iter    jetstream.MessagesContext
	opened  atomic.Bool
	stopped atomic.Bool

	mu      sync.Mutex
	readErr error
}

// NewReader validates the configuration and creates a reader.
func NewReader(client *natsclient.Client, cfg Config, logger *slog.Logger) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Reader", "NewReader", "NATS client required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "source"),
	}, nil
}

// Open binds the consumer and starts delivering messages on the returned
// channel. The channel is closed when the configured bound is reached, the
// context is cancelled, or Close is called; messages not yet delivered stay
// unacknowledged and are safe to redeliver.
func (r *Reader) Open(ctx context.Context) (<-chan Message, error) {
	if !r.opened.CompareAndSwap(false, true) {
		return nil, errors.WrapInvalid(errors.ErrAlreadyStarted, "Reader", "Open", "check reader state")
	}

	js, err := r.client.JetStream()
	if err != nil {
		return nil, err
	}

	consumer, err := js.CreateOrUpdateConsumer(ctx, r.cfg.Stream, r.consumerConfig())
	if err != nil {
		return nil, errors.WrapTransient(err, "Reader", "Open", "create consumer")
	}

	iter, err := consumer.Messages()
	if err != nil {
		return nil, errors.WrapTransient(err, "Reader", "Open", "start message iterator")
	}
	r.iter = iter

	// Unblock Next() promptly on cancellation; in-flight messages already
	// delivered downstream keep draining.
	go func() {
		<-ctx.Done()
		r.stop()
	}()

	out := make(chan Message, 64)
	go r.consumeLoop(ctx, iter, out)

	r.logger.Info("reader opened",
		"stream", r.cfg.Stream,
		"subscription", r.cfg.Subscription,
		"topic", r.cfg.Topic,
		"max_messages", r.cfg.MaxMessages)

	return out, nil
}

// consumerConfig builds the durable or ephemeral consumer configuration.
func (r *Reader) consumerConfig() jetstream.ConsumerConfig {
	if r.cfg.Subscription != "" {
		return jetstream.ConsumerConfig{
			Durable:   r.cfg.Subscription,
			AckPolicy: jetstream.AckExplicitPolicy,
		}
	}

	// Ephemeral consumer for this run only; the server reaps it once the
	// run is over.
	return jetstream.ConsumerConfig{
		Name:              fmt.Sprintf("logexport-%s", uuid.NewString()),
		FilterSubject:     r.cfg.Topic,
		AckPolicy:         jetstream.AckExplicitPolicy,
		InactiveThreshold: 5 * time.Minute,
	}
}

func (r *Reader) consumeLoop(ctx context.Context, iter jetstream.MessagesContext, out chan<- Message) {
	defer close(out)

	var delivered int
	for {
		msg, err := iter.Next()
		if err != nil {
			if stderrors.Is(err, jetstream.ErrMsgIteratorClosed) || ctx.Err() != nil {
				r.logger.Debug("reader stopped", "delivered", delivered)
				return
			}
			r.logger.Error("message iterator failed", "error", err, "delivered", delivered)
			r.recordErr(errors.WrapTransient(err, "Reader", "consumeLoop", "receive next message"))
			return
		}

		select {
		case out <- NewMessage(msg.Data(), msg.Ack, msg.Nak):
		case <-ctx.Done():
			// Leave the message unacknowledged; it will be redelivered.
			return
		}

		delivered++
		if r.cfg.MaxMessages > 0 && delivered >= r.cfg.MaxMessages {
			r.logger.Info("message bound reached", "max_messages", r.cfg.MaxMessages)
			return
		}
	}
}

// Close stops message delivery. It returns the error that ended the stream,
// if any, so an unbounded run that dies mid-stream does not look like a
// normal completion. It is safe to call more than once.
func (r *Reader) Close() error {
	r.stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readErr
}

func (r *Reader) recordErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr == nil {
		r.readErr = err
	}
}

func (r *Reader) stop() {
	if !r.stopped.CompareAndSwap(false, true) {
		return
	}
	if r.iter != nil {
		r.iter.Stop()
	}
}
