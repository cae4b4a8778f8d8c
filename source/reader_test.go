package source

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kramano/log-export/errors"
)

// stubIterator fails every Next call with a fixed error.
type stubIterator struct {
	err     error
	stopped bool
}

func (s *stubIterator) Next() (jetstream.Msg, error) { return nil, s.err }
func (s *stubIterator) Stop()                        { s.stopped = true }
func (s *stubIterator) Drain()                       { s.stopped = true }

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"subscription only", Config{Stream: "LOGS", Subscription: "exporter"}, false},
		{"topic only", Config{Stream: "LOGS", Topic: "logs.requests"}, false},
		{"both set", Config{Stream: "LOGS", Subscription: "exporter", Topic: "logs.requests"}, true},
		{"neither set", Config{Stream: "LOGS"}, true},
		{"missing stream", Config{Subscription: "exporter"}, true},
		{"negative bound", Config{Stream: "LOGS", Subscription: "exporter", MaxMessages: -1}, true},
		{"bounded", Config{Stream: "LOGS", Topic: "logs.requests", MaxMessages: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalid(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewReaderRejectsNilClient(t *testing.T) {
	_, err := NewReader(nil, Config{Stream: "LOGS", Subscription: "exporter"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestConsumerConfigDurable(t *testing.T) {
	r := &Reader{cfg: Config{Stream: "LOGS", Subscription: "exporter"}}

	cc := r.consumerConfig()
	assert.Equal(t, "exporter", cc.Durable)
	assert.Empty(t, cc.FilterSubject)
	assert.Equal(t, jetstream.AckExplicitPolicy, cc.AckPolicy)
}

func TestConsumerConfigEphemeral(t *testing.T) {
	r := &Reader{cfg: Config{Stream: "LOGS", Topic: "logs.requests"}}

	cc := r.consumerConfig()
	assert.Empty(t, cc.Durable)
	assert.True(t, strings.HasPrefix(cc.Name, "logexport-"))
	assert.Equal(t, "logs.requests", cc.FilterSubject)
	assert.Equal(t, jetstream.AckExplicitPolicy, cc.AckPolicy)
	assert.NotZero(t, cc.InactiveThreshold)

	// Each run gets its own consumer
	other := r.consumerConfig()
	assert.NotEqual(t, cc.Name, other.Name)
}

func TestCloseSurfacesIteratorFailure(t *testing.T) {
	r := &Reader{
		cfg:    Config{Stream: "LOGS", Subscription: "exporter"},
		logger: slog.Default(),
	}
	iter := &stubIterator{err: stderrors.New("consumer deleted")}

	out := make(chan Message, 1)
	r.consumeLoop(context.Background(), iter, out)

	_, open := <-out
	assert.False(t, open, "delivery channel closes when the iterator dies")

	err := r.Close()
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

func TestCloseNilAfterCleanStop(t *testing.T) {
	r := &Reader{
		cfg:    Config{Stream: "LOGS", Subscription: "exporter"},
		logger: slog.Default(),
	}
	iter := &stubIterator{err: jetstream.ErrMsgIteratorClosed}

	out := make(chan Message, 1)
	r.consumeLoop(context.Background(), iter, out)

	assert.NoError(t, r.Close())
}

func TestMessageAckNak(t *testing.T) {
	var acked, naked bool
	msg := NewMessage([]byte("payload"),
		func() error { acked = true; return nil },
		func() error { naked = true; return nil })

	assert.Equal(t, []byte("payload"), msg.Data)

	require.NoError(t, msg.Ack())
	assert.True(t, acked)

	require.NoError(t, msg.Nak())
	assert.True(t, naked)
}

func TestMessageNilHandles(t *testing.T) {
	msg := NewMessage([]byte("payload"), nil, nil)

	assert.NoError(t, msg.Ack())
	assert.NoError(t, msg.Nak())
}
