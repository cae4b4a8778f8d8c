// Package pipeline wires the source, transform, extraction, and sink stages
// into a sharded streaming run with at-least-once delivery.
package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kramano/log-export/config"
	"github.com/kramano/log-export/errors"
	"github.com/kramano/log-export/extract"
	"github.com/kramano/log-export/logentry"
	"github.com/kramano/log-export/metric"
	"github.com/kramano/log-export/pkg/retry"
	"github.com/kramano/log-export/sink"
	"github.com/kramano/log-export/source"
	"github.com/kramano/log-export/transform"
)

// State is the pipeline lifecycle state.
type State int32

const (
	StateConfiguring State = iota
	StateRunning
	StateTerminal
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// MessageSource produces the raw message stream for a run.
type MessageSource interface {
	Open(ctx context.Context) (<-chan source.Message, error)
	Close() error
}

// Publisher delivers unparseable payloads to the dead-letter subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Dependencies are the collaborators a pipeline runs against.
type Dependencies struct {
	Source    MessageSource
	Sink      sink.Writer
	Publisher Publisher
	Metrics   *metric.Metrics
	Logger    *slog.Logger

	// Retry overrides the sink retry policy; nil picks the default.
	Retry *retry.Config
}

// Pipeline executes one streaming run over the configured source.
type Pipeline struct {
	cfg       config.PipelineConfig
	tf        *transform.Transformer
	src       MessageSource
	sink      sink.Writer
	publisher Publisher
	metrics   *metric.Metrics
	logger    *slog.Logger
	retryCfg  retry.Config

	state atomic.Int32
}

// New validates the configuration and assembles a pipeline.
func New(cfg config.PipelineConfig, tfCfg transform.Config, deps Dependencies) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Source == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Pipeline", "New", "source required")
	}
	if deps.Sink == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Pipeline", "New", "sink required")
	}
	if cfg.DeadLetterSubject != "" && deps.Publisher == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Pipeline", "New",
			"dead_letter_subject set without a publisher")
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = metric.NewMetrics()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retryCfg := errors.DefaultRetryConfig().ToRetryConfig()
	if deps.Retry != nil {
		retryCfg = *deps.Retry
	}
	if cfg.Shards <= 0 {
		cfg.Shards = 4
	}

	return &Pipeline{
		cfg:       cfg,
		tf:        transform.New(tfCfg),
		src:       deps.Source,
		sink:      deps.Sink,
		publisher: deps.Publisher,
		metrics:   metrics,
		logger:    logger.With("component", "pipeline"),
		retryCfg:  retryCfg,
	}, nil
}

// State returns the current lifecycle state.
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

func (p *Pipeline) setState(s State) {
	p.state.Store(int32(s))
	p.metrics.RecordPipelineState(int(s))
}

// Run executes the pipeline until the source is exhausted or the context is
// cancelled, then returns. Messages already handed to workers drain before
// Run returns, so cancellation never abandons an in-flight record mid-write.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateConfiguring), int32(StateRunning)) {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Pipeline", "Run", "check pipeline state")
	}
	defer p.setState(StateTerminal)

	if err := retry.Do(ctx, p.retryCfg, func() error {
		return p.sink.EnsureTable(ctx)
	}); err != nil {
		return errors.Wrap(err, "Pipeline", "Run", "ensure output table")
	}

	msgs, err := p.src.Open(ctx)
	if err != nil {
		return errors.Wrap(err, "Pipeline", "Run", "open source")
	}

	p.metrics.RecordPipelineState(int(StateRunning))
	p.logger.Info("pipeline running",
		"output_table", p.cfg.OutputTable,
		"shards", p.cfg.Shards,
		"bounded", p.cfg.RunBoundedOver > 0)

	g := new(errgroup.Group)
	for i := 0; i < p.cfg.Shards; i++ {
		shard := i
		g.Go(func() error {
			p.worker(ctx, shard, msgs)
			return nil
		})
	}
	_ = g.Wait()

	// A stream that ended on a source failure must not look like a normal
	// completion; the caller exits non-zero and the supervisor restarts.
	if err := p.src.Close(); err != nil {
		p.logger.Error("source failed", "error", err)
		return errors.Wrap(err, "Pipeline", "Run", "drain source")
	}

	p.logger.Info("pipeline terminal")
	return nil
}

// worker drains the shared delivery channel. The extractor is built lazily
// per shard so each worker owns its schema mapping.
func (p *Pipeline) worker(ctx context.Context, shard int, msgs <-chan source.Message) {
	ex := extract.NewExtractor()
	logger := p.logger.With("shard", shard)

	for msg := range msgs {
		p.metrics.RecordMessageReceived()
		start := time.Now()
		// A record picked up before cancellation is finished, not abandoned.
		p.process(context.WithoutCancel(ctx), ex, logger, msg)
		p.metrics.RecordProcessingDuration(time.Since(start))
	}
}

func (p *Pipeline) process(ctx context.Context, ex *extract.Extractor, logger *slog.Logger, msg source.Message) {
	entry, err := logentry.Parse(msg.Data)
	if err != nil {
		p.handleParseError(ctx, logger, msg, err)
		return
	}

	transformed := p.tf.Transform(*entry)
	rows := ex.ExtractRows(transformed)
	p.metrics.RecordRowsExtracted(len(rows))

	if len(rows) == 0 {
		if err := msg.Ack(); err != nil {
			logger.Warn("ack failed", "insert_id", entry.InsertID, "error", err)
		}
		return
	}

	err = retry.Do(ctx, p.retryCfg, func() error {
		if err := p.sink.Append(ctx, rows); err != nil {
			p.metrics.RecordSinkError()
			if !errors.IsTransient(err) {
				return retry.NonRetryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		logger.Error("append failed, requesting redelivery",
			"insert_id", entry.InsertID, "error", err)
		if nakErr := msg.Nak(); nakErr != nil {
			logger.Warn("nak failed", "insert_id", entry.InsertID, "error", nakErr)
		}
		return
	}

	p.metrics.RecordRowsWritten(len(rows))
	if err := msg.Ack(); err != nil {
		logger.Warn("ack failed", "insert_id", entry.InsertID, "error", err)
	}
}

// handleParseError drops the malformed payload, or forwards it to the
// dead-letter subject when one is configured. Either way the message is
// acknowledged so it does not wedge the subscription; a failed dead-letter
// publish naks instead so the payload is not lost.
func (p *Pipeline) handleParseError(ctx context.Context, logger *slog.Logger, msg source.Message, parseErr error) {
	p.metrics.RecordParseError()

	if p.cfg.DeadLetterSubject != "" {
		if err := p.publisher.Publish(ctx, p.cfg.DeadLetterSubject, msg.Data); err != nil {
			logger.Error("dead-letter publish failed, requesting redelivery", "error", err)
			if nakErr := msg.Nak(); nakErr != nil {
				logger.Warn("nak failed", "error", nakErr)
			}
			return
		}
		p.metrics.RecordDeadLettered()
	} else {
		logger.Warn("dropping unparseable payload", "error", parseErr, "bytes", len(msg.Data))
	}

	if err := msg.Ack(); err != nil {
		logger.Warn("ack failed", "error", err)
	}
}
