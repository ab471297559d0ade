package executor

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/voxelkit/tomopipe/imagedata"
	"github.com/voxelkit/tomopipe/logger"
	"github.com/voxelkit/tomopipe/observability"
	"github.com/voxelkit/tomopipe/pipeline"
	"github.com/voxelkit/tomopipe/validation"
)

// Executor applies operator chains on background goroutines. It implements
// pipeline.Executor.
type Executor struct {
	cfg     Config
	log     *logger.Logger
	tracer  trace.Tracer
	metrics *observability.Metrics

	// sem caps concurrent runs when MaxConcurrent > 0.
	sem chan struct{}
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger overrides the component logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithMetrics enables metric recording on the given instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithTracer overrides the tracer used for run and operator spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// New creates an Executor from cfg.
func New(cfg Config, opts ...Option) (*Executor, error) {
	cfg.ApplyDefaults()
	if err := validation.Validate(cfg); err != nil {
		return nil, err
	}

	e := &Executor{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get("executor")
	}
	if e.tracer == nil {
		e.tracer = observability.Tracer("github.com/voxelkit/tomopipe/executor")
	}
	if cfg.MaxConcurrent > 0 {
		e.sem = make(chan struct{}, cfg.MaxConcurrent)
	}
	return e, nil
}

// Run starts applying ops to img on a background goroutine and returns a
// handle to the in-flight run. The executor takes ownership of img until the
// run reaches a terminal state.
func (e *Executor) Run(img *imagedata.Image, ops []*pipeline.Operator) pipeline.Future {
	ctx, cancel := context.WithCancel(context.Background())
	f := &future{
		exec:      e,
		id:        uuid.NewString(),
		img:       img,
		ops:       append([]*pipeline.Operator(nil), ops...),
		ctx:       ctx,
		cancelCtx: cancel,
		started:   make(map[*pipeline.Operator]bool),
		skip:      make(map[*pipeline.Operator]bool),
	}

	e.log.Debug("run submitted", logger.Fields(
		logger.FieldRunID, f.id,
		"operators", len(f.ops),
	))

	go f.run()
	return f
}

// CheckHealth reports the executor's health.
func (e *Executor) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:   "executor",
		Status: observability.HealthStatusUp,
	}
	if e.sem != nil && len(e.sem) == cap(e.sem) {
		h.Status = observability.HealthStatusDegraded
		h.Message = "at concurrent run limit"
	}
	return h
}
