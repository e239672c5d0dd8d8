package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/angeloszaimis/backup-config/internal/assembler"
	"github.com/angeloszaimis/backup-config/internal/discovery"
	"github.com/angeloszaimis/backup-config/internal/endpoints"
	"github.com/angeloszaimis/backup-config/internal/metrics"
	"github.com/angeloszaimis/backup-config/internal/properties"
)

const (
	DefaultNamespace  = "cf-mysql-backup"
	DefaultClientLink = "mysql-backup-tool"

	ServerConfigFile  = assembler.ServerJob + ".yml"
	ProcessConfigFile = "bpm.yml"
	ClientConfigFile  = assembler.ClientJob + ".yml"
)

// Failure reasons reported to metrics.
const (
	ReasonMissingProperty = "missing_property"
	ReasonTypeMismatch    = "type_mismatch"
	ReasonNoEndpoints     = "no_endpoints"
	ReasonInvalidInput    = "invalid_input"
	ReasonOther           = "other"
)

// UnknownJob is the metrics bucket shared by requests naming no known job.
const UnknownJob = "unknown"

var ErrUnknownJob = errors.New("unknown job")

// Input is one deployment's materialized view of a job: its properties and
// the links it consumes.
type Input struct {
	Properties map[string]any            `yaml:"properties"`
	Links      map[string]discovery.Link `yaml:"links"`
}

func (in Input) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Links, validation.Each()),
	)
}

// ParseInput decodes a YAML input document.
func ParseInput(data []byte) (Input, error) {
	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("parsing render input: %w", err)
	}
	return in, nil
}

// Request asks for one job to be rendered.
type Request struct {
	Job   string
	Input Input
}

func (r Request) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Job, validation.Required, validation.In(assembler.ServerJob, assembler.ClientJob)),
		validation.Field(&r.Input),
	)
}

type File struct {
	Name    string
	Content []byte
}

// Output holds every file of one rendered job.
type Output struct {
	Job   string
	Files []File
}

type Options struct {
	Namespace  string
	ClientLink string
	Logger     *slog.Logger
	Collector  *metrics.Collector
}

type Renderer struct {
	namespace  string
	clientLink string
	logger     *slog.Logger
	collector  *metrics.Collector
	assembler  *assembler.Assembler
}

func New(opts Options) *Renderer {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.ClientLink == "" {
		opts.ClientLink = DefaultClientLink
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Renderer{
		namespace:  opts.Namespace,
		clientLink: opts.ClientLink,
		logger:     opts.Logger,
		collector:  opts.Collector,
		assembler:  assembler.New(endpoints.NewResolver(opts.Logger)),
	}
}

func (r *Renderer) Namespace() string { return r.namespace }

// Render resolves one job. Either every file of the job is returned or none.
func (r *Renderer) Render(ctx context.Context, req Request) (Output, error) {
	job := req.Job
	if !isKnownJob(job) {
		job = UnknownJob
	}

	start := time.Now()
	r.collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRenderStarted,
		Timestamp: start,
		Job:       job,
	})

	out, err := r.render(ctx, req)

	duration := time.Since(start)
	if err != nil {
		reason := Reason(err)
		r.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventRenderFailed,
			Timestamp: time.Now(),
			Job:       job,
			Duration:  duration,
			Reason:    reason,
		})
		r.logger.Debug("Render failed",
			slog.String("job", req.Job),
			slog.String("reason", reason),
			slog.Any("err", err))
		return Output{}, err
	}

	r.collector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRenderSucceeded,
		Timestamp: time.Now(),
		Job:       job,
		Duration:  duration,
	})
	r.logger.Debug("Rendered job",
		slog.String("job", req.Job),
		slog.Int("files", len(out.Files)),
		slog.Duration("duration", duration))

	return out, nil
}

func (r *Renderer) render(ctx context.Context, req Request) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	if err := req.Validate(); err != nil {
		if !isKnownJob(req.Job) {
			return Output{}, fmt.Errorf("%w %q", ErrUnknownJob, req.Job)
		}
		return Output{}, &InputError{Err: err}
	}

	bag, err := properties.FromMap(req.Input.Properties, r.namespace, properties.JobDefaults())
	if err != nil {
		return Output{}, err
	}

	switch req.Job {
	case assembler.ServerJob:
		return r.renderServer(bag)
	default:
		return r.renderClient(ctx, bag, req.Input)
	}
}

func (r *Renderer) renderServer(bag properties.Bag) (Output, error) {
	cfg, err := r.assembler.Server(bag)
	if err != nil {
		return Output{}, err
	}
	manifest, err := r.assembler.ProcessManifest(bag)
	if err != nil {
		return Output{}, err
	}

	cfgData, err := assembler.Marshal(cfg)
	if err != nil {
		return Output{}, err
	}
	manifestData, err := assembler.Marshal(manifest)
	if err != nil {
		return Output{}, err
	}

	return Output{
		Job: assembler.ServerJob,
		Files: []File{
			{Name: ServerConfigFile, Content: cfgData},
			{Name: ProcessConfigFile, Content: manifestData},
		},
	}, nil
}

func (r *Renderer) renderClient(ctx context.Context, bag properties.Bag, in Input) (Output, error) {
	provider := discovery.NewStaticProvider(in.Links)

	discovered, err := provider.Endpoints(ctx, r.clientLink)
	if err != nil {
		return Output{}, &InputError{Err: err}
	}

	var linkProps map[string]any
	if link, ok := provider.Link(r.clientLink); ok {
		linkProps = link.Properties
	}
	linkBag, err := properties.FromMap(linkProps, r.namespace, nil)
	if err != nil {
		return Output{}, err
	}

	cfg, err := r.assembler.Client(bag, assembler.ClientInputs{
		Discovered:     discovered,
		LinkProperties: linkBag,
	})
	if err != nil {
		return Output{}, err
	}

	data, err := assembler.Marshal(cfg)
	if err != nil {
		return Output{}, err
	}

	return Output{
		Job:   assembler.ClientJob,
		Files: []File{{Name: ClientConfigFile, Content: data}},
	}, nil
}

// RenderAll renders independent jobs concurrently. Results keep request
// order; the first failure cancels the remaining renders.
func (r *Renderer) RenderAll(ctx context.Context, reqs []Request) ([]Output, error) {
	outputs := make([]Output, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			out, err := r.Render(gctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", req.Job, err)
			}
			outputs[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outputs, nil
}

// InputError marks a malformed input document, as opposed to a resolution
// failure of well-formed input.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return "invalid render input: " + e.Err.Error() }

func (e *InputError) Unwrap() error { return e.Err }

// Reason classifies a render error for metrics and HTTP status mapping.
func Reason(err error) string {
	var (
		missing  *properties.MissingPropertyError
		mismatch *properties.TypeMismatchError
		invalid  *InputError
	)

	switch {
	case errors.As(err, &missing):
		return ReasonMissingProperty
	case errors.As(err, &mismatch):
		return ReasonTypeMismatch
	case errors.Is(err, endpoints.ErrNoEndpoints):
		return ReasonNoEndpoints
	case errors.As(err, &invalid), errors.Is(err, ErrUnknownJob):
		return ReasonInvalidInput
	default:
		return ReasonOther
	}
}

func isKnownJob(job string) bool {
	return job == assembler.ServerJob || job == assembler.ClientJob
}
