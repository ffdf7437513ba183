package transform

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tennis-transform/internal/domain"
	"tennis-transform/internal/imagegen"
	"tennis-transform/internal/infra"
)

// Client is the remote provider surface the orchestrator drives.
type Client interface {
	Analyze(ctx context.Context, img domain.UploadedImage, lang string) (domain.PersonAnalysis, error)
	EditImage(ctx context.Context, img domain.UploadedImage, prompt string, opts domain.ImageOptions) (domain.ImageRef, error)
	GenerateVariation(ctx context.Context, img domain.UploadedImage, opts domain.ImageOptions) (domain.ImageRef, error)
	GenerateFromPrompt(ctx context.Context, prompt string, opts domain.ImageOptions) (domain.ImageRef, error)
}

// Options configures an Orchestrator.
type Options struct {
	Client   Client
	Pipeline Pipeline
	// Budget bounds a whole transformation. Zero leaves only the caller's deadline.
	Budget time.Duration
	// MinStageBudget is the least remaining time needed to start a step.
	MinStageBudget time.Duration
	MaxImageBytes  int
	Language       string
	Logger         *infra.Logger
	Observer       Observer
	Rand           *rand.Rand
}

// Request is one inbound transformation.
type Request struct {
	// Image is a data URL or bare base64 payload.
	Image    string
	Language string
}

// Orchestrator runs the analyze / edit / variation / generation fallback chain.
type Orchestrator struct {
	client         Client
	pipeline       Pipeline
	budget         time.Duration
	minStageBudget time.Duration
	maxImageBytes  int
	language       string
	logger         *infra.Logger
	observer       Observer

	randMu sync.Mutex
	rand   *rand.Rand
}

// New validates opts and builds an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Client == nil {
		return nil, errors.New("transform: client is required")
	}
	if err := opts.Pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	o := &Orchestrator{
		client:         opts.Client,
		pipeline:       opts.Pipeline,
		budget:         opts.Budget,
		minStageBudget: opts.MinStageBudget,
		maxImageBytes:  opts.MaxImageBytes,
		language:       opts.Language,
		logger:         opts.Logger,
		observer:       opts.Observer,
		rand:           opts.Rand,
	}
	if o.maxImageBytes <= 0 {
		o.maxImageBytes = imagegen.DefaultMaxImageBytes
	}
	if o.logger == nil {
		o.logger = infra.NopLogger()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o, nil
}

// Pipeline reports the configured pipeline.
func (o *Orchestrator) Pipeline() Pipeline { return o.pipeline }

// Transform decodes the uploaded photo and walks the pipeline until a stage
// produces an image. Only invalid input, exhaustion of every stage, or a
// deadline breach are returned as errors.
func (o *Orchestrator) Transform(ctx context.Context, req Request) (result *domain.TransformResult, err error) {
	started := time.Now()
	defer func() { o.observer.RequestFinished(result, err, time.Since(started)) }()

	if strings.TrimSpace(req.Image) == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "No image provided", nil)
	}
	img, err := imagegen.DecodeDataURL(req.Image, o.maxImageBytes)
	if err != nil {
		return nil, err
	}

	if o.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.budget)
		defer cancel()
	}

	lang := req.Language
	if strings.TrimSpace(lang) == "" {
		lang = o.language
	}
	res := &domain.TransformResult{ID: uuid.NewString(), Action: o.pickAction()}
	log := o.logger.With().
		Str("transform_id", res.ID).
		Str("pipeline", o.pipeline.Name).
		Logger()

	if o.pipeline.DoAnalysis {
		if err := o.checkBudget(ctx, stageAnalysis); err != nil {
			return nil, err
		}
		stageStart := time.Now()
		analysis, aerr := callWithDeadline(ctx, func(ctx context.Context) (domain.PersonAnalysis, error) {
			return o.client.Analyze(ctx, img, lang)
		})
		o.observer.StageFinished(stageAnalysis, aerr, time.Since(stageStart))
		if aerr != nil {
			if cerr := contextError(ctx, stageAnalysis); cerr != nil {
				return nil, cerr
			}
			log.Warn().Err(aerr).Msg("analysis failed, continuing without description")
		} else {
			res.Analysis = &analysis
			log.Debug().Str("gender", analysis.Gender).Str("age", analysis.Age).Msg("analysis complete")
		}
	}

	var lastErr error
	for _, stage := range o.pipeline.Stages {
		if err := o.checkBudget(ctx, string(stage)); err != nil {
			return nil, err
		}
		stageStart := time.Now()
		ref, serr := callWithDeadline(ctx, func(ctx context.Context) (domain.ImageRef, error) {
			return o.runStage(ctx, stage, img, res.Analysis, res.Action)
		})
		if serr == nil {
			if verr := ref.Validate(); verr != nil {
				serr = domain.NewError(domain.ErrProvider, string(stage)+": "+verr.Error(), nil)
			}
		}
		elapsed := time.Since(stageStart)
		o.observer.StageFinished(string(stage), serr, elapsed)
		if serr == nil {
			res.Image = ref
			res.Method = stage
			log.Info().Str("method", string(stage)).Dur("elapsed", time.Since(started)).Msg("transform succeeded")
			return res, nil
		}
		if cerr := contextError(ctx, string(stage)); cerr != nil {
			return nil, cerr
		}
		lastErr = serr
		log.Warn().Err(serr).Str("stage", string(stage)).Dur("elapsed", elapsed).Msg("stage failed")
	}

	log.Error().Err(lastErr).Msg("all stages failed")
	return nil, domain.NewError(domain.ErrPipelineExhausted, domain.Detail(lastErr), lastErr)
}

func (o *Orchestrator) runStage(ctx context.Context, stage domain.Stage, img domain.UploadedImage, analysis *domain.PersonAnalysis, action domain.TennisAction) (domain.ImageRef, error) {
	opts := o.pipeline.Options(stage)
	switch stage {
	case domain.StageEdit:
		return o.client.EditImage(ctx, img, imagegen.Build(stage, analysis, action), opts)
	case domain.StageVariation:
		return o.client.GenerateVariation(ctx, img, opts)
	case domain.StageGeneration:
		return o.client.GenerateFromPrompt(ctx, imagegen.Build(stage, analysis, action), opts)
	}
	return domain.ImageRef{}, fmt.Errorf("unknown stage %q", stage)
}

// checkBudget refuses to start a step once too little time is left.
func (o *Orchestrator) checkBudget(ctx context.Context, step string) error {
	if err := contextError(ctx, step); err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	if remaining := time.Until(deadline); remaining <= 0 || remaining < o.minStageBudget {
		return domain.NewError(domain.ErrTimeout, fmt.Sprintf("not enough time left to start %s (%s remaining)", step, remaining.Round(time.Millisecond)), context.DeadlineExceeded)
	}
	return nil
}

func (o *Orchestrator) pickAction() domain.TennisAction {
	o.randMu.Lock()
	defer o.randMu.Unlock()
	return domain.RandomAction(o.rand)
}

// contextError maps a finished ctx onto the error taxonomy; nil while ctx is live.
func contextError(ctx context.Context, step string) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewError(domain.ErrTimeout, "request deadline exceeded during "+step, err)
	default:
		return fmt.Errorf("transform canceled during %s: %w", step, err)
	}
}

type outcome[T any] struct {
	val T
	err error
}

// callWithDeadline returns as soon as fn does or ctx ends, whichever is first.
// An abandoned fn keeps running in the background until it notices ctx.
func callWithDeadline[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	done := make(chan outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- outcome[T]{val: v, err: err}
	}()
	select {
	case out := <-done:
		return out.val, out.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
