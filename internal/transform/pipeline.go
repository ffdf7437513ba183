package transform

import (
	"fmt"
	"sort"
	"strings"

	"tennis-transform/internal/domain"
)

// Pipeline declares which steps a transformation runs and in which order.
type Pipeline struct {
	Name         string
	DoAnalysis   bool
	Stages       []domain.Stage
	StageOptions map[domain.Stage]domain.ImageOptions
}

// Options returns the per-stage overrides, or the zero value.
func (p Pipeline) Options(stage domain.Stage) domain.ImageOptions {
	if p.StageOptions == nil {
		return domain.ImageOptions{}
	}
	return p.StageOptions[stage]
}

// Validate rejects pipelines with no stages or a repeated stage.
func (p Pipeline) Validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline %q has no stages", p.Name)
	}
	seen := make(map[domain.Stage]struct{}, len(p.Stages))
	for _, s := range p.Stages {
		if _, ok := domain.ParseStage(string(s)); !ok {
			return fmt.Errorf("pipeline %q: unknown stage %q", p.Name, s)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("pipeline %q: stage %q listed twice", p.Name, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

var presets = map[string]Pipeline{
	"full": {
		Name:       "full",
		DoAnalysis: true,
		Stages:     []domain.Stage{domain.StageEdit, domain.StageVariation, domain.StageGeneration},
	},
	"identity": {
		Name:   "identity",
		Stages: []domain.Stage{domain.StageEdit, domain.StageVariation, domain.StageGeneration},
	},
	"fast": {
		Name:       "fast",
		DoAnalysis: true,
		Stages:     []domain.Stage{domain.StageGeneration},
		StageOptions: map[domain.Stage]domain.ImageOptions{
			domain.StageGeneration: {Quality: "medium"},
		},
	},
}

// PresetNames lists the pipelines PipelineByName understands.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PipelineByName returns a copy of a preset pipeline.
func PipelineByName(name string) (Pipeline, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Pipeline{}, fmt.Errorf("unknown pipeline %q (known: %s)", name, strings.Join(PresetNames(), ", "))
	}
	p.Stages = append([]domain.Stage(nil), p.Stages...)
	if p.StageOptions != nil {
		opts := make(map[domain.Stage]domain.ImageOptions, len(p.StageOptions))
		for k, v := range p.StageOptions {
			opts[k] = v
		}
		p.StageOptions = opts
	}
	return p, nil
}

// WithStages replaces the stage order of p with the named stages.
func WithStages(p Pipeline, names []string) (Pipeline, error) {
	if len(names) == 0 {
		return p, nil
	}
	stages := make([]domain.Stage, 0, len(names))
	for _, n := range names {
		s, ok := domain.ParseStage(n)
		if !ok {
			return Pipeline{}, fmt.Errorf("unknown stage %q", n)
		}
		stages = append(stages, s)
	}
	p.Stages = stages
	return p, p.Validate()
}
