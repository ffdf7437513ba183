package domain

import (
	"errors"
	"strings"
)

// UploadedImage is a decoded inbound photo. It is never mutated after decode.
type UploadedImage struct {
	Data []byte
	MIME string
}

// Extension maps the MIME type to a file extension accepted by the provider.
func (u UploadedImage) Extension() string {
	switch strings.ToLower(u.MIME) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}

// ImageRef points at a produced image. Exactly one of URL or B64 is set.
type ImageRef struct {
	URL string
	B64 string
}

var errImageRefEmpty = errors.New("image reference has neither url nor inline data")
var errImageRefAmbiguous = errors.New("image reference has both url and inline data")

// Validate enforces the exclusive-or between URL and B64.
func (r ImageRef) Validate() error {
	hasURL := strings.TrimSpace(r.URL) != ""
	hasB64 := strings.TrimSpace(r.B64) != ""
	switch {
	case hasURL && hasB64:
		return errImageRefAmbiguous
	case !hasURL && !hasB64:
		return errImageRefEmpty
	}
	return nil
}

// DataURL renders the reference the way clients consume it: the remote URL or
// an inline PNG data URL.
func (r ImageRef) DataURL() string {
	if r.URL != "" {
		return r.URL
	}
	return "data:image/png;base64," + r.B64
}

// Stage names a fallback step of the transformation pipeline.
type Stage string

const (
	StageEdit       Stage = "edit"
	StageVariation  Stage = "variation"
	StageGeneration Stage = "generation"
)

// ParseStage accepts the stage names used in configuration.
func ParseStage(s string) (Stage, bool) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case StageEdit:
		return StageEdit, true
	case StageVariation:
		return StageVariation, true
	case StageGeneration:
		return StageGeneration, true
	}
	return "", false
}

// ImageOptions tunes a single image call. Empty fields use client defaults.
type ImageOptions struct {
	Model   string
	Quality string
	Size    string
}

// TransformResult is what a successful pipeline run hands back to the caller.
type TransformResult struct {
	ID       string
	Image    ImageRef
	Action   TennisAction
	Analysis *PersonAnalysis
	Method   Stage
}
