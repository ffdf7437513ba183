package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"tennis-transform/internal/domain"
	"tennis-transform/internal/imagegen"
	"tennis-transform/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("openai: api key is required")

const (
	defaultBaseURL           = "https://api.openai.com/v1"
	defaultAnalysisModel     = "gpt-4o-mini"
	defaultImageModel        = "gpt-image-1"
	defaultSize              = "1024x1024"
	defaultAnalysisMaxTokens = 200
	defaultCallTimeout       = 45 * time.Second
)

// Options configures the OpenAI client.
type Options struct {
	APIKey            string
	BaseURL           string
	Organization      string
	AnalysisModel     string
	ImageModel        string
	Size              string
	Quality           string
	AnalysisDetail    string
	AnalysisMaxTokens int
	CallTimeout       time.Duration
	HTTPClient        *http.Client
	Logger            *infra.Logger
}

// Client issues vision, edit, variation and generation calls. It is safe for
// concurrent use; connections are pooled by the underlying http.Client.
type Client struct {
	api               *openai.Client
	analysisModel     string
	imageModel        string
	size              string
	quality           string
	analysisDetail    openai.ImageURLDetail
	analysisMaxTokens int
	callTimeout       time.Duration
	logger            *infra.Logger
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(coalesce(opts.BaseURL, defaultBaseURL), "/")
	if org := strings.TrimSpace(opts.Organization); org != "" {
		cfg.OrgID = org
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	maxTokens := opts.AnalysisMaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnalysisMaxTokens
	}
	detail := openai.ImageURLDetailLow
	switch strings.ToLower(strings.TrimSpace(opts.AnalysisDetail)) {
	case "high":
		detail = openai.ImageURLDetailHigh
	case "auto":
		detail = openai.ImageURLDetailAuto
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		api:               openai.NewClientWithConfig(cfg),
		analysisModel:     coalesce(opts.AnalysisModel, defaultAnalysisModel),
		imageModel:        coalesce(opts.ImageModel, defaultImageModel),
		size:              coalesce(opts.Size, defaultSize),
		quality:           strings.TrimSpace(opts.Quality),
		analysisDetail:    detail,
		analysisMaxTokens: maxTokens,
		callTimeout:       callTimeout,
		logger:            logger,
	}, nil
}

// Analyze asks the vision model to describe the person in img. Content that is
// not a JSON object with at least one known attribute is a provider error.
func (c *Client) Analyze(ctx context.Context, img domain.UploadedImage, lang string) (domain.PersonAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.analysisModel,
		MaxTokens:   c.analysisMaxTokens,
		Temperature: 0.3,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: imagegen.AnalysisSystemInstruction()},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: imagegen.AnalysisUserInstruction(lang)},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imagegen.EncodeDataURL(img),
							Detail: c.analysisDetail,
						},
					},
				},
			},
		},
	}
	started := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.PersonAnalysis{}, c.providerError("analyze", err)
	}
	if len(resp.Choices) == 0 {
		return domain.PersonAnalysis{}, domain.NewError(domain.ErrProvider, "analyze: no choices in response", nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return domain.PersonAnalysis{}, domain.NewError(domain.ErrProvider, "analyze: empty response", nil)
	}
	analysis, err := parseAnalysis(content)
	if err != nil {
		return domain.PersonAnalysis{}, domain.NewError(domain.ErrProvider, "analyze: unparseable response", err)
	}
	if analysis.IsZero() {
		return domain.PersonAnalysis{}, domain.NewError(domain.ErrProvider, "analyze: response has no attributes", nil)
	}
	c.logger.Debug().
		Str("model", c.analysisModel).
		Dur("elapsed", time.Since(started)).
		Msg("person analyzed")
	return analysis, nil
}

// EditImage sends the source photo with instructions to the edits endpoint.
func (c *Client) EditImage(ctx context.Context, img domain.UploadedImage, prompt string, opts domain.ImageOptions) (domain.ImageRef, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.ImageRef{}, domain.NewError(domain.ErrProvider, "edit: prompt is required", nil)
	}
	if len(img.Data) == 0 {
		return domain.ImageRef{}, domain.NewError(domain.ErrProvider, "edit: source image is required", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.api.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:   imagePart(img),
		Prompt:  prompt,
		Model:   coalesce(opts.Model, c.imageModel),
		N:       1,
		Size:    coalesce(opts.Size, c.size),
		Quality: coalesce(opts.Quality, c.quality),
	})
	if err != nil {
		return domain.ImageRef{}, c.providerError("edit", err)
	}
	return firstImage("edit", resp)
}

// GenerateVariation asks for a variation of the source photo. The variations
// endpoint takes no text guidance and always runs its default model
// (dall-e-2); opts.Model is ignored.
func (c *Client) GenerateVariation(ctx context.Context, img domain.UploadedImage, opts domain.ImageOptions) (domain.ImageRef, error) {
	if len(img.Data) == 0 {
		return domain.ImageRef{}, domain.NewError(domain.ErrProvider, "variation: source image is required", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.api.CreateVariImage(ctx, openai.ImageVariRequest{
		Image: imagePart(img),
		N:     1,
		Size:  coalesce(opts.Size, c.size),
	})
	if err != nil {
		return domain.ImageRef{}, c.providerError("variation", err)
	}
	return firstImage("variation", resp)
}

// GenerateFromPrompt creates an image from text alone.
func (c *Client) GenerateFromPrompt(ctx context.Context, prompt string, opts domain.ImageOptions) (domain.ImageRef, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.ImageRef{}, domain.NewError(domain.ErrProvider, "generation: prompt is required", nil)
	}
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:  prompt,
		Model:   coalesce(opts.Model, c.imageModel),
		N:       1,
		Size:    coalesce(opts.Size, c.size),
		Quality: coalesce(opts.Quality, c.quality),
	})
	if err != nil {
		return domain.ImageRef{}, c.providerError("generation", err)
	}
	return firstImage("generation", resp)
}

// Models reports the configured model names, mostly for startup logs.
func (c *Client) Models() (analysis, image string) {
	return c.analysisModel, c.imageModel
}

func firstImage(op string, resp openai.ImageResponse) (domain.ImageRef, error) {
	for _, d := range resp.Data {
		ref := domain.ImageRef{URL: strings.TrimSpace(d.URL)}
		if ref.URL == "" {
			ref.B64 = strings.TrimSpace(d.B64JSON)
		}
		if err := ref.Validate(); err == nil {
			return ref, nil
		}
	}
	return domain.ImageRef{}, domain.NewError(domain.ErrProvider, op+": no image data in response", nil)
}

func (c *Client) providerError(op string, err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	detail := op + ": request failed"
	switch {
	case errors.As(err, &apiErr):
		detail = fmt.Sprintf("%s: status %d: %s", op, apiErr.HTTPStatusCode, apiErr.Message)
	case errors.As(err, &reqErr):
		detail = fmt.Sprintf("%s: status %d", op, reqErr.HTTPStatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		detail = op + ": request timed out"
	case errors.Is(err, context.Canceled):
		detail = op + ": request canceled"
	}
	c.logger.Debug().Err(err).Str("op", op).Msg("provider call failed")
	return domain.NewError(domain.ErrProvider, detail, err)
}

// imagePart names the multipart file and sets its Content-Type; the edits and
// variations endpoints reject parts without one.
func imagePart(img domain.UploadedImage) io.Reader {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return openai.WrapReader(bytes.NewReader(img.Data), "image."+img.Extension(), mime)
}
