package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/superdayz/studio-api/internal/config"
)

// Client wraps the Gemini API for every kind of content synthesis the studio
// offers. It is a thin shim: prompts go in, media or structured JSON comes
// out, and errors are returned verbatim for the caller to surface.
type Client struct {
	client     *genai.Client
	imageModel string
	videoModel string
	textModel  string
	log        *slog.Logger
}

type ImageRef struct {
	Data []byte
	MIME string
}

type Media struct {
	Data []byte
	MIME string
	URL  string
}

func NewClient(ctx context.Context, cfg config.Config, log *slog.Logger) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{
		client:     client,
		imageModel: cfg.ImageModel,
		videoModel: cfg.VideoModel,
		textModel:  cfg.TextModel,
		log:        log,
	}, nil
}

// GenerateImage produces a single image for the prompt, optionally
// conditioned on reference images.
func (c *Client) GenerateImage(ctx context.Context, prompt string, refs []ImageRef) (*Media, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	for _, ref := range refs {
		parts = append(parts, genai.NewPartFromBytes(ref.Data, ref.MIME))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.imageModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate image: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &Media{
					Data: part.InlineData.Data,
					MIME: part.InlineData.MIMEType,
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("no image in response")
}

// GenerateVideo starts a video job and polls until it settles, in the same
// create-then-poll shape the rest of the async generation APIs use.
func (c *Client) GenerateVideo(ctx context.Context, prompt string) (*Media, error) {
	op, err := c.client.Models.GenerateVideos(ctx, c.videoModel, prompt, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create video task: %w", err)
	}

	const pollInterval = 10 * time.Second
	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
		op, err = c.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, fmt.Errorf("poll video task: %w", err)
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, fmt.Errorf("no video in response")
	}
	video := op.Response.GeneratedVideos[0].Video
	if video == nil {
		return nil, fmt.Errorf("empty video result")
	}
	media := &Media{URL: video.URI, MIME: video.MIMEType}
	if len(video.VideoBytes) > 0 {
		media.Data = video.VideoBytes
	}
	if media.MIME == "" {
		media.MIME = "video/mp4"
	}
	return media, nil
}

// GenerateJSON asks the text model for a structured payload and returns the
// raw JSON document.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate json: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response")
	}
	return text, nil
}

// GenerateText produces plain marketing text for the prompt.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.textModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response")
	}
	return text, nil
}

// StreamText streams a conversational reply chunk by chunk. Chunks arrive in
// order and the callback is invoked once per chunk.
func (c *Client) StreamText(ctx context.Context, prompt string, onChunk func(string)) error {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	for chunk, err := range c.client.Models.GenerateContentStream(ctx, c.textModel, contents, nil) {
		if err != nil {
			return fmt.Errorf("stream text: %w", err)
		}
		if text := chunk.Text(); text != "" {
			onChunk(text)
		}
	}
	return nil
}

// SuggestTags asks the text model for a short tag list describing a
// creation. Best effort: callers treat any error as "no tags".
func (c *Client) SuggestTags(ctx context.Context, description string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Suggest 3 to 5 short lowercase tags categorizing this marketing asset. Respond with a JSON array of strings only.\n\nAsset: %s",
		description,
	)
	raw, err := c.GenerateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}
	return tags, nil
}
