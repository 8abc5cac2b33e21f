// Package provider implements the injected execution function over the
// Anthropic Messages API, with an optional AWS Bedrock path. The engine
// treats it as a black box returning raw text for a prompt.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/kestrelworks/warden/internal/compose"
	"github.com/kestrelworks/warden/pkg/models"
)

// Client wraps the Anthropic SDK client.
type Client struct {
	inner     anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	// Model is the Claude model to use.
	Model string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// MaxTokens caps the response length per call; 0 means 4096.
	MaxTokens int
}

// NewClient creates a new Anthropic API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &Client{inner: anthropic.NewClient(opts...), model: model, maxTokens: maxTokens}, nil
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format: us.anthropic.{model}-v1:0.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	if strings.HasPrefix(string(model), "us.anthropic") {
		return model
	}
	return anthropic.Model("us.anthropic." + string(model) + "-v1:0")
}

// Complete sends a single prompt and returns the response text.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("messages call: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			out.WriteString(variant.Text)
		}
	}
	return out.String(), nil
}

// envelopeSystemPrompt instructs the model to answer in the envelope shape.
const envelopeSystemPrompt = `Respond with a single JSON object of the form
{"ok": true, "meta": {"confidence": <0..1>, "risk": "none|low|medium|high", "explain": "<short justification>"}, "data": {...}}
or, on failure,
{"ok": false, "meta": {...}, "error": {"code": "<code>", "message": "<message>"}}.
Do not include any text outside the JSON object.`

// ExecFunc returns a composition execution function backed by this
// client. It renders the task prompt with the call arguments and
// appends serialized child and sibling results when present.
func (c *Client) ExecFunc() compose.ExecFunc {
	return func(ctx context.Context, def *models.TaskDefinition, input map[string]any) (string, error) {
		arguments, _ := input["arguments"].(string)
		prompt := compose.RenderPrompt(def.Prompt, arguments)

		for _, section := range []string{"children", "siblings"} {
			if part, ok := input[section]; ok {
				serialized, err := json.Marshal(part)
				if err != nil {
					return "", fmt.Errorf("serialize %s: %w", section, err)
				}
				prompt += fmt.Sprintf("\n\n<%s>\n%s\n</%s>", section, serialized, section)
			}
		}

		return c.Complete(ctx, envelopeSystemPrompt, prompt)
	}
}
