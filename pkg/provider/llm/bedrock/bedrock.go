// Package bedrock provides an LLM provider backed by the Amazon Bedrock
// Converse API.
//
// The Converse API is the primary backend for simwatch: it exposes uniform
// tool calling across Bedrock-hosted models, so the provider only translates
// between [llm.ContentBlock] values and the SDK's content-block unions.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/jmallard/simwatch/pkg/provider/llm"
)

// converseAPI is the subset of the bedrockruntime client used by Provider.
// Declared as an interface so tests can substitute a stub client.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Provider implements llm.Provider using the Bedrock Converse API.
type Provider struct {
	client  converseAPI
	modelID string
}

// config holds optional configuration for the provider.
type config struct {
	region string
	client converseAPI
}

// Option is a functional option for Provider.
type Option func(*config)

// WithRegion overrides the AWS region resolved from the environment.
func WithRegion(region string) Option {
	return func(c *config) {
		c.region = region
	}
}

// WithClient injects a pre-built bedrockruntime client. Intended for tests;
// when set, New skips AWS configuration loading entirely.
func WithClient(client converseAPI) Option {
	return func(c *config) {
		c.client = client
	}
}

// New constructs a Bedrock Provider for the given model identifier.
//
// Credentials and region are resolved through the default AWS configuration
// chain (environment, shared config, IAM role), matching how the Lambda
// deployment authenticates.
func New(ctx context.Context, modelID string, opts ...Option) (*Provider, error) {
	if modelID == "" {
		return nil, fmt.Errorf("bedrock: modelID must not be empty")
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.client != nil {
		return &Provider{client: cfg.client, modelID: modelID}, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}

	return &Provider{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: modelID,
	}, nil
}

// NewFromConfig constructs a Provider from an already-resolved AWS config.
func NewFromConfig(awsCfg aws.Config, modelID string) (*Provider, error) {
	if modelID == "" {
		return nil, fmt.Errorf("bedrock: modelID must not be empty")
	}
	return &Provider{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: modelID,
	}, nil
}

// Converse implements llm.Provider.
func (p *Provider) Converse(ctx context.Context, req llm.Request) (*llm.Response, error) {
	input, err := p.buildInput(req)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindValidation, Provider: "bedrock", Err: err}
	}

	out, err := p.client.Converse(ctx, input)
	if err != nil {
		return nil, classify(err)
	}

	msg, err := convertOutput(out.Output)
	if err != nil {
		return nil, &llm.Error{Kind: llm.KindUnknown, Provider: "bedrock", Err: err}
	}

	resp := &llm.Response{
		StopReason: llm.StopReason(out.StopReason),
		Message:    msg,
	}
	if out.Usage != nil {
		resp.Usage = llm.Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:  int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}
	return resp, nil
}

// buildInput converts an llm.Request into a ConverseInput.
func (p *Provider) buildInput(req llm.Request) (*bedrockruntime.ConverseInput, error) {
	msgs := make([]brtypes.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		bm, err := convertMessage(m)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, bm)
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(p.modelID),
		Messages: msgs,
	}

	if req.System != "" {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: req.System},
		}
	}

	if len(req.Tools) > 0 {
		tools := make([]brtypes.Tool, 0, len(req.Tools))
		for _, td := range req.Tools {
			tools = append(tools, &brtypes.ToolMemberToolSpec{
				Value: brtypes.ToolSpecification{
					Name:        aws.String(td.Name),
					Description: aws.String(td.Description),
					InputSchema: &brtypes.ToolInputSchemaMemberJson{
						Value: document.NewLazyDocument(td.InputSchema),
					},
				},
			})
		}
		input.ToolConfig = &brtypes.ToolConfiguration{Tools: tools}
	}

	inf := &brtypes.InferenceConfiguration{}
	if req.Inference.MaxTokens > 0 {
		inf.MaxTokens = aws.Int32(int32(req.Inference.MaxTokens))
	}
	if req.Inference.Temperature != 0 {
		inf.Temperature = aws.Float32(float32(req.Inference.Temperature))
	}
	if req.Inference.TopP != 0 {
		inf.TopP = aws.Float32(float32(req.Inference.TopP))
	}
	input.InferenceConfig = inf

	return input, nil
}

// convertMessage converts an llm.Message into the SDK message shape.
func convertMessage(m llm.Message) (brtypes.Message, error) {
	var role brtypes.ConversationRole
	switch m.Role {
	case llm.RoleUser:
		role = brtypes.ConversationRoleUser
	case llm.RoleAssistant:
		role = brtypes.ConversationRoleAssistant
	default:
		return brtypes.Message{}, fmt.Errorf("bedrock: unknown message role %q", m.Role)
	}

	content := make([]brtypes.ContentBlock, 0, len(m.Content))
	for _, b := range m.Content {
		switch v := b.(type) {
		case llm.TextBlock:
			content = append(content, &brtypes.ContentBlockMemberText{Value: v.Text})

		case llm.ToolUseBlock:
			var in map[string]any
			if len(v.Input) > 0 {
				if err := json.Unmarshal(v.Input, &in); err != nil {
					return brtypes.Message{}, fmt.Errorf("bedrock: tool-use input for %q is not a JSON object: %w", v.Name, err)
				}
			}
			content = append(content, &brtypes.ContentBlockMemberToolUse{
				Value: brtypes.ToolUseBlock{
					ToolUseId: aws.String(v.ID),
					Name:      aws.String(v.Name),
					Input:     document.NewLazyDocument(in),
				},
			})

		case llm.ToolResultBlock:
			status := brtypes.ToolResultStatusSuccess
			if v.IsError {
				status = brtypes.ToolResultStatusError
			}
			content = append(content, &brtypes.ContentBlockMemberToolResult{
				Value: brtypes.ToolResultBlock{
					ToolUseId: aws.String(v.ID),
					Status:    status,
					Content: []brtypes.ToolResultContentBlock{
						&brtypes.ToolResultContentBlockMemberText{Value: v.Content},
					},
				},
			})

		default:
			return brtypes.Message{}, fmt.Errorf("bedrock: unsupported content block %T", b)
		}
	}

	return brtypes.Message{Role: role, Content: content}, nil
}

// convertOutput converts the ConverseOutput union into an llm.Message.
func convertOutput(out brtypes.ConverseOutput) (llm.Message, error) {
	om, ok := out.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return llm.Message{}, fmt.Errorf("bedrock: unexpected converse output type %T", out)
	}

	msg := llm.Message{Role: llm.RoleAssistant}
	for _, b := range om.Value.Content {
		switch v := b.(type) {
		case *brtypes.ContentBlockMemberText:
			msg.Content = append(msg.Content, llm.TextBlock{Text: v.Value})

		case *brtypes.ContentBlockMemberToolUse:
			raw, err := v.Value.Input.MarshalSmithyDocument()
			if err != nil {
				return llm.Message{}, fmt.Errorf("bedrock: marshal tool-use input: %w", err)
			}
			msg.Content = append(msg.Content, llm.ToolUseBlock{
				ID:    aws.ToString(v.Value.ToolUseId),
				Name:  aws.ToString(v.Value.Name),
				Input: json.RawMessage(raw),
			})

		default:
			// Reasoning, image, and document blocks are not used by this
			// service; skip rather than fail so model upgrades stay safe.
			continue
		}
	}
	return msg, nil
}

// classify maps an SDK error onto the llm error taxonomy.
func classify(err error) error {
	kind := llm.KindUnknown

	if errors.Is(err, context.DeadlineExceeded) {
		kind = llm.KindTimeout
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnauthorizedException":
			kind = llm.KindAccessDenied
		case "ThrottlingException", "TooManyRequestsException":
			kind = llm.KindThrottled
		case "ModelTimeoutException":
			kind = llm.KindTimeout
		case "ValidationException":
			kind = llm.KindValidation
		case "ResourceNotFoundException":
			kind = llm.KindNotFound
		case "ServiceUnavailableException", "ModelNotReadyException", "InternalServerException":
			kind = llm.KindUnavailable
		}
	}

	return &llm.Error{Kind: kind, Provider: "bedrock", Err: err}
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
