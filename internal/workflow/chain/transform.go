package chain

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "prism-docs-api/internal/domain/service"
	wfmodel "prism-docs-api/internal/workflow/model"
	wfnode "prism-docs-api/internal/workflow/node"
	workflowport "prism-docs-api/internal/workflow/port"
	workflowprompt "prism-docs-api/internal/workflow/prompt"
	"prism-docs-api/pkg/logger"
)

// TransformChain 把抽取后的素材转换为内容模型（文档/幻灯片/思维导图）。
type TransformChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.TransformInput, *schema.Message]
	chainErr  error
}

func NewTransformChain(factory workflowport.ChatModelFactory) *TransformChain {
	return &TransformChain{factory: factory}
}

func (c *TransformChain) Invoke(ctx context.Context, in *wfmodel.TransformInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type transformChainState struct {
	In       *wfmodel.TransformInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *TransformChain) getChain() (compose.Runnable[*wfmodel.TransformInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *TransformChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.TransformInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.TransformInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.TransformInput) (*transformChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if len(in.Sources) == 0 {
				return nil, fmt.Errorf("no source material")
			}
			return &transformChainState{In: in}, nil
		}),
		compose.WithNodeName("transform.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *transformChainState) (*transformChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatTransformMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("transform.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *transformChainState) (*transformChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "generation_transform", strings.TrimSpace(st.In.Credential.Provider))
			chatModel, err := c.factory.Get(ctx, st.In.Credential)
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildTransformModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Credential.Provider),
					"model", strings.TrimSpace(st.In.Credential.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildTransformModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("transform.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *transformChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("transform.finalize"),
	)

	return chain.Compile(ctx)
}

func formatTransformMessages(ctx context.Context, in *wfmodel.TransformInput) ([]*schema.Message, error) {
	id, err := transformPromptID(in.Kind)
	if err != nil {
		return nil, err
	}
	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}

	audience := strings.TrimSpace(in.Audience)
	if audience == "" {
		audience = "general professional audience"
	}
	imageStyle := strings.TrimSpace(in.ImageStyle)
	if imageStyle == "" {
		imageStyle = "clean, professional illustration"
	}
	maxSlides := in.MaxSlides
	if maxSlides <= 0 {
		maxSlides = 10
	}
	maxSummaryPoints := in.MaxSummaryPoints
	if maxSummaryPoints <= 0 {
		maxSummaryPoints = 5
	}

	vars := map[string]any{
		"audience":           audience,
		"image_style":        imageStyle,
		"max_slides":         strconv.Itoa(maxSlides),
		"max_summary_points": strconv.Itoa(maxSummaryPoints),
		"source_count":       strconv.Itoa(len(in.Sources)),
		"sources_block":      wfnode.BuildSourcesBlock(in.Sources),
	}
	return tpl.Format(ctx, vars)
}

func transformPromptID(kind string) (workflowprompt.PromptID, error) {
	switch strings.TrimSpace(kind) {
	case "pdf", "html":
		return workflowprompt.PromptTransformDocumentV1, nil
	case "pptx":
		return workflowprompt.PromptTransformSlidesV1, nil
	case "mindmap":
		return workflowprompt.PromptTransformMindmapV1, nil
	default:
		return "", fmt.Errorf("unsupported output kind: %s", kind)
	}
}

func buildTransformModelOptions(in *wfmodel.TransformInput, enableSchema bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Credential.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Credential.Model)))
	}

	if enableSchema {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "content_model",
					"strict": false,
					"schema": contentModelJSONSchema(strings.TrimSpace(in.Kind)),
				},
			},
		}))
	}

	return opts
}

func contentModelJSONSchema(kind string) map[string]any {
	properties := map[string]any{
		"title":   map[string]any{"type": "string"},
		"summary": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}
	required := []any{"title"}

	switch kind {
	case "pptx":
		properties["slides"] = map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"title", "bullets"},
				"properties": map[string]any{
					"title":         map[string]any{"type": "string"},
					"bullets":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"speaker_notes": map[string]any{"type": "string"},
				},
			},
		}
		required = append(required, "slides")
	case "mindmap":
		properties["nodes"] = mindmapNodeJSONSchema(6)
		required = append(required, "nodes")
	default:
		properties["sections"] = map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"title", "content"},
				"properties": map[string]any{
					"title":      map[string]any{"type": "string"},
					"content":    map[string]any{"type": "string"},
					"image_hint": map[string]any{"type": "string"},
				},
			},
		}
		required = append(required, "sections")
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           properties,
	}
}

// mindmapNodeJSONSchema 展开到固定深度，json_schema 不支持真正的递归引用时也能工作。
func mindmapNodeJSONSchema(depth int) map[string]any {
	node := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"id", "label", "children"},
		"properties": map[string]any{
			"id":       map[string]any{"type": "string"},
			"label":    map[string]any{"type": "string"},
			"children": map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
		},
	}
	if depth <= 1 {
		return node
	}
	node["properties"].(map[string]any)["children"] = map[string]any{
		"type":  "array",
		"items": mindmapNodeJSONSchema(depth - 1),
	}
	return node
}
