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

// CanvasQuestionChain 生成画布会话的下一个问题；历史为空时生成首问。
// 后续轮次的输出可能是问题，也可能是 suggest_complete，由调用方解析。
type CanvasQuestionChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.CanvasQuestionInput, *schema.Message]
	chainErr  error
}

func NewCanvasQuestionChain(factory workflowport.ChatModelFactory) *CanvasQuestionChain {
	return &CanvasQuestionChain{factory: factory}
}

func (c *CanvasQuestionChain) Invoke(ctx context.Context, in *wfmodel.CanvasQuestionInput) (*schema.Message, error) {
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

type canvasQuestionChainState struct {
	In       *wfmodel.CanvasQuestionInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *CanvasQuestionChain) getChain() (compose.Runnable[*wfmodel.CanvasQuestionInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *CanvasQuestionChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.CanvasQuestionInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.CanvasQuestionInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.CanvasQuestionInput) (*canvasQuestionChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.Idea) == "" {
				return nil, fmt.Errorf("idea is empty")
			}
			return &canvasQuestionChainState{In: in}, nil
		}),
		compose.WithNodeName("canvas_question.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *canvasQuestionChainState) (*canvasQuestionChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatCanvasQuestionMessages(ctx, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("canvas_question.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *canvasQuestionChainState) (*canvasQuestionChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "canvas_question", strings.TrimSpace(st.In.Credential.Provider))
			chatModel, err := c.factory.Get(ctx, st.In.Credential)
			if err != nil {
				return nil, err
			}

			// 首问输出形态固定，可用 json_schema 约束；后续轮次输出是
			// “问题 或 suggest_complete”二选一，只靠提示词约束。
			enableSchema := len(st.In.History) == 0
			outMsg, err := chatModel.Generate(ctx, st.Messages, buildCanvasQuestionModelOptions(st.In, enableSchema)...)
			if err != nil && enableSchema && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Credential.Provider),
					"model", strings.TrimSpace(st.In.Credential.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildCanvasQuestionModelOptions(st.In, false)...)
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
		compose.WithNodeName("canvas_question.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *canvasQuestionChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("canvas_question.finalize"),
	)

	return chain.Compile(ctx)
}

func formatCanvasQuestionMessages(ctx context.Context, in *wfmodel.CanvasQuestionInput) ([]*schema.Message, error) {
	template := strings.TrimSpace(in.Template)
	vars := map[string]any{
		"template_context": workflowprompt.TemplateContext(template),
	}

	var id workflowprompt.PromptID
	if len(in.History) == 0 {
		id = workflowprompt.PromptCanvasFirstQuestionV1
		vars["idea"] = strings.TrimSpace(in.Idea)
		vars["template"] = template
	} else {
		id = workflowprompt.PromptCanvasNextQuestionV1
		vars["idea"] = strings.TrimSpace(in.Idea)
		vars["history_block"] = wfnode.BuildHistoryBlock(in.History)
		vars["question_count"] = strconv.Itoa(in.QuestionCount)
	}

	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	return tpl.Format(ctx, vars)
}

func buildCanvasQuestionModelOptions(in *wfmodel.CanvasQuestionInput, enableSchema bool) []model.Option {
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
					"name":   "canvas_question",
					"strict": false,
					"schema": canvasQuestionJSONSchema(),
				},
			},
		}))
	}

	return opts
}

func canvasQuestionJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"question", "type"},
		"properties": map[string]any{
			"question": map[string]any{"type": "string"},
			"type": map[string]any{
				"type": "string",
				"enum": []any{"single_choice", "approach"},
			},
			"options": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "label"},
					"properties": map[string]any{
						"id":          map[string]any{"type": "string"},
						"label":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"recommended": map[string]any{"type": "boolean"},
					},
				},
			},
			"approaches": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"id", "title", "description"},
					"properties": map[string]any{
						"id":          map[string]any{"type": "string"},
						"title":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"pros":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"cons":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"recommended": map[string]any{"type": "boolean"},
					},
				},
			},
			"context": map[string]any{"type": "string"},
		},
	}
}
