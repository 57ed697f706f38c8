package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "prism-docs-api/internal/domain/service"
	wfmodel "prism-docs-api/internal/workflow/model"
	wfnode "prism-docs-api/internal/workflow/node"
	workflowport "prism-docs-api/internal/workflow/port"
	workflowprompt "prism-docs-api/internal/workflow/prompt"
)

// ReportChain 把画布问答历史一次性转换为 markdown 实施方案。
// 输出是纯文本，不走 json_schema。
type ReportChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.ReportInput, *schema.Message]
	chainErr  error
}

func NewReportChain(factory workflowport.ChatModelFactory) *ReportChain {
	return &ReportChain{factory: factory}
}

func (c *ReportChain) Invoke(ctx context.Context, in *wfmodel.ReportInput) (*schema.Message, error) {
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

type reportChainState struct {
	In       *wfmodel.ReportInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *ReportChain) getChain() (compose.Runnable[*wfmodel.ReportInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *ReportChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.ReportInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.ReportInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.ReportInput) (*reportChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if len(in.History) == 0 {
				return nil, fmt.Errorf("history is empty")
			}
			return &reportChainState{In: in}, nil
		}),
		compose.WithNodeName("canvas_report.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *reportChainState) (*reportChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			tpl, err := defaultPromptRegistry.ChatTemplate(workflowprompt.PromptCanvasReportV1)
			if err != nil {
				return nil, err
			}
			summary := strings.TrimSpace(st.In.Summary)
			if summary == "" {
				summary = "(none provided)"
			}
			msgs, err := tpl.Format(ctx, map[string]any{
				"idea":          strings.TrimSpace(st.In.Idea),
				"template":      strings.TrimSpace(st.In.Template),
				"summary":       summary,
				"history_block": wfnode.BuildHistoryBlock(st.In.History),
			})
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("canvas_report.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *reportChainState) (*reportChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			if c.factory == nil {
				return nil, fmt.Errorf("llm factory not configured")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "canvas_report", strings.TrimSpace(st.In.Credential.Provider))
			chatModel, err := c.factory.Get(ctx, st.In.Credential)
			if err != nil {
				return nil, err
			}

			opts := make([]model.Option, 0, 2)
			if st.In.MaxTokens != nil {
				opts = append(opts, model.WithMaxTokens(*st.In.MaxTokens))
			}
			if strings.TrimSpace(st.In.Credential.Model) != "" {
				opts = append(opts, model.WithModel(strings.TrimSpace(st.In.Credential.Model)))
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, opts...)
			if err != nil {
				return nil, err
			}
			if outMsg == nil || strings.TrimSpace(outMsg.Content) == "" {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("canvas_report.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *reportChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("canvas_report.finalize"),
	)

	return chain.Compile(ctx)
}
