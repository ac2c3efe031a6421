package openaiwrap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"

	linkup "github.com/linkup-platform/linkup-go"
	"github.com/linkup-platform/linkup-go/metrics"
)

// ChatCompletionsService is a drop-in substitute for client.Chat.Completions
// that executes search_web tool calls between the first and second model call.
type ChatCompletionsService struct {
	api      ChatCompletionsAPI
	searcher Searcher
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a chat completion with the search tool available. The assistant
// message is appended to the conversation with all of its tool calls, but only
// search_web calls are executed; anything else stays untouched for the host
// application. Exactly one follow-up call is made when tool calls match.
func (s *ChatCompletionsService) New(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	if len(params.Tools) > 0 {
		return nil, ErrUserToolsNotSupported
	}

	first := params
	first.Tools = []openai.ChatCompletionToolUnionParam{chatSearchTool()}

	resp, err := s.api.New(ctx, first)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return resp, nil
	}

	msg := resp.Choices[0].Message
	var calls []openai.ChatCompletionMessageToolCallUnion
	for _, call := range msg.ToolCalls {
		if call.Type == "function" && call.Function.Name == ToolName {
			calls = append(calls, call)
		}
	}
	if len(calls) == 0 {
		return resp, nil
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, len(params.Messages), len(params.Messages)+len(calls)+1)
	copy(messages, params.Messages)

	assistant := msg.ToAssistantMessageParam()
	messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

	for _, call := range calls {
		args, err := parseSearchArgs(call.Function.Arguments)
		if err != nil {
			return nil, err
		}

		s.logger.Debug("executing search tool call",
			zap.String("style", "chat"),
			zap.String("call_id", call.ID),
			zap.String("query", args.Query),
		)
		result, err := s.searcher.Search(ctx, args.request())
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordToolCall("chat")
		}

		payload, err := marshalResults(result)
		if err != nil {
			return nil, err
		}
		messages = append(messages, openai.ToolMessage(payload, call.ID))
	}

	second := params
	second.Messages = messages
	second.Tools = nil
	return s.api.New(ctx, second)
}

// marshalResults keeps the structured result list for the chat style, which
// expects JSON tool output rather than collapsed text.
func marshalResults(resp *linkup.SearchResponse) (string, error) {
	var results []linkup.SearchResultItem
	if resp != nil && resp.SearchResults != nil {
		results = resp.SearchResults.Results
	}
	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode search results: %w", err)
	}
	return string(out), nil
}
