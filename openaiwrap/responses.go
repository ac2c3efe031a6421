package openaiwrap

import (
	"context"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared/constant"
	"go.uber.org/zap"

	linkup "github.com/linkup-platform/linkup-go"
	"github.com/linkup-platform/linkup-go/metrics"
)

// ResponsesService is a drop-in substitute for client.Responses that executes
// search_web tool calls between the first and second model call.
type ResponsesService struct {
	api      ResponsesAPI
	searcher Searcher
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a model response with the search tool available. If the reply
// contains no search_web calls it is returned unchanged after a single model
// call; otherwise the calls are executed and exactly one follow-up call is
// made with the results appended. Tool calls in the follow-up reply are
// returned to the caller unexecuted.
func (s *ResponsesService) New(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	if len(params.Tools) > 0 {
		return nil, ErrUserToolsNotSupported
	}

	input, err := normalizeInput(params.Input)
	if err != nil {
		return nil, err
	}

	first := params
	first.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: input}
	first.Tools = []responses.ToolUnionParam{responsesSearchTool()}

	resp, err := s.api.New(ctx, first)
	if err != nil {
		return nil, err
	}

	var calls []responses.ResponseOutputItemUnion
	for _, item := range resp.Output {
		if item.Type == "function_call" && item.Name == ToolName {
			calls = append(calls, item)
		}
	}
	if len(calls) == 0 {
		return resp, nil
	}

	conversation := input
	// Reasoning context has to precede the tool calls it produced.
	for _, item := range resp.Output {
		if item.Type == "reasoning" {
			conversation = append(conversation, reasoningInputItem(item))
		}
	}
	for _, call := range calls {
		conversation = append(conversation, responses.ResponseInputItemParamOfFunctionCall(call.Arguments, call.CallID, call.Name))
	}

	for _, call := range calls {
		args, err := parseSearchArgs(call.Arguments)
		if err != nil {
			return nil, err
		}

		s.logger.Debug("executing search tool call",
			zap.String("style", "responses"),
			zap.String("call_id", call.CallID),
			zap.String("query", args.Query),
		)
		result, err := s.searcher.Search(ctx, args.request())
		if err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordToolCall("responses")
		}

		conversation = append(conversation, responses.ResponseInputItemParamOfFunctionCallOutput(call.CallID, joinResultText(result)))
	}

	second := params
	second.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: conversation}
	second.Tools = nil
	return s.api.New(ctx, second)
}

// normalizeInput turns the input union into an item list the wrapper can
// append to, wrapping a bare string as a single user message.
func normalizeInput(input responses.ResponseNewParamsInputUnion) (responses.ResponseInputParam, error) {
	if input.OfString.Valid() {
		text := input.OfString.Value
		if text == "" {
			return nil, ErrInputRequired
		}
		return responses.ResponseInputParam{{
			OfMessage: &responses.EasyInputMessageParam{
				Role: responses.EasyInputMessageRoleUser,
				Content: responses.EasyInputMessageContentUnionParam{
					OfString: openai.String(text),
				},
			},
		}}, nil
	}

	if len(input.OfInputItemList) == 0 {
		return nil, ErrInputRequired
	}
	items := make(responses.ResponseInputParam, len(input.OfInputItemList))
	copy(items, input.OfInputItemList)
	return items, nil
}

func reasoningInputItem(item responses.ResponseOutputItemUnion) responses.ResponseInputItemUnionParam {
	reasoning := responses.ResponseReasoningItemParam{
		ID:   item.ID,
		Type: constant.ValueOf[constant.Reasoning](),
	}
	for _, summary := range item.Summary {
		reasoning.Summary = append(reasoning.Summary, responses.ResponseReasoningItemSummaryParam{
			Text: summary.Text,
			Type: constant.ValueOf[constant.SummaryText](),
		})
	}
	if item.EncryptedContent != "" {
		reasoning.EncryptedContent = openai.String(item.EncryptedContent)
	}
	return responses.ResponseInputItemUnionParam{OfReasoning: &reasoning}
}

// joinResultText collapses search results to plain text for the Responses
// style, one line per result. Image results carry no text and contribute an
// empty line.
func joinResultText(resp *linkup.SearchResponse) string {
	if resp == nil || resp.SearchResults == nil {
		return ""
	}
	lines := make([]string, len(resp.SearchResults.Results))
	for i, result := range resp.SearchResults.Results {
		lines[i] = result.Content
	}
	return strings.Join(lines, "\n")
}
