package openaiwrap

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	linkup "github.com/linkup-platform/linkup-go"
)

type fakeSearcher struct {
	requests  []linkup.SearchRequest
	responses []*linkup.SearchResponse
	err       error
}

func (f *fakeSearcher) Search(_ context.Context, req linkup.SearchRequest) (*linkup.SearchResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

type fakeResponsesAPI struct {
	calls []responses.ResponseNewParams
	queue []*responses.Response
}

func (f *fakeResponsesAPI) New(_ context.Context, body responses.ResponseNewParams, _ ...option.RequestOption) (*responses.Response, error) {
	f.calls = append(f.calls, body)
	resp := f.queue[0]
	f.queue = f.queue[1:]
	return resp, nil
}

// decodeResponse builds a model reply from its wire form, the same way the
// SDK does when reading an HTTP body.
func decodeResponse(t *testing.T, raw string) *responses.Response {
	t.Helper()
	var resp responses.Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return &resp
}

const plainReply = `{
	"id": "resp_plain",
	"output": [
		{"type": "message", "id": "msg_1", "role": "assistant",
		 "content": [{"type": "output_text", "text": "No search needed."}]}
	]
}`

const toolCallReply = `{
	"id": "resp_tools",
	"output": [
		{"type": "reasoning", "id": "rs_1",
		 "summary": [{"type": "summary_text", "text": "I should check the web."}],
		 "encrypted_content": "opaque-blob"},
		{"type": "function_call", "id": "fc_1", "call_id": "call_1",
		 "name": "search_web", "arguments": "{\"query\":\"fintech news\"}"},
		{"type": "function_call", "id": "fc_2", "call_id": "call_2",
		 "name": "get_weather", "arguments": "{\"city\":\"Paris\"}"}
	]
}`

func searchResults(contents ...string) *linkup.SearchResponse {
	results := make([]linkup.SearchResultItem, len(contents))
	for i, content := range contents {
		results[i] = linkup.SearchResultItem{Type: "text", Name: "r", URL: "https://example.com", Content: content}
	}
	return &linkup.SearchResponse{
		OutputType:    linkup.OutputSearchResults,
		SearchResults: &linkup.SearchResults{Results: results},
	}
}

func newResponsesService(api *fakeResponsesAPI, searcher *fakeSearcher) *ResponsesService {
	return &ResponsesService{api: api, searcher: searcher, logger: zap.NewNop()}
}

func stringInput(text string) responses.ResponseNewParamsInputUnion {
	return responses.ResponseNewParamsInputUnion{OfString: openai.String(text)}
}

func TestResponses_RejectsUserTools(t *testing.T) {
	api := &fakeResponsesAPI{}
	svc := newResponsesService(api, &fakeSearcher{})

	_, err := svc.New(context.Background(), responses.ResponseNewParams{
		Input: stringInput("hi"),
		Tools: []responses.ToolUnionParam{responsesSearchTool()},
	})

	assert.ErrorIs(t, err, ErrUserToolsNotSupported)
	assert.Empty(t, api.calls, "no model call should be made")
}

func TestResponses_EmptyInput(t *testing.T) {
	api := &fakeResponsesAPI{}
	svc := newResponsesService(api, &fakeSearcher{})

	_, err := svc.New(context.Background(), responses.ResponseNewParams{})
	assert.ErrorIs(t, err, ErrInputRequired)

	_, err = svc.New(context.Background(), responses.ResponseNewParams{Input: stringInput("")})
	assert.ErrorIs(t, err, ErrInputRequired)

	assert.Empty(t, api.calls)
}

func TestResponses_NoToolCalls(t *testing.T) {
	api := &fakeResponsesAPI{queue: []*responses.Response{decodeResponse(t, plainReply)}}
	searcher := &fakeSearcher{}
	svc := newResponsesService(api, searcher)

	resp, err := svc.New(context.Background(), responses.ResponseNewParams{Input: stringInput("hello")})
	require.NoError(t, err)

	assert.Equal(t, "resp_plain", resp.ID, "reply should come back unchanged")
	require.Len(t, api.calls, 1, "no follow-up call without tool calls")
	assert.Empty(t, searcher.requests)

	first := api.calls[0]
	require.Len(t, first.Tools, 1)
	require.NotNil(t, first.Tools[0].OfFunction)
	assert.Equal(t, ToolName, first.Tools[0].OfFunction.Name)

	// The bare string is wrapped as a single user message.
	input := first.Input.OfInputItemList
	require.Len(t, input, 1)
	require.NotNil(t, input[0].OfMessage)
	assert.Equal(t, responses.EasyInputMessageRoleUser, input[0].OfMessage.Role)
	assert.Equal(t, "hello", input[0].OfMessage.Content.OfString.Value)
}

func TestResponses_ExecutesSearchCalls(t *testing.T) {
	api := &fakeResponsesAPI{queue: []*responses.Response{
		decodeResponse(t, toolCallReply),
		decodeResponse(t, plainReply),
	}}
	searcher := &fakeSearcher{responses: []*linkup.SearchResponse{searchResults("first line", "", "third line")}}
	svc := newResponsesService(api, searcher)

	resp, err := svc.New(context.Background(), responses.ResponseNewParams{Input: stringInput("what happened")})
	require.NoError(t, err)

	assert.Equal(t, "resp_plain", resp.ID, "second reply is returned verbatim")
	require.Len(t, api.calls, 2, "exactly one follow-up call")

	// Only the search_web call reaches the backend, with fixed search settings.
	require.Len(t, searcher.requests, 1)
	assert.Equal(t, "fintech news", searcher.requests[0].Query)
	assert.Equal(t, linkup.DepthStandard, searcher.requests[0].Depth)
	assert.Equal(t, linkup.OutputSearchResults, searcher.requests[0].OutputType)

	second := api.calls[1]
	assert.Empty(t, second.Tools, "follow-up call must not advertise tools")

	input := second.Input.OfInputItemList
	require.Len(t, input, 4)

	require.NotNil(t, input[0].OfMessage)
	assert.Equal(t, "what happened", input[0].OfMessage.Content.OfString.Value)

	// Reasoning precedes the call it produced.
	require.NotNil(t, input[1].OfReasoning)
	assert.Equal(t, "rs_1", input[1].OfReasoning.ID)
	require.Len(t, input[1].OfReasoning.Summary, 1)
	assert.Equal(t, "I should check the web.", input[1].OfReasoning.Summary[0].Text)
	assert.Equal(t, "opaque-blob", input[1].OfReasoning.EncryptedContent.Value)

	require.NotNil(t, input[2].OfFunctionCall)
	assert.Equal(t, "call_1", input[2].OfFunctionCall.CallID)
	assert.Equal(t, ToolName, input[2].OfFunctionCall.Name)

	require.NotNil(t, input[3].OfFunctionCallOutput)
	assert.Equal(t, "call_1", input[3].OfFunctionCallOutput.CallID)
	assert.Equal(t, "first line\n\nthird line", input[3].OfFunctionCallOutput.Output.OfString.Value)
}

func TestResponses_SecondReplyToolCallsNotExecuted(t *testing.T) {
	api := &fakeResponsesAPI{queue: []*responses.Response{
		decodeResponse(t, toolCallReply),
		decodeResponse(t, toolCallReply),
	}}
	searcher := &fakeSearcher{responses: []*linkup.SearchResponse{searchResults("a")}}
	svc := newResponsesService(api, searcher)

	resp, err := svc.New(context.Background(), responses.ResponseNewParams{Input: stringInput("again")})
	require.NoError(t, err)

	assert.Equal(t, "resp_tools", resp.ID)
	assert.Len(t, api.calls, 2, "tool calls in the follow-up reply stay unexecuted")
	assert.Len(t, searcher.requests, 1)
}

func TestResponses_MalformedArguments(t *testing.T) {
	const badArgs = `{
		"id": "resp_bad",
		"output": [
			{"type": "function_call", "id": "fc_1", "call_id": "call_1",
			 "name": "search_web", "arguments": "{not json"}
		]
	}`

	api := &fakeResponsesAPI{queue: []*responses.Response{decodeResponse(t, badArgs)}}
	searcher := &fakeSearcher{}
	svc := newResponsesService(api, searcher)

	_, err := svc.New(context.Background(), responses.ResponseNewParams{Input: stringInput("q")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search_web arguments")
	assert.Len(t, api.calls, 1, "no follow-up after a failed call")
	assert.Empty(t, searcher.requests)
}

func TestResponses_SearchErrorPropagates(t *testing.T) {
	api := &fakeResponsesAPI{queue: []*responses.Response{decodeResponse(t, toolCallReply)}}
	searcher := &fakeSearcher{err: linkup.ErrTooManyRequests}
	svc := newResponsesService(api, searcher)

	_, err := svc.New(context.Background(), responses.ResponseNewParams{Input: stringInput("q")})

	assert.ErrorIs(t, err, linkup.ErrTooManyRequests)
	assert.Len(t, api.calls, 1)
}

func TestResponses_InputItemListPassedThrough(t *testing.T) {
	api := &fakeResponsesAPI{queue: []*responses.Response{decodeResponse(t, plainReply)}}
	svc := newResponsesService(api, &fakeSearcher{})

	items := responses.ResponseInputParam{{
		OfMessage: &responses.EasyInputMessageParam{
			Role:    responses.EasyInputMessageRoleSystem,
			Content: responses.EasyInputMessageContentUnionParam{OfString: openai.String("be brief")},
		},
	}}

	_, err := svc.New(context.Background(), responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: items},
	})
	require.NoError(t, err)

	input := api.calls[0].Input.OfInputItemList
	require.Len(t, input, 1)
	assert.Equal(t, responses.EasyInputMessageRoleSystem, input[0].OfMessage.Role)
}

func TestJoinResultText(t *testing.T) {
	tests := []struct {
		name string
		resp *linkup.SearchResponse
		want string
	}{
		{"nil response", nil, ""},
		{"no results variant", &linkup.SearchResponse{OutputType: linkup.OutputSourcedAnswer}, ""},
		{"single result", searchResults("only"), "only"},
		{"image gap kept", searchResults("top", "", "bottom"), "top\n\nbottom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, joinResultText(tt.resp))
		})
	}
}

func TestParseSearchArgs(t *testing.T) {
	args, err := parseSearchArgs(`{"query":"rates"}`)
	require.NoError(t, err)
	assert.Equal(t, "rates", args.Query)

	// An empty query is not an argument error; the backend decides.
	args, err = parseSearchArgs(`{}`)
	require.NoError(t, err)
	assert.Equal(t, "", args.Query)

	_, err = parseSearchArgs(`{"query":`)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInputRequired))
}
