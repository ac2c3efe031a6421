// Package openaiwrap exposes Linkup search as a tool inside an OpenAI model
// loop. The wrapper advertises a single search_web tool on the first model
// call, executes any matching tool calls against the Linkup API, then makes
// exactly one follow-up model call with the results folded into the
// conversation. Tool calls to anything other than search_web are left for the
// host application to handle.
package openaiwrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared/constant"
	"go.uber.org/zap"

	linkup "github.com/linkup-platform/linkup-go"
	"github.com/linkup-platform/linkup-go/metrics"
)

// ToolName is the only tool the wrapper advertises to the model.
const ToolName = "search_web"

const toolDescription = "Search the web in real time for current information. " +
	"Use this when the answer depends on up-to-date facts such as news, prices or recent events."

// Usage errors, checked before any network activity.
var (
	ErrInputRequired         = errors.New("input is required for creating a response")
	ErrUserToolsNotSupported = errors.New("user tools are not supported")
)

// Searcher is the search capability the wrapper depends on.
// *linkup.Client implements it.
type Searcher interface {
	Search(ctx context.Context, req linkup.SearchRequest) (*linkup.SearchResponse, error)
}

// ResponsesAPI is the Responses-style model endpoint.
type ResponsesAPI interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// ChatCompletionsAPI is the chat-completion-style model endpoint.
type ChatCompletionsAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Wrapper mirrors the two native creation entry points of the OpenAI client,
// transparently injecting the search tool into both.
type Wrapper struct {
	Responses *ResponsesService
	Chat      *ChatService
}

// ChatService mirrors the client.Chat namespace.
type ChatService struct {
	Completions *ChatCompletionsService
}

type settings struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*settings)

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// New wraps an OpenAI client so that both creation entry points advertise and
// execute the search_web tool through searcher.
func New(client openai.Client, searcher Searcher, opts ...Option) *Wrapper {
	s := settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}

	return &Wrapper{
		Responses: &ResponsesService{
			api:      &client.Responses,
			searcher: searcher,
			logger:   s.logger,
			metrics:  s.metrics,
		},
		Chat: &ChatService{
			Completions: &ChatCompletionsService{
				api:      &client.Chat.Completions,
				searcher: searcher,
				logger:   s.logger,
				metrics:  s.metrics,
			},
		},
	}
}

// searchToolParameters is the JSON schema advertised for search_web. Shared
// read-only across all calls.
var searchToolParameters = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "The search query.",
		},
	},
	"required":             []string{"query"},
	"additionalProperties": false,
}

func responsesSearchTool() responses.ToolUnionParam {
	return responses.ToolUnionParam{
		OfFunction: &responses.FunctionToolParam{
			Name:        ToolName,
			Description: openai.String(toolDescription),
			Parameters:  searchToolParameters,
			Strict:      param.NewOpt(false),
			Type:        constant.ValueOf[constant.Function](),
		},
	}
}

func chatSearchTool() openai.ChatCompletionToolUnionParam {
	function := openai.FunctionDefinitionParam{
		Name:        ToolName,
		Description: openai.String(toolDescription),
		Parameters:  searchToolParameters,
	}
	return openai.ChatCompletionToolUnionParam{
		OfFunction: &openai.ChatCompletionFunctionToolParam{
			Function: function,
			Type:     constant.ValueOf[constant.Function](),
		},
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

// parseSearchArgs decodes the model-issued arguments. Malformed JSON fails
// the whole call; an empty query is forwarded to the backend unvalidated.
func parseSearchArgs(raw string) (searchArgs, error) {
	var args searchArgs
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return args, fmt.Errorf("parse %s arguments: %w", ToolName, err)
	}
	return args, nil
}

func (s searchArgs) request() linkup.SearchRequest {
	return linkup.SearchRequest{
		Query:      s.Query,
		Depth:      linkup.DepthStandard,
		OutputType: linkup.OutputSearchResults,
	}
}
