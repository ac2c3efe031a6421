package linkup

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SearchDepth controls how much effort the backend spends on a query.
type SearchDepth string

const (
	// DepthStandard is the fast, single-pass search mode.
	DepthStandard SearchDepth = "standard"
	// DepthDeep is the slower agentic mode, better for complex queries.
	DepthDeep SearchDepth = "deep"
)

func (d SearchDepth) IsValid() bool {
	switch d {
	case DepthStandard, DepthDeep:
		return true
	}
	return false
}

// OutputType selects the shape of a search response.
type OutputType string

const (
	OutputSourcedAnswer OutputType = "sourcedAnswer"
	OutputSearchResults OutputType = "searchResults"
	OutputStructured    OutputType = "structured"
)

func (o OutputType) IsValid() bool {
	switch o {
	case OutputSourcedAnswer, OutputSearchResults, OutputStructured:
		return true
	}
	return false
}

// SchemaProvider lets callers pass a schema object that knows how to render
// itself, instead of raw JSON. Anything else supplied as a structured output
// schema is marshalled as-is.
type SchemaProvider interface {
	JSONSchema() (json.RawMessage, error)
}

// SearchRequest describes one search call.
//
// StructuredOutputSchema must be set when and only when OutputType is
// OutputStructured; violating that is a local usage error, not a backend one.
type SearchRequest struct {
	Query                  string
	Depth                  SearchDepth
	OutputType             OutputType
	StructuredOutputSchema any

	IncludeImages          bool
	IncludeDomains         []string
	ExcludeDomains         []string
	FromDate               time.Time
	ToDate                 time.Time
	IncludeInlineCitations bool
	IncludeSources         bool
	MaxResults             int
}

func (r SearchRequest) withDefaults() SearchRequest {
	if r.Depth == "" {
		r.Depth = DepthStandard
	}
	if r.OutputType == "" {
		r.OutputType = OutputSearchResults
	}
	return r
}

func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if !r.Depth.IsValid() {
		return fmt.Errorf("%w: depth %q", ErrInvalidParams, r.Depth)
	}
	if !r.OutputType.IsValid() {
		return fmt.Errorf("%w: outputType %q", ErrInvalidParams, r.OutputType)
	}
	if r.OutputType == OutputStructured && r.StructuredOutputSchema == nil {
		return ErrMissingSchema
	}
	if r.OutputType != OutputStructured && r.StructuredOutputSchema != nil {
		return ErrUnexpectedSchema
	}
	return nil
}

// searchPayload is the wire form of a search request.
type searchPayload struct {
	Q                      string      `json:"q"`
	Depth                  SearchDepth `json:"depth"`
	OutputType             OutputType  `json:"outputType"`
	StructuredOutputSchema string      `json:"structuredOutputSchema,omitempty"`
	IncludeImages          bool        `json:"includeImages,omitempty"`
	IncludeDomains         []string    `json:"includeDomains,omitempty"`
	ExcludeDomains         []string    `json:"excludeDomains,omitempty"`
	FromDate               string      `json:"fromDate,omitempty"`
	ToDate                 string      `json:"toDate,omitempty"`
	IncludeInlineCitations bool        `json:"includeInlineCitations,omitempty"`
	IncludeSources         bool        `json:"includeSources,omitempty"`
	MaxResults             int         `json:"maxResults,omitempty"`
}

const dateLayout = "2006-01-02"

func (r SearchRequest) payload() (searchPayload, error) {
	p := searchPayload{
		Q:                      r.Query,
		Depth:                  r.Depth,
		OutputType:             r.OutputType,
		IncludeImages:          r.IncludeImages,
		IncludeDomains:         r.IncludeDomains,
		ExcludeDomains:         r.ExcludeDomains,
		IncludeInlineCitations: r.IncludeInlineCitations,
		IncludeSources:         r.IncludeSources,
		MaxResults:             r.MaxResults,
	}
	if !r.FromDate.IsZero() {
		p.FromDate = r.FromDate.Format(dateLayout)
	}
	if !r.ToDate.IsZero() {
		p.ToDate = r.ToDate.Format(dateLayout)
	}
	if r.StructuredOutputSchema != nil {
		schema, err := encodeSchema(r.StructuredOutputSchema)
		if err != nil {
			return searchPayload{}, fmt.Errorf("encode structured output schema: %w", err)
		}
		p.StructuredOutputSchema = schema
	}
	return p, nil
}

// encodeSchema renders the structured output schema to the string the API
// expects. Values with their own rendering capability win over plain data.
func encodeSchema(schema any) (string, error) {
	switch s := schema.(type) {
	case SchemaProvider:
		raw, err := s.JSONSchema()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case json.RawMessage:
		return string(s), nil
	case string:
		return s, nil
	default:
		raw, err := json.Marshal(s)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// SearchResultItem is one entry of a searchResults response. Type
// discriminates the variant: "text" items carry Content, "image" items do not.
type SearchResultItem struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Content string `json:"content,omitempty"`
	Favicon string `json:"favicon,omitempty"`
}

// Source is a citation attached to a sourced answer. Depending on the
// variant the backend returns, either Snippet or Content is present.
type Source struct {
	Type    string `json:"type,omitempty"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
	Content string `json:"content,omitempty"`
	Favicon string `json:"favicon,omitempty"`
}

// SourcedAnswer is the sourcedAnswer response shape.
type SourcedAnswer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// SearchResults is the searchResults response shape.
type SearchResults struct {
	Results []SearchResultItem `json:"results"`
}

// StructuredWithSources wraps a structured payload when sources were
// requested alongside it.
type StructuredWithSources struct {
	Data    json.RawMessage `json:"data"`
	Sources []Source        `json:"sources"`
}

// SearchResponse is the normalized result of a search call. Exactly one
// variant field is populated, determined by OutputType.
type SearchResponse struct {
	OutputType OutputType

	SourcedAnswer         *SourcedAnswer
	SearchResults         *SearchResults
	Structured            json.RawMessage
	StructuredWithSources *StructuredWithSources
}

// FetchRequest asks the backend to retrieve and convert a single page.
type FetchRequest struct {
	URL            string
	IncludeRawHTML bool
	RenderJS       bool
}

type fetchPayload struct {
	URL            string `json:"url"`
	IncludeRawHTML bool   `json:"includeRawHtml,omitempty"`
	RenderJS       bool   `json:"renderJs,omitempty"`
}

// FetchResponse carries the fetched page as markdown, plus raw HTML when
// requested.
type FetchResponse struct {
	Markdown string `json:"markdown"`
	RawHTML  string `json:"rawHtml,omitempty"`
}
