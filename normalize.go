package linkup

import (
	"encoding/json"
	"fmt"
)

// normalizeResponse projects a raw 200 body into the variant selected by the
// request's output type. The shape is fully determined by outputType; this
// function never guesses. Structured payloads are passed through verbatim
// unless sources were requested, in which case the {data, sources} wrapper is
// unpacked.
func normalizeResponse(outputType OutputType, includeSources bool, payload []byte) (*SearchResponse, error) {
	resp := &SearchResponse{OutputType: outputType}

	switch outputType {
	case OutputSourcedAnswer:
		var answer SourcedAnswer
		if err := json.Unmarshal(payload, &answer); err != nil {
			return nil, fmt.Errorf("decode sourcedAnswer response: %w", err)
		}
		resp.SourcedAnswer = &answer
	case OutputSearchResults:
		var results SearchResults
		if err := json.Unmarshal(payload, &results); err != nil {
			return nil, fmt.Errorf("decode searchResults response: %w", err)
		}
		resp.SearchResults = &results
	case OutputStructured:
		if includeSources {
			var structured StructuredWithSources
			if err := json.Unmarshal(payload, &structured); err != nil {
				return nil, fmt.Errorf("decode structured response: %w", err)
			}
			resp.StructuredWithSources = &structured
			return resp, nil
		}
		raw := make(json.RawMessage, len(payload))
		copy(raw, payload)
		resp.Structured = raw
	default:
		return nil, fmt.Errorf("%w: outputType %q", ErrInvalidParams, outputType)
	}
	return resp, nil
}
