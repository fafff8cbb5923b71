package brightdata

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/roomscout/backend/internal/domain"
)

// resultKeys are the array fields searched, in order, for organic results
var resultKeys = []string{"organic", "organic_results", "results"}

// ParseSearchResponse extracts organic results from a SERP unlocker
// response. The payload may wrap the SERP in a "body" field holding either
// a JSON string or an object, or be the SERP itself. Results without an
// absolute http(s) link or
// a title are dropped.
func ParseSearchResponse(data []byte) ([]domain.SearchResult, error) {
	payload, err := unwrapBody(bytes.TrimSpace(data))
	if err != nil {
		return nil, err
	}

	items, err := resultItems(payload)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(items))
	for _, item := range items {
		r := domain.SearchResult{
			Title:   firstString(item, "title", "name"),
			Link:    firstString(item, "url", "link", "href"),
			Snippet: firstString(item, "snippet", "description", "text"),
		}
		if r.Title == "" || !strings.HasPrefix(r.Link, "http") {
			continue
		}
		results = append(results, r)
	}

	return results, nil
}

// unwrapBody returns the SERP document, unwrapping an envelope "body" field
func unwrapBody(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != '{' {
		return data, nil
	}

	var envelope struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	body := bytes.TrimSpace(envelope.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return data, nil
	}

	if body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return nil, fmt.Errorf("%w: body string: %v", domain.ErrMalformedPayload, err)
		}
		return bytes.TrimSpace([]byte(s)), nil
	}

	return body, nil
}

// resultItems finds the result array in a SERP document
func resultItems(doc []byte) ([]map[string]any, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrMalformedPayload)
	}

	if doc[0] == '[' {
		var items []map[string]any
		if err := json.Unmarshal(doc, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
		}
		return items, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	for _, key := range resultKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		// null, objects and strings fall through to the next shape
		var items []map[string]any
		if err := json.Unmarshal(raw, &items); err != nil || items == nil {
			continue
		}
		return items, nil
	}

	return nil, fmt.Errorf("%w: no result array", domain.ErrMalformedPayload)
}

// firstString returns the first non-empty string value among keys
func firstString(item map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := item[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
