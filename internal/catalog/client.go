package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/co-codin/query-compiler/internal/compiler/cerr"
	"github.com/co-codin/query-compiler/internal/ir"
	"github.com/co-codin/query-compiler/internal/platform/httpclient"
)

// HTTPClient fetches catalog mappings from the external data-catalog
// service: GET {catalog_url}/mappings with body {"attributes": [...]},
// a JSON array of entries positionally aligned with the request, per
// SPEC_FULL.md section 4.3/6. This mirrors original_source's
// DataCatalog.load_missing_attr_data_list.
type HTTPClient struct {
	baseURL string
	client  *httpclient.Client
}

// NewHTTPClient builds a catalog HTTP client against baseURL (the
// configured data_catalog_url).
func NewHTTPClient(baseURL string, client *httpclient.Client) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, client: client}
}

type mappingsRequest struct {
	Attributes []string `json:"attributes"`
}

// wireEntry is the catalog service's wire shape for one resolved entry.
type wireEntry struct {
	Table struct {
		Name     string `json:"name"`
		Relation []struct {
			Table string   `json:"table"`
			On    []string `json:"on"`
		} `json:"relation"`
	} `json:"table"`
	Field      string   `json:"field"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
}

func (e wireEntry) toEntry() Entry {
	table := ir.Table{PhysicalName: e.Table.Name}
	ancestor := e.Table.Name
	for _, rel := range e.Table.Relation {
		if len(rel.On) != 2 {
			continue
		}
		table.Joins = append(table.Joins, ir.Relation{
			Table:        rel.Table,
			RelatedTable: ancestor,
			Key:          rel.On[0],
			RelatedKey:   rel.On[1],
		})
		ancestor = rel.Table
	}
	return Entry{Table: table, Field: e.Field, Type: e.Type, Attributes: e.Attributes}
}

// FetchMappings implements Fetcher.
func (c *HTTPClient) FetchMappings(ctx context.Context, names []string) (map[string]Entry, error) {
	body, err := json.Marshal(mappingsRequest{Attributes: names})
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to encode mappings request: %w", err)
	}

	url := c.baseURL + "/mappings"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("catalog: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, cerr.HTTPErrorFromDataCatalog(url, 0, "", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, cerr.HTTPErrorFromDataCatalog(url, resp.StatusCode, string(respBody), nil)
	}

	var wireEntries []wireEntry
	if err := json.Unmarshal(respBody, &wireEntries); err != nil {
		return nil, cerr.HTTPErrorFromDataCatalog(url, resp.StatusCode, string(respBody), err)
	}
	if len(wireEntries) != len(names) {
		return nil, cerr.HTTPErrorFromDataCatalog(url, resp.StatusCode, "response length mismatch", nil)
	}

	resolved := make(map[string]Entry, len(names))
	for i, name := range names {
		resolved[name] = wireEntries[i].toEntry()
	}
	return resolved, nil
}
