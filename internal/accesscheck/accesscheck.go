// Package accesscheck submits the physical resources an emitted query would
// touch to the external policy service and turns a denial into a
// cerr.AccessDenied naming the offending logical fields, per SPEC_FULL.md
// section 4.4 (unchanged from spec.md), ported from original_source's
// access_control.check_access.
package accesscheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/co-codin/query-compiler/internal/catalog"
	"github.com/co-codin/query-compiler/internal/compiler/cerr"
	"github.com/co-codin/query-compiler/internal/ir"
	"github.com/co-codin/query-compiler/internal/platform/httpclient"
)

// Catalog is the read-only view the access check needs.
type Catalog interface {
	Get(name string) (catalog.Entry, bool)
}

// Checker calls the IAM service's rules/check endpoint.
type Checker struct {
	baseURL string
	client  *httpclient.Client
}

// NewChecker builds a Checker against baseURL (the configured iam_url).
func NewChecker(baseURL string, client *httpclient.Client) *Checker {
	return &Checker{baseURL: baseURL, client: client}
}

type checkRequest struct {
	IdentityID string            `json:"identity_id"`
	Resources  map[string][]string `json:"resources"`
}

type deniedResponse struct {
	Detail struct {
		Resources []string `json:"resources"`
	} `json:"detail"`
}

// Check verifies identityID is permitted to read every physical resource
// backing attrs. If resources is empty (no catalog entries with resource
// tags), it returns success without calling out, per spec section 4.4.
func (c *Checker) Check(ctx context.Context, identityID string, attrs []ir.Attribute, cat Catalog) error {
	resources := make(map[string][]string)
	physicalToLogical := make(map[string]string)

	for _, attr := range attrs {
		entry, ok := cat.Get(attr.FieldID())
		if !ok || len(entry.Attributes) == 0 {
			continue
		}
		physicalName := entry.Table.PhysicalName + "." + entry.Field
		resources[physicalName] = entry.Attributes
		physicalToLogical[physicalName] = attr.FieldID()
	}

	if len(resources) == 0 {
		return nil
	}

	body, err := json.Marshal(checkRequest{IdentityID: identityID, Resources: resources})
	if err != nil {
		return fmt.Errorf("accesscheck: failed to encode request: %w", err)
	}

	url := c.baseURL + "/rules/check"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("accesscheck: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("accesscheck: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusForbidden:
		respBody, _ := io.ReadAll(resp.Body)
		var denied deniedResponse
		if err := json.Unmarshal(respBody, &denied); err != nil {
			return fmt.Errorf("accesscheck: failed to decode denial: %w", err)
		}
		deniedFields := make([]string, 0, len(denied.Detail.Resources))
		for _, physical := range denied.Detail.Resources {
			if logical, ok := physicalToLogical[physical]; ok {
				deniedFields = append(deniedFields, logical)
			} else {
				deniedFields = append(deniedFields, physical)
			}
		}
		return cerr.AccessDenied(deniedFields)
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("accesscheck: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
}
