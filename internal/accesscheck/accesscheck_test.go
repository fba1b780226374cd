package accesscheck_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-codin/query-compiler/internal/accesscheck"
	"github.com/co-codin/query-compiler/internal/catalog"
	"github.com/co-codin/query-compiler/internal/ir"
	"github.com/co-codin/query-compiler/internal/platform/httpclient"
)

func newTestClient() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Retries:       0,
		Timeout:       2 * time.Second,
		RetryStatuses: map[int]bool{},
		RetryMethods:  map[string]bool{},
		RateLimitRPS:  1000,
		RateLimit:     1000,
	}, nil)
}

func TestCheck_NoTaggedResources_SkipsCallEntirely(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cat := catalog.New(map[string]catalog.Entry{
		"patient.id": {Table: ir.Table{PhysicalName: "patient"}, Field: "id", Attributes: nil},
	})
	checker := accesscheck.NewChecker(server.URL, newTestClient())

	err := checker.Check(context.Background(), "user-1", []ir.Attribute{ir.NewField("patient.id", nil)}, cat)
	require.NoError(t, err)
	assert.False(t, called, "no HTTP call expected when every resolved attribute has no resource tags")
}

func TestCheck_Allowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cat := catalog.New(map[string]catalog.Entry{
		"patient.ssn": {Table: ir.Table{PhysicalName: "patient"}, Field: "ssn", Attributes: []string{"pii"}},
	})
	checker := accesscheck.NewChecker(server.URL, newTestClient())

	err := checker.Check(context.Background(), "user-1", []ir.Attribute{ir.NewField("patient.ssn", nil)}, cat)
	assert.NoError(t, err)
}

/*
TestCheck_Denied verifies a 403 response is mapped back to the logical
field name and raised as a cerr.AccessDenied.
*/
func TestCheck_Denied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"detail": map[string]any{"resources": []string{"patient.ssn"}},
		})
	}))
	defer server.Close()

	cat := catalog.New(map[string]catalog.Entry{
		"patient.ssn": {Table: ir.Table{PhysicalName: "patient"}, Field: "ssn", Attributes: []string{"pii"}},
	})
	checker := accesscheck.NewChecker(server.URL, newTestClient())

	err := checker.Check(context.Background(), "user-1", []ir.Attribute{ir.NewField("patient.ssn", nil)}, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patient.ssn")
}
