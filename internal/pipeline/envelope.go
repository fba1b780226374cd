// Package pipeline drives the five-stage compiler: request deframing, IR
// construction, catalog resolution, access check, and SQL synthesis.
package pipeline

import (
	"encoding/json"

	"github.com/co-codin/query-compiler/internal/compiler/cerr"
	"github.com/co-codin/query-compiler/internal/platform/validate"
)

// RequestEnvelope is the deframed broker delivery, per SPEC_FULL.md
// section 4.1.
type RequestEnvelope struct {
	GUID       string          `json:"guid"`
	Query      json.RawMessage `json:"query"`
	IdentityID string          `json:"identity_id"`
	RunGUID    string          `json:"run_guid"`
	ConnString string          `json:"conn_string"`
}

// ParseEnvelope decodes raw bytes into a RequestEnvelope. Any parse
// failure, non-object root, or missing required field raises
// cerr.DeserializeJSONQuery carrying the original bytes (truncated for
// logs by the constructor).
func ParseEnvelope(raw []byte) (RequestEnvelope, error) {
	var env RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return RequestEnvelope{}, cerr.DeserializeJSONQuery(raw, err)
	}

	v := &validate.Validator{}
	v.Required("guid", env.GUID)
	v.Required("run_guid", env.RunGUID)
	v.Required("identity_id", env.IdentityID)
	if len(env.Query) == 0 {
		v.Required("query", "")
	}
	if v.HasErrors() {
		return RequestEnvelope{}, cerr.DeserializeJSONQuery(raw, v.Err())
	}

	return env, nil
}

// SuccessResult is the outbound payload published after a successful
// compilation, per SPEC_FULL.md section 6.
type SuccessResult struct {
	GUID       string `json:"guid"`
	RunGUID    string `json:"run_guid"`
	ConnString string `json:"conn_string"`
	Status     string `json:"status"`
	Query      string `json:"query"`
}

// ErrorResult is the outbound payload published on any compilation failure.
type ErrorResult struct {
	GUID    string `json:"guid"`
	RunGUID string `json:"run_guid"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}
