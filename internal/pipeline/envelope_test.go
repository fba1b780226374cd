package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/co-codin/query-compiler/internal/pipeline"
)

func TestParseEnvelope_Valid(t *testing.T) {
	raw := []byte(`{
		"guid": "g-1",
		"run_guid": "r-1",
		"identity_id": "u-1",
		"query": {"attributes": [{"attr": {"db_link": "patient.id"}}]}
	}`)

	env, err := pipeline.ParseEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "g-1", env.GUID)
	assert.Equal(t, "r-1", env.RunGUID)
	assert.Equal(t, "u-1", env.IdentityID)
	assert.NotEmpty(t, env.Query)
}

func TestParseEnvelope_MissingRequiredFields(t *testing.T) {
	raw := []byte(`{"guid": "g-1"}`)
	_, err := pipeline.ParseEnvelope(raw)
	require.Error(t, err)
}

func TestParseEnvelope_EmptyQueryIsRejected(t *testing.T) {
	raw := []byte(`{"guid": "g-1", "run_guid": "r-1", "identity_id": "u-1"}`)
	_, err := pipeline.ParseEnvelope(raw)
	require.Error(t, err)
}

func TestParseEnvelope_MalformedJSON(t *testing.T) {
	_, err := pipeline.ParseEnvelope([]byte(`not json`))
	assert.Error(t, err)
}
