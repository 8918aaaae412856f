package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureLedgerSchema_ValidJSON(t *testing.T) {
	var v interface{}
	err := json.Unmarshal(FailureLedger, &v)
	require.NoError(t, err, "schema file should be valid JSON")

	m, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "array", m["type"])
}
