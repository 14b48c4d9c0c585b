package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_Defaults(t *testing.T) {
	info := Current("faultdesk")
	assert.Equal(t, Info{Service: "faultdesk", Version: "dev", Commit: "dev", BuildTime: "unknown"}, info)
	assert.Equal(t, "faultdesk dev (commit dev, built unknown)", info.String())
}

func TestCurrent_ReflectsLinkerOverrides(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "v1.4.0"

	raw, err := json.Marshal(Current("faultdesk-adm"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"service":"faultdesk-adm","version":"v1.4.0","commit":"dev","buildTime":"unknown"}`, string(raw))
}
