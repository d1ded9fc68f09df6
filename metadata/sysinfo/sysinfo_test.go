package sysinfo

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainstamp/ChainStamp/tracer"
)

func TestCollect(t *testing.T) {
	info := Collect()

	assert.Equal(t, fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH), info["os"])
	assert.Equal(t, runtime.Version(), info["runtime"])

	ts, ok := info["timestamp"].(int64)
	require.True(t, ok)
	assert.Greater(t, ts, int64(0))
}

func TestApply(t *testing.T) {
	acc := tracer.NewAccumulator("experiment")
	Apply(acc)

	fields := acc.Fields()
	require.Contains(t, fields, FieldName)

	info, ok := fields[FieldName].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, info, "os")
	assert.Contains(t, info, "runtime")
	assert.Contains(t, info, "timestamp")
}
