package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-blog/pkg/log"
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.New(log.Config{Output: &buf}))

	Log(ctx, ActionCreatePost, "u-1", "post:7", "post created")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	assert.Equal(t, ActionCreatePost, entry[FieldAction])
	assert.Equal(t, "u-1", entry[log.FieldUserID])
	assert.Equal(t, "post:7", entry[FieldTarget])
}
