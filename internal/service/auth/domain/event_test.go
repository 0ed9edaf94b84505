package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventKindTopic(t *testing.T) {
	assert.Equal(t, "users.registration", EventRegistration.Topic())
	assert.Equal(t, "users.delete", EventDelete.Topic())
	assert.Empty(t, EventKind("bogus").Topic())
}

// 快照的线格式是跨服务契约，字段名不能漂移。
func TestUserSnapshotWireFormat(t *testing.T) {
	b, err := json.Marshal(UserSnapshot{UUID: "u-1", Email: "ada@example.com", IsActive: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"uuid":"u-1","email":"ada@example.com","is_active":true}`, string(b))
}
