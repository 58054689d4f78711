package shared

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID(t *testing.T) {
	t.Run("empty without middleware", func(t *testing.T) {
		assert.Empty(t, GetTraceID(context.Background()))
	})

	t.Run("set trace id is 32 hex chars", func(t *testing.T) {
		ctx := SetTraceID(context.Background())
		traceID := GetTraceID(ctx)
		require.Len(t, traceID, 32)
		_, err := hex.DecodeString(traceID)
		assert.NoError(t, err)
	})

	t.Run("wrong type is ignored", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), TraceIDKey, 42)
		assert.Empty(t, GetTraceID(ctx))
	})
}

func TestIdentity(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)
	_, ok = RoleFromContext(context.Background())
	assert.False(t, ok)

	userID := uuid.New()
	ctx := WithIdentity(context.Background(), userID, domain.RoleSuperAdmin)

	gotID, ok := UserIDFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, userID, gotID)

	role, ok := RoleFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, domain.RoleSuperAdmin, role)

	_, ok = UserIDFromContext(WithIdentity(context.Background(), uuid.Nil, domain.RoleUser))
	assert.False(t, ok, "nil user id is not an identity")
}
