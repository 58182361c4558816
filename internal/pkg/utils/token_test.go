package utils

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateShareToken(t *testing.T) {
	token, err := GenerateShareToken()
	require.NoError(t, err)

	// 32 字节 RawURL 编码后固定 43 个字符
	assert.Len(t, token, 43)

	// 必须能解码回 32 字节,且不含 URL 不安全字符
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, decoded, 32)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")
}

func TestGenerateShareTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		token, err := GenerateShareToken()
		require.NoError(t, err)
		_, dup := seen[token]
		assert.False(t, dup, "生成了重复的 token: %s", token)
		seen[token] = struct{}{}
	}
}
