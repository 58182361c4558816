package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// shareTokenBytes 分享 token 的随机字节数，256 bit 熵
// 编码后为 43 个 URL 安全字符，无填充
const shareTokenBytes = 32

// GenerateShareToken 生成一个不可猜测的分享 token
// 必须使用加密安全的随机源，时间戳/计数器/math.rand 都不可接受
// 生成本身不保证唯一，唯一性由数据库唯一索引兜底
func GenerateShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
