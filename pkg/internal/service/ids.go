package service

import (
	crand "crypto/rand"
	"math/big"
	"sync"
	"time"

	"github.com/oklog/ulid"
)

const (
	// FileIDPrefix 文件 id 前缀.
	FileIDPrefix = "fl_"
	// UserIDPrefix 用户 id 前缀.
	UserIDPrefix = "usr_"

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	// 单调熵源保证同一毫秒内生成的 ULID 仍然有序；ulid.Monotonic 本身不是并发安全的.
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(crand.Reader, 0)
)

// newID 生成带前缀的 ULID.
func newID(prefix string) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return prefix + ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// GenerateCode 生成 length 位字母数字访问码（crypto/rand）.
func GenerateCode(length int) (string, error) {
	limit := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, length)

	for i := range b {
		n, err := crand.Int(crand.Reader, limit)
		if err != nil {
			return "", err
		}

		b[i] = codeAlphabet[n.Int64()]
	}

	return string(b), nil
}

// GenerateCodes 生成 n 个互不相同的访问码.
func GenerateCodes(n, length int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)

	for len(out) < n {
		c, err := GenerateCode(length)
		if err != nil {
			return nil, err
		}

		if _, dup := seen[c]; dup {
			continue
		}

		seen[c] = struct{}{}
		out = append(out, c)
	}

	return out, nil
}
