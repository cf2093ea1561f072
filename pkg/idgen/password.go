package idgen

import (
	"crypto/rand"
	"math/big"
)

// PasswordAlphabet 随机密码字符集：A-Z a-z 0-9，共 62 个字符
const PasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// PasswordLength 系统生成的顾客密码长度
const PasswordLength = 8

var alphabetSize = big.NewInt(int64(len(PasswordAlphabet)))

// GeneratePassword 生成随机密码
// 每一位独立、均匀地从字符集中抽取（可重复）
func GeneratePassword() (string, error) {
	return generateFrom(PasswordLength)
}

func generateFrom(length int) (string, error) {
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = PasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
