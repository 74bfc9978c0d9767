package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

// PasswordTestSuite 密码工具测试套件
type PasswordTestSuite struct {
	suite.Suite
}

// 测试密码哈希
func (suite *PasswordTestSuite) TestHashPassword() {
	password := "MySecurePassword123!"

	hash, err := HashPassword(password)
	suite.NoError(err)
	suite.NotEmpty(hash)
	suite.NotEqual(password, hash) // 哈希不应该等于原始密码

	// 哈希应该是argon2id格式
	suite.True(strings.HasPrefix(hash, "$argon2"))
}

// 测试相同密码生成不同哈希
func (suite *PasswordTestSuite) TestHashPasswordUniqueness() {
	password := "SamePassword123"

	hash1, err1 := HashPassword(password)
	hash2, err2 := HashPassword(password)

	suite.NoError(err1)
	suite.NoError(err2)
	suite.NotEqual(hash1, hash2) // 相同密码应该生成不同的哈希（因为salt不同）
}

// 测试密码验证
func (suite *PasswordTestSuite) TestVerifyPassword() {
	password := "CorrectPassword456"
	hash, _ := HashPassword(password)

	// 验证正确的密码
	valid, err := VerifyPassword(password, hash)
	suite.NoError(err)
	suite.True(valid)

	// 验证错误的密码
	valid, err = VerifyPassword("WrongPassword", hash)
	suite.NoError(err)
	suite.False(valid)
}

// 测试非法哈希格式
func (suite *PasswordTestSuite) TestVerifyPasswordInvalidFormat() {
	_, err := VerifyPassword("password", "not-a-hash")
	suite.Error(err)

	_, err = VerifyPassword("password", "$bcrypt$v=19$m=1,t=1,p=1$salt$hash")
	suite.Error(err)
}

// 测试生成随机字符串
func (suite *PasswordTestSuite) TestGenerateRandomString() {
	s1, err1 := GenerateRandomString(32)
	s2, err2 := GenerateRandomString(32)

	suite.NoError(err1)
	suite.NoError(err2)
	suite.Len(s1, 32)
	suite.NotEqual(s1, s2)
}

// 测试生成会话ID
func (suite *PasswordTestSuite) TestGenerateSessionID() {
	id, err := GenerateSessionID()
	suite.NoError(err)
	suite.Len(id, 32)
}

func TestPasswordTestSuite(t *testing.T) {
	suite.Run(t, new(PasswordTestSuite))
}
