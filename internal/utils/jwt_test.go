package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager(
		"test-secret-key",
		1*time.Hour,    // access token expiry
		7*24*time.Hour, // refresh token expiry
	)
}

// 测试创建JWT管理器
func (suite *JWTTestSuite) TestNewJWTManager() {
	manager := NewJWTManager("secret", 1*time.Hour, 24*time.Hour)
	suite.NotNil(manager)
	// 私有字段无法直接访问，通过GetTokenExpiry间接验证
	suite.Equal(1*time.Hour, manager.GetTokenExpiry("access"))
	suite.Equal(24*time.Hour, manager.GetTokenExpiry("refresh"))
}

// 测试生成访问令牌
func (suite *JWTTestSuite) TestGenerateAccessToken() {
	token, err := suite.manager.GenerateAccessToken(123, "testuser", "operator", "session-123")
	suite.NoError(err)
	suite.NotEmpty(token)
}

// 测试生成刷新令牌
func (suite *JWTTestSuite) TestGenerateRefreshToken() {
	token, err := suite.manager.GenerateRefreshToken(456, "session-456")
	suite.NoError(err)
	suite.NotEmpty(token)
}

// 测试验证令牌
func (suite *JWTTestSuite) TestValidateToken() {
	token, err := suite.manager.GenerateAccessToken(789, "validuser", "admin", "session-789")
	suite.NoError(err)

	claims, err := suite.manager.ValidateToken(token)
	suite.NoError(err)
	suite.Equal(uint(789), claims.UserID)
	suite.Equal("validuser", claims.Username)
	suite.Equal("admin", claims.Role)
	suite.Equal("session-789", claims.SessionID)
	suite.Equal("access", claims.TokenType)
}

// 测试验证非法令牌
func (suite *JWTTestSuite) TestValidateInvalidToken() {
	_, err := suite.manager.ValidateToken("not-a-token")
	suite.Error(err)

	// 用错误密钥签发的令牌
	other := NewJWTManager("other-secret", 1*time.Hour, 24*time.Hour)
	token, err := other.GenerateAccessToken(1, "user", "viewer", "s1")
	suite.NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.Error(err)
}

// 测试过期令牌
func (suite *JWTTestSuite) TestValidateExpiredToken() {
	expired := NewJWTManager("test-secret-key", -1*time.Hour, 24*time.Hour)
	token, err := expired.GenerateAccessToken(1, "user", "viewer", "s1")
	suite.NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.Error(err)
}

// 测试刷新访问令牌
func (suite *JWTTestSuite) TestRefreshAccessToken() {
	refresh, err := suite.manager.GenerateRefreshToken(100, "session-100")
	suite.NoError(err)

	access, err := suite.manager.RefreshAccessToken(refresh, "refreshuser", "operator")
	suite.NoError(err)
	suite.NotEmpty(access)

	claims, err := suite.manager.ValidateToken(access)
	suite.NoError(err)
	suite.Equal(uint(100), claims.UserID)
	suite.Equal("session-100", claims.SessionID)
	suite.Equal("access", claims.TokenType)
}

// 测试用访问令牌冒充刷新令牌
func (suite *JWTTestSuite) TestRefreshWithAccessToken() {
	access, err := suite.manager.GenerateAccessToken(100, "user", "operator", "s1")
	suite.NoError(err)

	_, err = suite.manager.RefreshAccessToken(access, "user", "operator")
	suite.Error(err)
}

func TestJWTTestSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
