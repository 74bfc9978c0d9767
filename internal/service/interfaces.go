package service

import (
	"context"
	"time"

	"github.com/wfunc/modem-gateway/internal/hardware"
	"github.com/wfunc/modem-gateway/internal/models"
)

// AuthService 认证服务接口
type AuthService interface {
	// 登录登出
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Logout(ctx context.Context, sessionID string) error
	RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error)

	// 验证
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	ValidateSession(ctx context.Context, sessionID string) (*models.UserSession, error)

	// 密码相关
	ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error
}

// ModemService 模组服务接口
type ModemService interface {
	// 电源控制
	PowerOn(ctx context.Context) error
	PowerOff(ctx context.Context) error

	// 状态查询
	Status(ctx context.Context) (*hardware.StatusSnapshot, error)

	// 事件查询
	QueryEvents(ctx context.Context, query *models.ModemEventQuery) ([]*models.ModemEvent, int64, error)
	EventStats(ctx context.Context, startTime, endTime *time.Time) (*models.ModemEventStats, error)
	RecentHookFailures(ctx context.Context, limit int) ([]*models.ModemEvent, error)

	// 生命周期
	Start() error
	Stop() error
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	IP       string `json:"-"` // 客户端IP，由handler设置
	Device   string `json:"-"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	TokenType    string       `json:"token_type"`
}

// TokenClaims 令牌信息
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}
