package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wfunc/modem-gateway/internal/models"
	"github.com/wfunc/modem-gateway/internal/repository"
	"github.com/wfunc/modem-gateway/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserBanned         = errors.New("用户已被封禁")
	ErrSessionNotFound    = errors.New("会话不存在")
	ErrInvalidToken       = errors.New("无效的令牌")
	ErrTokenExpired       = errors.New("令牌已过期")
)

// authService 认证服务实现
type authService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:         db,
		userRepo:   userRepo,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Login 用户登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil || user == nil {
		s.log.Warn("登录失败：用户不存在", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	// 检查用户状态
	if user.Status == "banned" {
		return nil, ErrUserBanned
	}
	if !user.CanLogin() {
		return nil, ErrInvalidCredentials
	}

	// 验证密码
	valid, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !valid {
		s.log.Warn("登录失败：密码错误", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	// 创建会话
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("生成会话ID失败: %w", err)
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(
		user.ID, user.Username, user.Role, sessionID)
	if err != nil {
		return nil, fmt.Errorf("生成访问令牌失败: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("生成刷新令牌失败: %w", err)
	}

	session := &models.UserSession{
		UserID:       user.ID,
		SessionID:    sessionID,
		Token:        accessToken,
		IP:           req.IP,
		UserAgent:    req.Device,
		IsOnline:     true,
		LastActiveAt: time.Now(),
		ExpireAt:     time.Now().Add(s.jwtManager.GetTokenExpiry("refresh")),
	}
	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		s.log.Error("创建会话失败", zap.Error(err))
		return nil, fmt.Errorf("创建会话失败: %w", err)
	}

	// 更新登录信息
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, req.IP); err != nil {
		s.log.Warn("更新登录信息失败", zap.Error(err), zap.Uint("user_id", user.ID))
	}

	s.log.Info("用户登录成功",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("ip", req.IP))

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// Logout 用户登出
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.userRepo.InvalidateSession(ctx, sessionID); err != nil {
		s.log.Error("登出失败", zap.Error(err), zap.String("session_id", sessionID))
		return err
	}
	s.log.Info("用户登出", zap.String("session_id", sessionID))
	return nil
}

// RefreshToken 刷新访问令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	// 会话必须还在线
	session, err := s.userRepo.FindSessionByID(ctx, claims.SessionID)
	if err != nil || !session.IsOnline {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrTokenExpired
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(
		user.ID, user.Username, user.Role, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("生成访问令牌失败: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken 验证访问令牌
func (s *authService) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		SessionID: claims.SessionID,
	}, nil
}

// ValidateSession 验证会话
func (s *authService) ValidateSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	session, err := s.userRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}
	if !session.IsOnline {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrTokenExpired
	}
	return session, nil
}

// ChangePassword 修改密码
func (s *authService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}

	valid, err := utils.VerifyPassword(oldPassword, user.Password)
	if err != nil || !valid {
		return ErrInvalidCredentials
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("密码加密失败: %w", err)
	}

	user.Password = hashed
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("更新密码失败: %w", err)
	}

	s.log.Info("用户修改密码", zap.Uint("user_id", userID))
	return nil
}
