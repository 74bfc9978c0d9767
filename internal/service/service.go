package service

import (
	"time"

	"github.com/wfunc/modem-gateway/internal/hardware"
	"github.com/wfunc/modem-gateway/internal/repository"
	"github.com/wfunc/modem-gateway/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config 服务配置
type Config struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		JWTSecret:          "your-secret-key-change-in-production",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Services 服务集合
type Services struct {
	Auth       AuthService
	Modem      ModemService
	ModemEvent *ModemEventService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, manager *hardware.ModemManager, config *Config, log *zap.Logger) *Services {
	// 初始化仓储
	userRepo := repository.NewUserRepository(db)

	// 初始化JWT管理器
	jwtManager := utils.NewJWTManager(
		config.JWTSecret,
		config.AccessTokenExpiry,
		config.RefreshTokenExpiry,
	)

	// 初始化服务
	authService := NewAuthService(db, userRepo, jwtManager, log)
	eventService := NewModemEventService(db)
	modemService := NewModemService(db, manager, eventService, log)

	return &Services{
		Auth:       authService,
		Modem:      modemService,
		ModemEvent: eventService,
	}
}

// SetBroadcaster 注入WebSocket事件广播器
func (s *Services) SetBroadcaster(b EventBroadcaster) {
	if ms, ok := s.Modem.(*modemService); ok {
		ms.SetBroadcaster(b)
	}
}

// Close 关闭服务集合
func (s *Services) Close() {
	if s.ModemEvent != nil {
		s.ModemEvent.Close()
	}
}
