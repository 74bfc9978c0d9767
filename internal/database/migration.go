package database

import (
	"fmt"

	"github.com/wfunc/modem-gateway/internal/logger"
	"github.com/wfunc/modem-gateway/internal/models"
	"github.com/wfunc/modem-gateway/internal/utils"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	migrationModels := []interface{}{
		// 用户相关
		&models.User{},
		&models.UserSession{},

		// 模组相关
		&models.ModemEvent{},
		&models.DeviceStatus{},
	}

	logger.Info("开始数据库迁移...")

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// 初始化默认数据
	if err := initDefaultData(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// initDefaultData 初始化默认数据
func initDefaultData() error {
	// 没有任何用户时创建默认管理员，首次登录后应立即改密
	var count int64
	if err := DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := utils.HashPassword("admin123")
	if err != nil {
		return fmt.Errorf("生成默认管理员密码失败: %w", err)
	}

	admin := &models.User{
		Username: "admin",
		Nickname: "管理员",
		Password: hashed,
		Role:     "admin",
		Status:   "active",
	}
	if err := DB.Create(admin).Error; err != nil {
		return fmt.Errorf("创建默认管理员失败: %w", err)
	}

	logger.Info("已创建默认管理员账户", zap.String("username", admin.Username))
	return nil
}
