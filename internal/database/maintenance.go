package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/wfunc/modem-gateway/internal/logger"
	"go.uber.org/zap"
)

// CheckIntegrity 对SQLite数据库做完整性检查
// 绕过GORM直接用原生驱动打开，避免检查期间占用业务连接池
func CheckIntegrity(ctx context.Context) error {
	dbPath := getDBPath()
	if dbPath == "" {
		// 非SQLite数据库不做文件级检查
		return nil
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("打开数据库文件失败: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("完整性检查失败: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("数据库完整性检查未通过: %s", result)
	}

	logger.Debug("数据库完整性检查通过", zap.String("path", dbPath))
	return nil
}

// Vacuum 压缩SQLite数据库文件
// 事件表长期运行会产生大量删除空洞，定期回收
func Vacuum(ctx context.Context) error {
	dbPath := getDBPath()
	if dbPath == "" {
		return nil
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("打开数据库文件失败: %w", err)
	}
	defer db.Close()

	start := time.Now()
	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("数据库压缩失败: %w", err)
	}

	logger.Info("数据库压缩完成",
		zap.String("path", dbPath),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// CleanupOldEvents 清理过期的模组事件记录
func CleanupOldEvents(retention time.Duration) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("数据库未初始化")
	}

	cutoff := time.Now().Add(-retention)
	result := DB.Exec("DELETE FROM modem_events WHERE created_at < ?", cutoff)
	if result.Error != nil {
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.Info("清理过期事件记录",
			zap.Int64("rows", result.RowsAffected),
			zap.Time("cutoff", cutoff))
	}
	return result.RowsAffected, nil
}
