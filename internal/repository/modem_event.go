package repository

import (
	"fmt"
	"time"

	"github.com/wfunc/modem-gateway/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModemEventRepository 模组事件仓库
type ModemEventRepository struct {
	db *gorm.DB
}

// NewModemEventRepository 创建模组事件仓库
func NewModemEventRepository(db *gorm.DB) *ModemEventRepository {
	return &ModemEventRepository{
		db: db,
	}
}

// Create 创建事件记录
func (r *ModemEventRepository) Create(event *models.ModemEvent) error {
	return r.db.Create(event).Error
}

// CreateBatch 批量创建事件记录
func (r *ModemEventRepository) CreateBatch(events []*models.ModemEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.CreateInBatches(events, 100).Error
}

// GetByID 根据ID获取事件
func (r *ModemEventRepository) GetByID(id uint) (*models.ModemEvent, error) {
	var event models.ModemEvent
	err := r.db.First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// Query 查询事件
func (r *ModemEventRepository) Query(query *models.ModemEventQuery) ([]*models.ModemEvent, int64, error) {
	db := r.db.Model(&models.ModemEvent{})

	// 构建查询条件
	if query.EventType != "" {
		db = db.Where("event_type = ?", query.EventType)
	}
	if query.Level != "" {
		db = db.Where("level = ?", query.Level)
	}
	if query.State != "" {
		db = db.Where("state = ?", query.State)
	}
	if query.Device != "" {
		db = db.Where("device = ?", query.Device)
	}
	if query.HookOp != "" {
		db = db.Where("hook_op = ?", query.HookOp)
	}
	if query.HasError != nil && *query.HasError {
		db = db.Where("error_msg IS NOT NULL AND error_msg != ''")
	}
	if query.StartTime != nil {
		db = db.Where("created_at >= ?", *query.StartTime)
	}
	if query.EndTime != nil {
		db = db.Where("created_at <= ?", *query.EndTime)
	}

	// 获取总数
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 排序
	orderBy := query.OrderBy
	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	db = db.Order(orderBy)

	// 分页
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}
	if query.Offset > 0 {
		db = db.Offset(query.Offset)
	}

	// 查询数据
	var events []*models.ModemEvent
	if err := db.Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// GetStats 获取统计信息
func (r *ModemEventRepository) GetStats(startTime, endTime *time.Time) (*models.ModemEventStats, error) {
	stats := &models.ModemEventStats{}
	db := r.db.Model(&models.ModemEvent{})

	// 时间范围过滤
	if startTime != nil {
		db = db.Where("created_at >= ?", *startTime)
	}
	if endTime != nil {
		db = db.Where("created_at <= ?", *endTime)
	}

	// 总数统计
	if err := db.Count(&stats.TotalCount).Error; err != nil {
		return nil, err
	}

	// 分类统计
	typeCounts := []struct {
		eventType models.ModemEventType
		target    *int64
	}{
		{models.ModemEventPowerOn, &stats.TotalPowerOn},
		{models.ModemEventPowerOff, &stats.TotalPowerOff},
		{models.ModemEventLinkUp, &stats.TotalLinkUp},
		{models.ModemEventLinkDown, &stats.TotalLinkDown},
		{models.ModemEventHookFailure, &stats.TotalHookFail},
	}
	for _, tc := range typeCounts {
		if err := r.db.Model(&models.ModemEvent{}).
			Where("event_type = ?", tc.eventType).
			Count(tc.target).Error; err != nil {
			return nil, err
		}
	}

	// 错误统计
	if err := r.db.Model(&models.ModemEvent{}).
		Where("error_msg IS NOT NULL AND error_msg != ''").
		Count(&stats.TotalErrors).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// GetLatest 获取最新的事件记录
func (r *ModemEventRepository) GetLatest(limit int, eventType models.ModemEventType) ([]*models.ModemEvent, error) {
	var events []*models.ModemEvent
	db := r.db.Order("created_at DESC").Limit(limit)
	if eventType != "" {
		db = db.Where("event_type = ?", eventType)
	}
	err := db.Find(&events).Error
	return events, err
}

// GetHookFailures 获取钩子失败记录
func (r *ModemEventRepository) GetHookFailures(limit int) ([]*models.ModemEvent, error) {
	var events []*models.ModemEvent
	err := r.db.Where("event_type = ?", models.ModemEventHookFailure).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// DeleteOldEvents 删除旧事件
func (r *ModemEventRepository) DeleteOldEvents(beforeTime time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", beforeTime).Delete(&models.ModemEvent{})
	return result.RowsAffected, result.Error
}

// CleanupEvents 清理事件（保留最近N天的数据）
func (r *ModemEventRepository) CleanupEvents(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be greater than 0")
	}
	beforeTime := time.Now().AddDate(0, 0, -retentionDays)
	return r.DeleteOldEvents(beforeTime)
}

// BulkInsertWithConflict 批量插入（忽略冲突）
func (r *ModemEventRepository) BulkInsertWithConflict(events []*models.ModemEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		DoNothing: true,
	}).CreateInBatches(events, 100).Error
}
