package repository

import (
	"context"
	"time"

	"github.com/wfunc/modem-gateway/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceStatusRepository 设备状态仓储接口
type DeviceStatusRepository interface {
	BaseRepository
	Upsert(ctx context.Context, status *models.DeviceStatus) error
	UpdatePowerState(ctx context.Context, device string, powerState string) error
	UpdateConnection(ctx context.Context, device string, connected bool) error
	IncrementReconnects(ctx context.Context, device string) error
	FindByDevice(ctx context.Context, device string) (*models.DeviceStatus, error)
	FindAll(ctx context.Context) ([]*models.DeviceStatus, error)
}

// deviceStatusRepo 设备状态仓储实现
type deviceStatusRepo struct {
	*BaseRepo
}

// NewDeviceStatusRepository 创建设备状态仓储
func NewDeviceStatusRepository(db *gorm.DB) DeviceStatusRepository {
	return &deviceStatusRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Upsert 创建或更新设备状态快照
func (r *deviceStatusRepo) Upsert(ctx context.Context, status *models.DeviceStatus) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "device"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"power_state", "connected", "baud_rate", "flow_control",
				"reconnects", "power_on_at", "power_off_at", "updated_at",
			}),
		}).
		Create(status).Error
}

// UpdatePowerState 更新电源状态
func (r *deviceStatusRepo) UpdatePowerState(ctx context.Context, device string, powerState string) error {
	updates := map[string]interface{}{
		"power_state": powerState,
	}
	now := time.Now()
	switch powerState {
	case "powered_on":
		updates["power_on_at"] = now
	case "powered_off":
		updates["power_off_at"] = now
	}

	return r.db.WithContext(ctx).
		Model(&models.DeviceStatus{}).
		Where("device = ?", device).
		Updates(updates).Error
}

// UpdateConnection 更新串口连接状态
func (r *deviceStatusRepo) UpdateConnection(ctx context.Context, device string, connected bool) error {
	return r.db.WithContext(ctx).
		Model(&models.DeviceStatus{}).
		Where("device = ?", device).
		Update("connected", connected).Error
}

// IncrementReconnects 累计重连次数
func (r *deviceStatusRepo) IncrementReconnects(ctx context.Context, device string) error {
	return r.db.WithContext(ctx).
		Model(&models.DeviceStatus{}).
		Where("device = ?", device).
		Update("reconnects", gorm.Expr("reconnects + 1")).Error
}

// FindByDevice 根据设备节点查找
func (r *deviceStatusRepo) FindByDevice(ctx context.Context, device string) (*models.DeviceStatus, error) {
	var status models.DeviceStatus
	err := r.db.WithContext(ctx).
		Where("device = ?", device).
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// FindAll 查找所有设备状态
func (r *deviceStatusRepo) FindAll(ctx context.Context) ([]*models.DeviceStatus, error) {
	var statuses []*models.DeviceStatus
	err := r.db.WithContext(ctx).
		Order("device").
		Find(&statuses).Error
	return statuses, err
}

// WithTx 使用事务
func (r *deviceStatusRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &deviceStatusRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
