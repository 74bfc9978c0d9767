package service

import (
	"context"
	"time"

	"github.com/wfunc/modem-gateway/internal/hardware"
	"github.com/wfunc/modem-gateway/internal/models"
	"github.com/wfunc/modem-gateway/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EventBroadcaster 事件广播回调（由WebSocket层注入）
type EventBroadcaster func(event *hardware.Event)

// modemService 模组服务实现
// 把硬件管理器、事件入库和状态快照表粘在一起
type modemService struct {
	manager      *hardware.ModemManager
	eventService *ModemEventService
	statusRepo   repository.DeviceStatusRepository
	log          *zap.Logger
	broadcaster  EventBroadcaster
}

// NewModemService 创建模组服务
func NewModemService(
	db *gorm.DB,
	manager *hardware.ModemManager,
	eventService *ModemEventService,
	log *zap.Logger,
) ModemService {
	return &modemService{
		manager:      manager,
		eventService: eventService,
		statusRepo:   repository.NewDeviceStatusRepository(db),
		log:          log,
	}
}

// SetBroadcaster 注入事件广播器
func (s *modemService) SetBroadcaster(b EventBroadcaster) {
	s.broadcaster = b
}

// Start 启动模组服务
func (s *modemService) Start() error {
	if err := s.manager.Initialize(); err != nil {
		return err
	}

	// 硬件事件入库+广播
	s.manager.RegisterEventHandler("persistence", s.onEvent)

	if err := s.manager.Start(); err != nil {
		return err
	}

	// 写入初始状态快照
	s.syncDeviceStatus(context.Background())
	return nil
}

// Stop 停止模组服务
func (s *modemService) Stop() error {
	s.manager.UnregisterEventHandler("persistence")
	return s.manager.Stop()
}

// onEvent 处理硬件事件
func (s *modemService) onEvent(event *hardware.Event) {
	profile := s.manager.Profile()
	s.eventService.Record(event, profile)

	// 事件驱动的状态快照更新
	ctx := context.Background()
	switch event.Type {
	case hardware.EventPowerOn:
		if err := s.statusRepo.UpdatePowerState(ctx, profile.Device, hardware.PoweredOn.String()); err != nil {
			s.log.Warn("更新电源状态快照失败", zap.Error(err))
		}
	case hardware.EventPowerOff:
		if err := s.statusRepo.UpdatePowerState(ctx, profile.Device, hardware.PoweredOff.String()); err != nil {
			s.log.Warn("更新电源状态快照失败", zap.Error(err))
		}
	case hardware.EventLinkUp:
		if err := s.statusRepo.UpdateConnection(ctx, profile.Device, true); err != nil {
			s.log.Warn("更新连接状态快照失败", zap.Error(err))
		}
		if err := s.statusRepo.IncrementReconnects(ctx, profile.Device); err != nil {
			s.log.Warn("更新重连计数失败", zap.Error(err))
		}
	case hardware.EventLinkDown:
		if err := s.statusRepo.UpdateConnection(ctx, profile.Device, false); err != nil {
			s.log.Warn("更新连接状态快照失败", zap.Error(err))
		}
	}

	if s.broadcaster != nil {
		s.broadcaster(event)
	}
}

// syncDeviceStatus 把当前硬件状态写入快照表
func (s *modemService) syncDeviceStatus(ctx context.Context) {
	status := s.manager.Status()

	record := &models.DeviceStatus{
		Device:      status.Device,
		PowerState:  status.State.String(),
		Connected:   status.Connected,
		BaudRate:    status.BaudRate,
		FlowControl: status.FlowControl.String(),
		Reconnects:  status.Stats.ReconnectCount,
	}
	if err := s.statusRepo.Upsert(ctx, record); err != nil {
		s.log.Warn("写入设备状态快照失败", zap.Error(err))
	}
}

// PowerOn 模组上电
func (s *modemService) PowerOn(ctx context.Context) error {
	start := time.Now()
	if err := s.manager.PowerOn(); err != nil {
		return err
	}
	s.log.Info("模组上电完成", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// PowerOff 模组下电
func (s *modemService) PowerOff(ctx context.Context) error {
	start := time.Now()
	if err := s.manager.PowerOff(); err != nil {
		return err
	}
	s.log.Info("模组下电完成", zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Status 获取当前状态
func (s *modemService) Status(ctx context.Context) (*hardware.StatusSnapshot, error) {
	return s.manager.Status(), nil
}

// QueryEvents 查询历史事件
func (s *modemService) QueryEvents(ctx context.Context, query *models.ModemEventQuery) ([]*models.ModemEvent, int64, error) {
	return s.eventService.Query(query)
}

// EventStats 事件统计
func (s *modemService) EventStats(ctx context.Context, startTime, endTime *time.Time) (*models.ModemEventStats, error) {
	return s.eventService.GetStats(startTime, endTime)
}

// RecentHookFailures 最近的钩子失败记录
func (s *modemService) RecentHookFailures(ctx context.Context, limit int) ([]*models.ModemEvent, error) {
	return s.eventService.GetHookFailures(limit)
}
