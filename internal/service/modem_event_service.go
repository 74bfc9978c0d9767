package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/modem-gateway/internal/hardware"
	"github.com/wfunc/modem-gateway/internal/logger"
	"github.com/wfunc/modem-gateway/internal/models"
	"github.com/wfunc/modem-gateway/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ModemEventService 模组事件服务
// 事件由硬件层高频产生，走缓冲通道异步批量入库
type ModemEventService struct {
	repo      *repository.ModemEventRepository
	logger    *zap.Logger
	mu        sync.Mutex
	buffer    []*models.ModemEvent
	bufferCh  chan *models.ModemEvent
	stopCh    chan struct{}
	sessionID string
}

// NewModemEventService 创建模组事件服务
func NewModemEventService(db *gorm.DB) *ModemEventService {
	service := &ModemEventService{
		repo:      repository.NewModemEventRepository(db),
		logger:    logger.GetLogger(),
		buffer:    make([]*models.ModemEvent, 0, 100),
		bufferCh:  make(chan *models.ModemEvent, 1000),
		stopCh:    make(chan struct{}),
		sessionID: uuid.New().String(),
	}

	// 启动后台写入协程
	go service.backgroundWriter()

	return service
}

// backgroundWriter 后台写入协程
func (s *ModemEventService) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Second) // 每5秒批量写入一次
	defer ticker.Stop()

	for {
		select {
		case event := <-s.bufferCh:
			s.mu.Lock()
			s.buffer = append(s.buffer, event)
			// 如果缓冲区满了，立即写入
			if len(s.buffer) >= 100 {
				s.flushBuffer()
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.mu.Lock()
			s.flushBuffer()
			s.mu.Unlock()

		case <-s.stopCh:
			// 退出前写入剩余的事件
			s.mu.Lock()
			s.flushBuffer()
			s.mu.Unlock()
			return
		}
	}
}

// flushBuffer 写入缓冲区的事件到数据库
func (s *ModemEventService) flushBuffer() {
	if len(s.buffer) == 0 {
		return
	}

	if err := s.repo.CreateBatch(s.buffer); err != nil {
		s.logger.Error("批量写入模组事件失败", zap.Error(err))
	} else {
		s.logger.Debug("批量写入模组事件成功", zap.Int("count", len(s.buffer)))
	}

	// 清空缓冲区
	s.buffer = s.buffer[:0]
}

// Record 记录一条硬件事件
func (s *ModemEventService) Record(event *hardware.Event, profile *hardware.BoardProfile) {
	record := &models.ModemEvent{
		EventType: eventTypeToModel(event.Type),
		Level:     models.ModemEventLevelInfo,
		State:     event.State.String(),
		CreatedAt: event.Timestamp,
		Timestamp: event.Timestamp.UnixMilli(),
	}

	if profile != nil {
		record.Device = profile.Device
		record.BaudRate = profile.BaudRate
		if profile.FlowControlReady() {
			record.FlowControl = hardware.FlowControlRTSCTS.String()
		} else {
			record.FlowControl = hardware.FlowControlNone.String()
		}
	}

	if event.Data != nil {
		record.Data = models.JSONData(event.Data)

		// 钩子失败事件提取操作名和错误信息
		if op, ok := event.Data["op"].(string); ok {
			record.HookOp = op
		}
		if errMsg, ok := event.Data["error"].(string); ok {
			record.ErrorMsg = errMsg
		}
	}

	if event.Type == hardware.EventHookFailure {
		record.Level = models.ModemEventLevelWarn
	}

	// 异步写入
	select {
	case s.bufferCh <- record:
	default:
		s.logger.Warn("模组事件缓冲区满，丢弃事件", zap.String("type", string(event.Type)))
	}
}

// eventTypeToModel 硬件事件类型映射到存储模型
func eventTypeToModel(t hardware.EventType) models.ModemEventType {
	switch t {
	case hardware.EventPowerOn:
		return models.ModemEventPowerOn
	case hardware.EventPowerOff:
		return models.ModemEventPowerOff
	case hardware.EventLinkUp:
		return models.ModemEventLinkUp
	case hardware.EventLinkDown:
		return models.ModemEventLinkDown
	case hardware.EventHookFailure:
		return models.ModemEventHookFailure
	case hardware.EventHealthReport:
		return models.ModemEventHealthReport
	default:
		return models.ModemEventType(t)
	}
}

// Query 查询事件
func (s *ModemEventService) Query(query *models.ModemEventQuery) ([]*models.ModemEvent, int64, error) {
	return s.repo.Query(query)
}

// GetStats 获取统计信息
func (s *ModemEventService) GetStats(startTime, endTime *time.Time) (*models.ModemEventStats, error) {
	return s.repo.GetStats(startTime, endTime)
}

// GetLatestEvents 获取最新的事件
func (s *ModemEventService) GetLatestEvents(limit int, eventType models.ModemEventType) ([]*models.ModemEvent, error) {
	return s.repo.GetLatest(limit, eventType)
}

// GetHookFailures 获取钩子失败记录
func (s *ModemEventService) GetHookFailures(limit int) ([]*models.ModemEvent, error) {
	return s.repo.GetHookFailures(limit)
}

// CleanupOldEvents 清理旧事件
func (s *ModemEventService) CleanupOldEvents(retentionDays int) (int64, error) {
	return s.repo.CleanupEvents(retentionDays)
}

// ExportEvents 导出事件为JSON格式
func (s *ModemEventService) ExportEvents(query *models.ModemEventQuery) ([]byte, error) {
	events, _, err := s.Query(query)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(events, "", "  ")
}

// Flush 立即写入缓冲区（测试和关停用）
func (s *ModemEventService) Flush() {
	// 先把通道里积压的事件搬进缓冲区
	for {
		select {
		case event := <-s.bufferCh:
			s.mu.Lock()
			s.buffer = append(s.buffer, event)
			s.mu.Unlock()
		default:
			s.mu.Lock()
			s.flushBuffer()
			s.mu.Unlock()
			return
		}
	}
}

// Close 关闭服务
func (s *ModemEventService) Close() {
	s.Flush()
	close(s.stopCh)
}
