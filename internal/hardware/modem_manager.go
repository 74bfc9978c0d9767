package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/modem-gateway/internal/config"
	"github.com/wfunc/modem-gateway/internal/logger"
	"go.uber.org/zap"
)

// ModemManager 模组管理器
// 负责板载模组适配器、串口链路和事件分发的统一管理
type ModemManager struct {
	mu     sync.RWMutex
	logger *zap.Logger

	// 核心组件
	adapter   *OnboardSARA4
	transport SerialTransport
	reconnect *SerialReconnectManager // 仅硬件模式
	profile   *BoardProfile

	// 运行状态
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	state   PowerState

	// 配置
	cfg *config.ModemConfig

	// 统计
	stats   ModemStats
	statsMu sync.RWMutex

	// 事件处理器
	eventHandlers map[string]EventHandler
	handlerMu     sync.RWMutex
}

// NewModemManager 创建模组管理器
func NewModemManager(cfg *config.ModemConfig) *ModemManager {
	ctx, cancel := context.WithCancel(context.Background())

	return &ModemManager{
		logger:        logger.GetLogger(),
		cfg:           cfg,
		profile:       BoardProfileFromConfig(cfg),
		ctx:           ctx,
		cancel:        cancel,
		state:         PoweredOff,
		eventHandlers: make(map[string]EventHandler),
	}
}

// Initialize 初始化模组管理器
func (m *ModemManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("modem manager already running")
	}

	if m.cfg.MockMode {
		// 模拟模式：内存传输+记录型钩子，不触碰真实硬件
		mockTransport := NewMockTransport()
		m.transport = mockTransport
		m.adapter = newOnboardDevice(m.profile, mockTransport, NewMockPowerHooks())
		m.logger.Info("模组管理器运行在模拟模式")
	} else {
		// 硬件模式：通过进程级单例获取板载设备
		SetDefaultProfile(m.profile)
		m.adapter = DefaultDevice()
		m.transport = m.adapter.Transport()

		if uart, ok := m.transport.(*UARTTransport); ok {
			m.reconnect = NewSerialReconnectManager(m.profile, m.cfg.DevicePattern, uart)
			m.reconnect.SetCallbacks(m.onSerialConnect, m.onSerialDisconnect)
		}
	}

	// 钩子失败只累计统计并发事件，不改变操作结果
	m.adapter.SetHookErrorHandler(func(op string, err error) {
		m.statsMu.Lock()
		m.stats.HookErrors++
		m.statsMu.Unlock()

		m.emitEvent(&Event{
			Type:      EventHookFailure,
			State:     m.State(),
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"op":    op,
				"error": err.Error(),
			},
		})
	})

	m.statsMu.Lock()
	m.stats.StartTime = time.Now()
	m.statsMu.Unlock()

	m.logger.Info("模组管理器初始化完成",
		zap.Bool("mock_mode", m.cfg.MockMode),
		zap.String("device", m.profile.Device),
		zap.Int("baud_rate", m.profile.BaudRate),
		zap.Bool("flow_control", m.profile.FlowControlReady()))

	return nil
}

// Start 启动模组管理器
func (m *ModemManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	if m.adapter == nil {
		return fmt.Errorf("modem manager not initialized")
	}

	if m.reconnect != nil {
		if err := m.reconnect.Start(); err != nil {
			return err
		}
	} else {
		if err := m.transport.Open(); err != nil {
			m.logger.Warn("打开模组传输失败", zap.Error(err))
		}
	}

	m.running = true

	// 健康上报循环
	if m.cfg.HealthCheckInterval > 0 {
		go m.healthLoop()
	}

	m.logger.Info("模组管理器已启动")
	return nil
}

// Stop 停止模组管理器
func (m *ModemManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	m.cancel()

	if m.reconnect != nil {
		m.reconnect.Stop()
	} else if m.transport != nil {
		m.transport.Close()
	}

	m.running = false
	m.logger.Info("模组管理器已停止")
	return nil
}

// PowerOn 模组上电
// 适配器层对钩子失败不敏感（总是成功），状态机直接迁移
func (m *ModemManager) PowerOn() error {
	m.mu.Lock()
	if m.adapter == nil {
		m.mu.Unlock()
		return fmt.Errorf("modem manager not initialized")
	}
	adapter := m.adapter
	m.mu.Unlock()

	if err := adapter.PowerOn(); err != nil {
		// 按接口约定不会发生，保留分支以防底层行为变化
		return err
	}

	m.setState(PoweredOn)

	m.statsMu.Lock()
	m.stats.PowerOnCount++
	m.stats.LastPowerOn = time.Now()
	m.statsMu.Unlock()

	m.emitEvent(&Event{
		Type:      EventPowerOn,
		State:     PoweredOn,
		Timestamp: time.Now(),
	})

	m.logger.Info("模组已上电")
	return nil
}

// PowerOff 模组下电
func (m *ModemManager) PowerOff() error {
	m.mu.Lock()
	if m.adapter == nil {
		m.mu.Unlock()
		return fmt.Errorf("modem manager not initialized")
	}
	adapter := m.adapter
	m.mu.Unlock()

	if err := adapter.PowerOff(); err != nil {
		return err
	}

	m.setState(PoweredOff)

	m.statsMu.Lock()
	m.stats.PowerOffCount++
	m.stats.LastPowerOff = time.Now()
	m.statsMu.Unlock()

	m.emitEvent(&Event{
		Type:      EventPowerOff,
		State:     PoweredOff,
		Timestamp: time.Now(),
	})

	m.logger.Info("模组已下电")
	return nil
}

// State 获取当前电源状态
func (m *ModemManager) State() PowerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// setState 迁移电源状态
func (m *ModemManager) setState(state PowerState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

// Adapter 返回板载适配器
func (m *ModemManager) Adapter() *OnboardSARA4 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adapter
}

// Profile 获取板级参数
func (m *ModemManager) Profile() *BoardProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profile
}

// Status 获取状态快照
func (m *ModemManager) Status() *StatusSnapshot {
	m.mu.RLock()
	state := m.state
	connected := m.transport != nil && m.transport.IsOpen()
	device := m.profile.Device
	baud := m.profile.BaudRate
	fc := FlowControlNone
	if m.profile.FlowControlReady() {
		fc = FlowControlRTSCTS
	}
	m.mu.RUnlock()

	m.statsMu.RLock()
	stats := m.stats
	m.statsMu.RUnlock()
	stats.Uptime = time.Since(stats.StartTime)

	if m.reconnect != nil {
		stats.ReconnectCount = m.reconnect.ReconnectCount()
	}

	return &StatusSnapshot{
		State:       state,
		Connected:   connected,
		Device:      device,
		BaudRate:    baud,
		FlowControl: fc,
		Stats:       stats,
	}
}

// RegisterEventHandler 注册事件处理器
func (m *ModemManager) RegisterEventHandler(name string, handler EventHandler) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.eventHandlers[name] = handler
}

// UnregisterEventHandler 注销事件处理器
func (m *ModemManager) UnregisterEventHandler(name string) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	delete(m.eventHandlers, name)
}

// emitEvent 分发事件
func (m *ModemManager) emitEvent(event *Event) {
	m.handlerMu.RLock()
	handlers := make([]EventHandler, 0, len(m.eventHandlers))
	for _, h := range m.eventHandlers {
		handlers = append(handlers, h)
	}
	m.handlerMu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// onSerialConnect 串口连接回调
func (m *ModemManager) onSerialConnect() error {
	m.emitEvent(&Event{
		Type:      EventLinkUp,
		State:     m.State(),
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"device": m.reconnect.GetCurrentDevice(),
		},
	})
	return nil
}

// onSerialDisconnect 串口断开回调
func (m *ModemManager) onSerialDisconnect() {
	m.emitEvent(&Event{
		Type:      EventLinkDown,
		State:     m.State(),
		Timestamp: time.Now(),
	})
}

// healthLoop 健康上报循环
func (m *ModemManager) healthLoop() {
	ticker := time.NewTicker(m.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			status := m.Status()
			m.emitEvent(&Event{
				Type:      EventHealthReport,
				State:     status.State,
				Timestamp: time.Now(),
				Data: map[string]interface{}{
					"connected":       status.Connected,
					"uptime_seconds":  int64(status.Stats.Uptime.Seconds()),
					"power_on_count":  status.Stats.PowerOnCount,
					"power_off_count": status.Stats.PowerOffCount,
					"hook_errors":     status.Stats.HookErrors,
				},
			})
		}
	}
}
