package hardware

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/wfunc/modem-gateway/internal/logger"
	"go.uber.org/zap"
)

// SerialPortExists 检查串口设备是否存在
func SerialPortExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SerialReconnectManager 模组串口重连管理器
// USB挂载的模组节点（ttyUSBx/ttyACMx）在模组重启时会消失再出现，
// 固定UART节点（ttymxcx）则只在驱动异常时需要重开
type SerialReconnectManager struct {
	devicePattern  string        // 设备名称模式（如 "ttyUSB"）
	transport      *UARTTransport
	profile        *BoardProfile
	logger         *zap.Logger

	connected      bool
	reconnecting   bool
	lastDevicePath string // 最后成功连接的设备路径
	reconnectCount uint64

	onConnect    func() error // 连接成功回调
	onDisconnect func()       // 断开连接回调

	stopCh      chan struct{}
	reconnectCh chan struct{}
	mu          sync.RWMutex
}

// NewSerialReconnectManager 创建串口重连管理器
func NewSerialReconnectManager(profile *BoardProfile, pattern string, transport *UARTTransport) *SerialReconnectManager {
	return &SerialReconnectManager{
		devicePattern: pattern,
		transport:     transport,
		profile:       profile,
		logger:        logger.GetLogger(),
		reconnectCh:   make(chan struct{}, 1),
	}
}

// SetCallbacks 设置回调函数
func (m *SerialReconnectManager) SetCallbacks(onConnect func() error, onDisconnect func()) {
	m.onConnect = onConnect
	m.onDisconnect = onDisconnect
}

// Start 启动管理器
func (m *SerialReconnectManager) Start() error {
	m.mu.Lock()
	if m.stopCh != nil {
		m.mu.Unlock()
		return fmt.Errorf("重连管理器已启动")
	}
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	// 尝试初始连接
	if err := m.connect(); err != nil {
		m.logger.Warn("初始连接失败，将在后台重试",
			zap.String("pattern", m.devicePattern),
			zap.Error(err))
		m.triggerReconnect()
	}

	// 启动重连监控
	go m.reconnectLoop()

	return nil
}

// Stop 停止管理器
func (m *SerialReconnectManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}

	if m.connected {
		m.transport.Close()
		m.connected = false
	}
}

// TriggerReconnect 手动触发重连（用于错误处理）
func (m *SerialReconnectManager) TriggerReconnect() {
	m.triggerReconnect()
}

// triggerReconnect 内部触发重连
func (m *SerialReconnectManager) triggerReconnect() {
	select {
	case m.reconnectCh <- struct{}{}:
	default:
		// 已经有重连请求在队列中
	}
}

// IsConnected 检查连接状态
func (m *SerialReconnectManager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// GetCurrentDevice 获取当前设备路径
func (m *SerialReconnectManager) GetCurrentDevice() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastDevicePath
}

// ReconnectCount 获取累计重连次数
func (m *SerialReconnectManager) ReconnectCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reconnectCount
}

// connect 执行连接
func (m *SerialReconnectManager) connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 查找设备
	device := m.findDevice()
	if device == "" {
		return fmt.Errorf("未找到模组串口设备: %s", m.devicePattern)
	}

	m.profile.Device = device

	if err := m.transport.Open(); err != nil {
		return fmt.Errorf("打开串口失败: %w", err)
	}

	m.lastDevicePath = device
	m.connected = true

	m.logger.Info("模组串口连接成功", zap.String("device", device))

	// 调用连接回调
	if m.onConnect != nil {
		if err := m.onConnect(); err != nil {
			m.logger.Error("连接回调失败", zap.Error(err))
			m.transport.Close()
			m.connected = false
			return err
		}
	}

	return nil
}

// disconnect 断开连接
func (m *SerialReconnectManager) disconnect() {
	m.mu.Lock()
	wasConnected := m.connected
	if m.connected {
		m.transport.Close()
		m.connected = false
	}
	m.mu.Unlock()

	if wasConnected && m.onDisconnect != nil {
		m.onDisconnect()
	}
}

// findDevice 查找设备
func (m *SerialReconnectManager) findDevice() string {
	// 优先尝试配置的固定节点
	if m.profile.Device != "" && SerialPortExists(m.profile.Device) {
		return m.profile.Device
	}

	// 优先尝试最后成功的设备
	if m.lastDevicePath != "" && SerialPortExists(m.lastDevicePath) {
		return m.lastDevicePath
	}

	// 搜索所有可能的设备
	for i := 0; i < 10; i++ {
		device := fmt.Sprintf("/dev/%s%d", m.devicePattern, i)
		if SerialPortExists(device) {
			m.logger.Info("找到模组设备", zap.String("device", device))
			return device
		}
	}

	return ""
}

// reconnectLoop 重连循环
func (m *SerialReconnectManager) reconnectLoop() {
	reconnectInterval := 5 * time.Second
	maxInterval := 30 * time.Second

	m.mu.RLock()
	stopCh := m.stopCh
	m.mu.RUnlock()

	for {
		select {
		case <-stopCh:
			m.logger.Info("停止重连循环", zap.String("pattern", m.devicePattern))
			return

		case <-m.reconnectCh:
			m.mu.Lock()
			if m.reconnecting {
				m.mu.Unlock()
				continue
			}
			m.reconnecting = true
			m.mu.Unlock()

			// 断开现有连接
			m.disconnect()

			// 尝试重连
			retryCount := 0
			interval := reconnectInterval
			for {
				select {
				case <-stopCh:
					m.mu.Lock()
					m.reconnecting = false
					m.mu.Unlock()
					return
				default:
				}

				retryCount++

				if err := m.connect(); err == nil {
					m.mu.Lock()
					m.reconnecting = false
					m.reconnectCount++
					m.mu.Unlock()

					m.logger.Info("模组串口重连成功",
						zap.String("device", m.GetCurrentDevice()),
						zap.Int("retry_count", retryCount))
					break
				} else {
					m.logger.Warn("重连失败，等待重试",
						zap.Error(err),
						zap.Duration("interval", interval))
				}

				time.Sleep(interval)

				// 指数退避
				interval *= 2
				if interval > maxInterval {
					interval = maxInterval
				}
			}
		}
	}
}
