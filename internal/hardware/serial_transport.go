package hardware

import (
	"fmt"
	"io"
	"sync"

	"github.com/tarm/serial"
	"github.com/wfunc/modem-gateway/internal/logger"
	"go.uber.org/zap"
)

// SerialTransport 模组字节流传输接口
// 构造时绑定载板的收发引脚和波特率；流控配置必须在 Open 之前完成
type SerialTransport interface {
	io.ReadWriteCloser
	Open() error
	Flush() error
	IsOpen() bool
	SetFlowControl(mode FlowControl, rts, cts Pin) error
}

// UARTTransport 基于串口节点的传输实现
// 构造不会失败（与板级单例的生命周期匹配），真正的设备打开发生在 Open
type UARTTransport struct {
	mu      sync.Mutex
	profile *BoardProfile
	port    *serial.Port
	logger  *zap.Logger

	// 流控配置（Open 时应用到串口驱动）
	fcMode FlowControl
	fcRTS  Pin
	fcCTS  Pin
}

// NewUARTTransport 创建UART传输
func NewUARTTransport(profile *BoardProfile) *UARTTransport {
	return &UARTTransport{
		profile: profile,
		logger:  logger.GetLogger(),
		fcMode:  FlowControlNone,
		fcRTS:   PinNC,
		fcCTS:   PinNC,
	}
}

// SetFlowControl 配置硬件流控
// 只记录期望的模式，电气行为由串口驱动在 Open 时生效
func (t *UARTTransport) SetFlowControl(mode FlowControl, rts, cts Pin) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if mode == FlowControlRTSCTS && (!rts.Connected() || !cts.Connected()) {
		return fmt.Errorf("flow control pins not connected: rts=%d cts=%d", rts, cts)
	}

	t.fcMode = mode
	t.fcRTS = rts
	t.fcCTS = cts

	if t.port != nil {
		// 端口已打开时立即应用
		return applyFlowControl(t.profile.Device, mode == FlowControlRTSCTS)
	}
	return nil
}

// FlowControlMode 返回当前流控模式
func (t *UARTTransport) FlowControlMode() FlowControl {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fcMode
}

// Open 打开串口设备
func (t *UARTTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port != nil {
		return nil
	}

	cfg := &serial.Config{
		Name:        t.profile.Device,
		Baud:        t.profile.BaudRate,
		ReadTimeout: t.profile.ReadTimeout,
	}

	port, err := serial.OpenPort(cfg)
	if err != nil {
		t.logger.Error("打开模组串口失败",
			zap.String("device", t.profile.Device),
			zap.Error(err))
		return fmt.Errorf("open serial port: %w", err)
	}
	t.port = port

	// 应用流控配置（打开串口会重置termios，必须在打开之后设置）
	if t.fcMode == FlowControlRTSCTS {
		if err := applyFlowControl(t.profile.Device, true); err != nil {
			t.logger.Warn("应用硬件流控失败",
				zap.String("device", t.profile.Device),
				zap.Error(err))
		}
	}

	t.logger.Info("模组串口已打开",
		zap.String("device", t.profile.Device),
		zap.Int("baud_rate", t.profile.BaudRate))

	return nil
}

// IsOpen 检查串口是否已打开
func (t *UARTTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Read 读取数据
func (t *UARTTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == nil {
		return 0, fmt.Errorf("transport not open")
	}
	return port.Read(p)
}

// Write 写入数据
func (t *UARTTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == nil {
		return 0, fmt.Errorf("transport not open")
	}
	return port.Write(p)
}

// Flush 清空缓冲区
func (t *UARTTransport) Flush() error {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()

	if port == nil {
		return nil
	}
	return port.Flush()
}

// Close 关闭串口
func (t *UARTTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}
