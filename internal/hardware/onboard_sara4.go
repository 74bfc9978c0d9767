package hardware

import (
	"sync"
	"sync/atomic"

	"github.com/wfunc/modem-gateway/internal/logger"
	"go.uber.org/zap"
)

// SARA4Driver SARA-R4 模组驱动基类
// 只持有字节流传输；AT/PPP协议栈在上层网络框架里，不在本包范围
type SARA4Driver struct {
	transport SerialTransport
	logger    *zap.Logger
}

// NewSARA4Driver 创建模组驱动
func NewSARA4Driver(transport SerialTransport) *SARA4Driver {
	return &SARA4Driver{
		transport: transport,
		logger:    logger.GetLogger(),
	}
}

// Transport 返回底层字节流传输
func (d *SARA4Driver) Transport() SerialTransport {
	return d.transport
}

// OnboardSARA4 板载SARA-R4适配器
// 把通用模组驱动适配到本载板：两个电源生命周期操作委托给
// 板级电源时序钩子。按既有约定两个操作总是返回成功，
// 钩子的真实失败只记录日志和计数，不向调用方传播
type OnboardSARA4 struct {
	*SARA4Driver

	hooks   PowerHooks
	powered atomic.Bool

	// 钩子失败观察回调（管理器用来累计统计，不影响返回值）
	onHookError func(op string, err error)
}

// NewOnboardSARA4 创建板载适配器
func NewOnboardSARA4(transport SerialTransport, hooks PowerHooks) *OnboardSARA4 {
	return &OnboardSARA4{
		SARA4Driver: NewSARA4Driver(transport),
		hooks:       hooks,
	}
}

// SetHookErrorHandler 设置钩子失败观察回调
func (m *OnboardSARA4) SetHookErrorHandler(handler func(op string, err error)) {
	m.onHookError = handler
}

// PowerOn 上电：先初始化板级资源，再发开机脉冲
// 总是返回 nil——钩子失败对调用方不可见，这是既有接口约定
func (m *OnboardSARA4) PowerOn() error {
	if err := m.hooks.Init(); err != nil {
		m.reportHookError("init", err)
	}
	if err := m.hooks.PowerUp(); err != nil {
		m.reportHookError("power_up", err)
	}

	m.powered.Store(true)
	return nil
}

// PowerOff 下电：先发关机脉冲，再释放板级资源
// 总是返回 nil，与 PowerOn 同样的接口约定
func (m *OnboardSARA4) PowerOff() error {
	if err := m.hooks.PowerDown(); err != nil {
		m.reportHookError("power_down", err)
	}
	if err := m.hooks.Deinit(); err != nil {
		m.reportHookError("deinit", err)
	}

	m.powered.Store(false)
	return nil
}

// IsPowered 返回当前电源状态
func (m *OnboardSARA4) IsPowered() bool {
	return m.powered.Load()
}

// Hooks 返回板级电源时序钩子
func (m *OnboardSARA4) Hooks() PowerHooks {
	return m.hooks
}

// reportHookError 记录钩子失败
func (m *OnboardSARA4) reportHookError(op string, err error) {
	m.logger.Warn("电源时序钩子失败",
		zap.String("op", op),
		zap.Error(err))
	if m.onHookError != nil {
		m.onHookError(op, err)
	}
}

// newOnboardDevice 按载板档案组装适配器
// 流控条件满足时在返回适配器之前配置一次 RTS/CTS 并记录引脚
func newOnboardDevice(profile *BoardProfile, transport SerialTransport, hooks PowerHooks) *OnboardSARA4 {
	if profile.FlowControlReady() {
		logger.Info("模组流控已启用",
			zap.Int("rts", int(profile.RTS)),
			zap.Int("cts", int(profile.CTS)))
		if err := transport.SetFlowControl(FlowControlRTSCTS, profile.RTS, profile.CTS); err != nil {
			logger.Warn("配置模组流控失败", zap.Error(err))
		}
	}
	return NewOnboardSARA4(transport, hooks)
}

var (
	defaultDevice  *OnboardSARA4
	defaultOnce    sync.Once
	defaultProfile *BoardProfile
	profileMu      sync.Mutex
)

// SetDefaultProfile 设置默认设备使用的载板档案
// 必须在第一次调用 DefaultDevice 之前完成（通常在启动装配阶段）
func SetDefaultProfile(profile *BoardProfile) {
	profileMu.Lock()
	defer profileMu.Unlock()
	defaultProfile = profile
}

// DefaultDevice 返回进程级的板载模组单例
// 第一次调用时按载板档案构造串口传输和适配器，
// 之后的每次调用返回同一个实例；没有销毁路径（设备随进程存活）
func DefaultDevice() *OnboardSARA4 {
	defaultOnce.Do(func() {
		profileMu.Lock()
		profile := defaultProfile
		profileMu.Unlock()
		if profile == nil {
			profile = DefaultBoardProfile()
		}

		transport := NewUARTTransport(profile)
		hooks := NewGPIOPowerHooks(profile)
		defaultDevice = newOnboardDevice(profile, transport, hooks)
	})
	return defaultDevice
}
