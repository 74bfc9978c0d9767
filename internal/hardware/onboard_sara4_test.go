package hardware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile() *BoardProfile {
	p := DefaultBoardProfile()
	p.Device = "/dev/null"
	return p
}

// 上电总是返回成功，钩子调用顺序为 init -> power_up
func TestOnboardSARA4_PowerOnAlwaysSucceeds(t *testing.T) {
	hooks := NewMockPowerHooks()
	adapter := NewOnboardSARA4(NewMockTransport(), hooks)

	err := adapter.PowerOn()
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "power_up"}, hooks.CallSequence())
	assert.True(t, adapter.IsPowered())
}

// 即使钩子全部失败，上电仍然返回成功（既有接口约定）
func TestOnboardSARA4_PowerOnSwallowsHookFailures(t *testing.T) {
	hooks := NewMockPowerHooks()
	hooks.InitErr = errors.New("gpio export denied")
	hooks.PowerUpErr = errors.New("line stuck low")

	var observed []string
	adapter := NewOnboardSARA4(NewMockTransport(), hooks)
	adapter.SetHookErrorHandler(func(op string, err error) {
		observed = append(observed, op)
	})

	err := adapter.PowerOn()
	require.NoError(t, err)

	// 失败对调用方不可见，但观察回调能看到
	assert.Equal(t, []string{"init", "power_up"}, observed)
}

// 下电总是返回成功，钩子调用顺序为 power_down -> deinit
func TestOnboardSARA4_PowerOffAlwaysSucceeds(t *testing.T) {
	hooks := NewMockPowerHooks()
	adapter := NewOnboardSARA4(NewMockTransport(), hooks)

	require.NoError(t, adapter.PowerOn())

	err := adapter.PowerOff()
	require.NoError(t, err)
	assert.Equal(t, []string{"init", "power_up", "power_down", "deinit"}, hooks.CallSequence())
	assert.False(t, adapter.IsPowered())
}

// 钩子失败时下电仍然返回成功
func TestOnboardSARA4_PowerOffSwallowsHookFailures(t *testing.T) {
	hooks := NewMockPowerHooks()
	hooks.PowerDownErr = errors.New("write timeout")
	hooks.DeinitErr = errors.New("unexport failed")

	adapter := NewOnboardSARA4(NewMockTransport(), hooks)
	require.NoError(t, adapter.PowerOff())
}

// 上电/下电可重复、可逆
func TestOnboardSARA4_TransitionsRepeatable(t *testing.T) {
	hooks := NewMockPowerHooks()
	adapter := NewOnboardSARA4(NewMockTransport(), hooks)

	for i := 0; i < 3; i++ {
		require.NoError(t, adapter.PowerOn())
		assert.True(t, adapter.IsPowered())
		require.NoError(t, adapter.PowerOff())
		assert.False(t, adapter.IsPowered())
	}
}

// 平台不支持流控时，无论引脚如何配置都不调用流控接口
func TestNewOnboardDevice_FlowControlDisabled(t *testing.T) {
	profile := testProfile()
	profile.FlowControlCapable = false
	profile.RTS = Pin(0)
	profile.CTS = Pin(1)

	transport := NewMockTransport()
	newOnboardDevice(profile, transport, NewMockPowerHooks())

	assert.Empty(t, transport.FlowControlCalls)
}

// 平台支持流控但任一引脚未接线时，不调用流控接口
func TestNewOnboardDevice_FlowControlPinNotConnected(t *testing.T) {
	cases := []struct {
		name string
		rts  Pin
		cts  Pin
	}{
		{"rts未接线", PinNC, Pin(1)},
		{"cts未接线", Pin(0), PinNC},
		{"全部未接线", PinNC, PinNC},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			profile := testProfile()
			profile.FlowControlCapable = true
			profile.RTS = tc.rts
			profile.CTS = tc.cts

			transport := NewMockTransport()
			newOnboardDevice(profile, transport, NewMockPowerHooks())

			assert.Empty(t, transport.FlowControlCalls)
		})
	}
}

// 平台支持流控且两个引脚都接线时，返回适配器前恰好配置一次流控
func TestNewOnboardDevice_FlowControlEnabled(t *testing.T) {
	profile := testProfile()
	profile.FlowControlCapable = true
	profile.RTS = Pin(0) // PA0
	profile.CTS = Pin(1) // PA1
	profile.BaudRate = 115200

	transport := NewMockTransport()
	adapter := newOnboardDevice(profile, transport, NewMockPowerHooks())
	require.NotNil(t, adapter)

	require.Len(t, transport.FlowControlCalls, 1)
	call := transport.FlowControlCalls[0]
	assert.Equal(t, FlowControlRTSCTS, call.Mode)
	assert.Equal(t, Pin(0), call.RTS)
	assert.Equal(t, Pin(1), call.CTS)
}

// 流控配置失败不影响适配器构造
func TestNewOnboardDevice_FlowControlErrorIgnored(t *testing.T) {
	profile := testProfile()
	profile.FlowControlCapable = true
	profile.RTS = Pin(0)
	profile.CTS = Pin(1)

	transport := NewMockTransport()
	transport.FlowControlErr = errors.New("termios not supported")

	adapter := newOnboardDevice(profile, transport, NewMockPowerHooks())
	assert.NotNil(t, adapter)
}

// 工厂两次调用返回同一个实例
func TestDefaultDevice_Singleton(t *testing.T) {
	d1 := DefaultDevice()
	d2 := DefaultDevice()

	require.NotNil(t, d1)
	assert.Same(t, d1, d2)
}

// 工厂构造的设备持有可用的传输和驱动基类
func TestDefaultDevice_Construction(t *testing.T) {
	d := DefaultDevice()
	require.NotNil(t, d)
	assert.NotNil(t, d.Transport())
	assert.False(t, d.IsPowered())
}
