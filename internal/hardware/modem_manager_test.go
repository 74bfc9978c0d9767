package hardware

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/modem-gateway/internal/config"
)

func mockModemConfig() *config.ModemConfig {
	return &config.ModemConfig{
		Enabled:       true,
		MockMode:      true,
		Device:        "/dev/null",
		DevicePattern: "ttymxc",
		BaudRate:      115200,
		ReadTimeout:   100 * time.Millisecond,
		WriteTimeout:  100 * time.Millisecond,
		TXPin:         35,
		RXPin:         36,
		RTSPin:        -1,
		CTSPin:        -1,
	}
}

func TestModemManager_InitializeAndStart(t *testing.T) {
	m := NewModemManager(mockModemConfig())

	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())
	defer m.Stop()

	// 重复初始化应该报错
	assert.Error(t, m.Initialize())

	status := m.Status()
	assert.Equal(t, PoweredOff, status.State)
	assert.True(t, status.Connected)
}

func TestModemManager_PowerTransitions(t *testing.T) {
	m := NewModemManager(mockModemConfig())
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())
	defer m.Stop()

	// 初始状态为下电
	assert.Equal(t, PoweredOff, m.State())

	require.NoError(t, m.PowerOn())
	assert.Equal(t, PoweredOn, m.State())

	require.NoError(t, m.PowerOff())
	assert.Equal(t, PoweredOff, m.State())

	// 状态迁移可重复
	require.NoError(t, m.PowerOn())
	assert.Equal(t, PoweredOn, m.State())

	status := m.Status()
	assert.Equal(t, uint64(2), status.Stats.PowerOnCount)
	assert.Equal(t, uint64(1), status.Stats.PowerOffCount)
}

func TestModemManager_Events(t *testing.T) {
	m := NewModemManager(mockModemConfig())
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())
	defer m.Stop()

	var mu sync.Mutex
	var events []EventType
	m.RegisterEventHandler("test", func(e *Event) {
		mu.Lock()
		events = append(events, e.Type)
		mu.Unlock()
	})

	require.NoError(t, m.PowerOn())
	require.NoError(t, m.PowerOff())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventType{EventPowerOn, EventPowerOff}, events)
}

func TestModemManager_HookFailureEvent(t *testing.T) {
	m := NewModemManager(mockModemConfig())
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())
	defer m.Stop()

	// 注入钩子失败
	mockHooks, ok := m.Adapter().hooks.(*MockPowerHooks)
	require.True(t, ok)
	mockHooks.InitErr = assert.AnError

	var mu sync.Mutex
	var hookFailures int
	m.RegisterEventHandler("test", func(e *Event) {
		if e.Type == EventHookFailure {
			mu.Lock()
			hookFailures++
			mu.Unlock()
		}
	})

	// 上电仍然成功，但失败事件可观察
	require.NoError(t, m.PowerOn())

	mu.Lock()
	assert.Equal(t, 1, hookFailures)
	mu.Unlock()

	status := m.Status()
	assert.Equal(t, uint64(1), status.Stats.HookErrors)
}

func TestModemManager_UnregisterEventHandler(t *testing.T) {
	m := NewModemManager(mockModemConfig())
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())
	defer m.Stop()

	var mu sync.Mutex
	count := 0
	m.RegisterEventHandler("test", func(e *Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	require.NoError(t, m.PowerOn())
	m.UnregisterEventHandler("test")
	require.NoError(t, m.PowerOff())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count)
}

func TestModemManager_StopIdempotent(t *testing.T) {
	m := NewModemManager(mockModemConfig())
	require.NoError(t, m.Initialize())
	require.NoError(t, m.Start())

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
}
