package hardware

import (
	"bytes"
	"fmt"
	"sync"
)

// MockTransport 模拟串口传输（用于测试和模拟模式）
// 记录每一次流控配置调用，读写走内存缓冲
type MockTransport struct {
	mu     sync.Mutex
	opened bool

	readBuf  bytes.Buffer
	writeBuf bytes.Buffer

	// 流控调用记录
	FlowControlCalls []FlowControlCall

	// 故障注入
	OpenErr        error
	FlowControlErr error
}

// FlowControlCall 一次流控配置调用
type FlowControlCall struct {
	Mode FlowControl
	RTS  Pin
	CTS  Pin
}

// NewMockTransport 创建模拟传输
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// SetFlowControl 记录流控配置
func (t *MockTransport) SetFlowControl(mode FlowControl, rts, cts Pin) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.FlowControlErr != nil {
		return t.FlowControlErr
	}
	t.FlowControlCalls = append(t.FlowControlCalls, FlowControlCall{Mode: mode, RTS: rts, CTS: cts})
	return nil
}

// Open 模拟打开
func (t *MockTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.OpenErr != nil {
		return t.OpenErr
	}
	t.opened = true
	return nil
}

// IsOpen 检查是否已打开
func (t *MockTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opened
}

// FeedRead 注入待读取数据
func (t *MockTransport) FeedRead(p []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readBuf.Write(p)
}

// Written 返回已写入数据
func (t *MockTransport) Written() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeBuf.Bytes()
}

func (t *MockTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opened {
		return 0, fmt.Errorf("transport not open")
	}
	return t.readBuf.Read(p)
}

func (t *MockTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.opened {
		return 0, fmt.Errorf("transport not open")
	}
	return t.writeBuf.Write(p)
}

// Flush 清空缓冲区
func (t *MockTransport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readBuf.Reset()
	t.writeBuf.Reset()
	return nil
}

// Close 模拟关闭
func (t *MockTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opened = false
	return nil
}

// MockPowerHooks 模拟电源时序钩子
// 记录调用顺序，支持按操作注入失败
type MockPowerHooks struct {
	mu    sync.Mutex
	Calls []string

	InitErr      error
	PowerUpErr   error
	PowerDownErr error
	DeinitErr    error
}

// NewMockPowerHooks 创建模拟钩子
func NewMockPowerHooks() *MockPowerHooks {
	return &MockPowerHooks{}
}

func (h *MockPowerHooks) record(op string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, op)
}

// CallSequence 返回调用顺序
func (h *MockPowerHooks) CallSequence() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	seq := make([]string, len(h.Calls))
	copy(seq, h.Calls)
	return seq
}

func (h *MockPowerHooks) Init() error {
	h.record("init")
	return h.InitErr
}

func (h *MockPowerHooks) PowerUp() error {
	h.record("power_up")
	return h.PowerUpErr
}

func (h *MockPowerHooks) PowerDown() error {
	h.record("power_down")
	return h.PowerDownErr
}

func (h *MockPowerHooks) Deinit() error {
	h.record("deinit")
	return h.DeinitErr
}
