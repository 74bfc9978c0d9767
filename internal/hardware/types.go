package hardware

import (
	"time"
)

// Pin 板级引脚编号
type Pin int

// PinNC 表示引脚未连接
const PinNC Pin = -1

// Connected 判断引脚是否已连接
func (p Pin) Connected() bool {
	return p != PinNC
}

// FlowControl 串口流控模式
type FlowControl int

const (
	FlowControlNone   FlowControl = 0 // 无流控
	FlowControlRTSCTS FlowControl = 1 // RTS/CTS硬件流控
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlRTSCTS:
		return "rtscts"
	default:
		return "none"
	}
}

// PowerState 模组电源状态
type PowerState int

const (
	PoweredOff PowerState = 0 // 已下电
	PoweredOn  PowerState = 1 // 已上电
)

func (s PowerState) String() string {
	switch s {
	case PoweredOn:
		return "powered_on"
	default:
		return "powered_off"
	}
}

// EventType 模组事件类型
type EventType string

const (
	EventPowerOn      EventType = "power_on"      // 上电
	EventPowerOff     EventType = "power_off"     // 下电
	EventLinkUp       EventType = "link_up"       // 串口链路恢复
	EventLinkDown     EventType = "link_down"     // 串口链路断开
	EventHookFailure  EventType = "hook_failure"  // 电源时序钩子失败
	EventHealthReport EventType = "health_report" // 健康上报
)

// Event 模组事件
type Event struct {
	Type      EventType              `json:"type"`
	State     PowerState             `json:"state"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// EventHandler 事件处理器
type EventHandler func(event *Event)

// ModemStats 模组统计
type ModemStats struct {
	PowerOnCount   uint64        // 上电次数
	PowerOffCount  uint64        // 下电次数
	HookErrors     uint64        // 钩子失败次数（接口上不可见，仅统计）
	ReconnectCount uint64        // 串口重连次数
	LastPowerOn    time.Time     // 最后上电时间
	LastPowerOff   time.Time     // 最后下电时间
	StartTime      time.Time     // 启动时间
	Uptime         time.Duration // 运行时长
}

// StatusSnapshot 状态快照
type StatusSnapshot struct {
	State       PowerState  `json:"state"`
	Connected   bool        `json:"connected"`
	Device      string      `json:"device"`
	BaudRate    int         `json:"baud_rate"`
	FlowControl FlowControl `json:"flow_control"`
	Stats       ModemStats  `json:"stats"`
}
