package models

import (
	"time"
)

// DeviceStatus 设备状态快照（每个串口设备一行，随状态变化更新）
type DeviceStatus struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Device      string    `gorm:"uniqueIndex;size:100;not null" json:"device"` // 串口设备节点
	PowerState  string    `gorm:"size:20;not null" json:"power_state"`         // 电源状态
	Connected   bool      `gorm:"default:false" json:"connected"`              // 串口是否连接
	BaudRate    int       `gorm:"default:0" json:"baud_rate"`                  // 波特率
	FlowControl string    `gorm:"size:20" json:"flow_control"`                 // 流控模式
	Reconnects  uint64    `gorm:"default:0" json:"reconnects"`                 // 重连次数
	PowerOnAt   *time.Time `json:"power_on_at,omitempty"`                      // 最近上电时间
	PowerOffAt  *time.Time `json:"power_off_at,omitempty"`                     // 最近下电时间
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (DeviceStatus) TableName() string {
	return "device_statuses"
}

// IsPoweredOn 检查设备是否处于上电状态
func (d *DeviceStatus) IsPoweredOn() bool {
	return d.PowerState == "powered_on"
}
