package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// ModemEventType 模组事件类型
type ModemEventType string

const (
	ModemEventPowerOn      ModemEventType = "POWER_ON"      // 上电
	ModemEventPowerOff     ModemEventType = "POWER_OFF"     // 下电
	ModemEventLinkUp       ModemEventType = "LINK_UP"       // 串口连接
	ModemEventLinkDown     ModemEventType = "LINK_DOWN"     // 串口断开
	ModemEventHookFailure  ModemEventType = "HOOK_FAILURE"  // 电源钩子失败
	ModemEventHealthReport ModemEventType = "HEALTH_REPORT" // 健康上报
)

// ModemEventLevel 事件级别
type ModemEventLevel string

const (
	ModemEventLevelInfo  ModemEventLevel = "INFO"
	ModemEventLevelWarn  ModemEventLevel = "WARN"
	ModemEventLevelError ModemEventLevel = "ERROR"
)

// JSONData 用于存储JSON格式的数据
type JSONData map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSONData) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONData) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		strVal, ok := value.(string)
		if !ok {
			return nil
		}
		bytes = []byte(strVal)
	}
	return json.Unmarshal(bytes, j)
}

// ModemEvent 模组事件记录
type ModemEvent struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `gorm:"index;not null" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 基础信息
	EventType ModemEventType  `gorm:"type:varchar(20);index;not null" json:"event_type"` // 事件类型
	Level     ModemEventLevel `gorm:"type:varchar(10);default:INFO" json:"level"`        // 事件级别
	State     string          `gorm:"type:varchar(20);index" json:"state"`               // 事件发生时的电源状态

	// 硬件信息
	Device      string `gorm:"type:varchar(100);index" json:"device,omitempty"` // 串口设备节点
	BaudRate    int    `gorm:"default:0" json:"baud_rate,omitempty"`            // 波特率
	FlowControl string `gorm:"type:varchar(20)" json:"flow_control,omitempty"`  // 流控模式

	// 钩子失败相关
	HookOp   string `gorm:"type:varchar(50);index" json:"hook_op,omitempty"` // 失败的钩子操作
	ErrorMsg string `gorm:"type:text" json:"error_msg,omitempty"`            // 错误信息

	// 数据内容
	Data JSONData `gorm:"type:json" json:"data,omitempty"` // 事件附加数据

	// 性能指标
	Duration  int64 `gorm:"default:0" json:"duration,omitempty"` // 处理时长（毫秒）
	Timestamp int64 `gorm:"index" json:"timestamp"`              // Unix时间戳（毫秒）
}

// TableName 指定表名
func (ModemEvent) TableName() string {
	return "modem_events"
}

// BeforeCreate 创建前的钩子
func (e *ModemEvent) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Timestamp == 0 {
		e.Timestamp = time.Now().UnixMilli()
	}
	return nil
}

// ModemEventQuery 查询参数
type ModemEventQuery struct {
	EventType ModemEventType  `json:"event_type,omitempty"`
	Level     ModemEventLevel `json:"level,omitempty"`
	State     string          `json:"state,omitempty"`
	Device    string          `json:"device,omitempty"`
	HookOp    string          `json:"hook_op,omitempty"`
	HasError  *bool           `json:"has_error,omitempty"`
	StartTime *time.Time      `json:"start_time,omitempty"`
	EndTime   *time.Time      `json:"end_time,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
	OrderBy   string          `json:"order_by,omitempty"`
}

// ModemEventStats 统计信息
type ModemEventStats struct {
	TotalCount    int64 `json:"total_count"`
	TotalPowerOn  int64 `json:"total_power_on"`
	TotalPowerOff int64 `json:"total_power_off"`
	TotalLinkUp   int64 `json:"total_link_up"`
	TotalLinkDown int64 `json:"total_link_down"`
	TotalHookFail int64 `json:"total_hook_fail"`
	TotalErrors   int64 `json:"total_errors"`
}
