package hardware

import (
	"time"

	"github.com/wfunc/modem-gateway/internal/config"
)

// BoardProfile 载板接线档案
// 对应载板出厂固定接线：模组UART引脚、波特率、可选的流控引脚
// 以及电源时序GPIO。引脚编号只用于诊断日志和流控判定，
// 字节流本身通过 Device 指向的串口节点收发
type BoardProfile struct {
	// 模组UART
	TXD      Pin    // 模组发送引脚
	RXD      Pin    // 模组接收引脚
	BaudRate int    // 波特率
	Device   string // 串口设备节点

	// 流控引脚（PinNC 表示未接线）
	RTS Pin
	CTS Pin

	// 平台是否支持硬件流控（启动时解析一次，替代编译期开关）
	FlowControlCapable bool

	// 电源时序GPIO
	PowerGPIOChip string // GPIO控制目录（如 /sys/class/gpio）
	PowerOnLine   int    // PWR_ON 线
	ResetLine     int    // RESET_N 线

	// 串口读写超时
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultBoardProfile 默认载板档案（SARA-R4 载板出厂接线）
func DefaultBoardProfile() *BoardProfile {
	return &BoardProfile{
		TXD:                Pin(35),
		RXD:                Pin(36),
		BaudRate:           115200,
		Device:             "/dev/ttymxc2",
		RTS:                PinNC,
		CTS:                PinNC,
		FlowControlCapable: false,
		PowerGPIOChip:      "/sys/class/gpio",
		PowerOnLine:        21,
		ResetLine:          22,
		ReadTimeout:        100 * time.Millisecond,
		WriteTimeout:       100 * time.Millisecond,
	}
}

// BoardProfileFromConfig 从配置构建载板档案
func BoardProfileFromConfig(cfg *config.ModemConfig) *BoardProfile {
	if cfg == nil {
		return DefaultBoardProfile()
	}

	return &BoardProfile{
		TXD:                Pin(cfg.TXPin),
		RXD:                Pin(cfg.RXPin),
		BaudRate:           cfg.BaudRate,
		Device:             cfg.Device,
		RTS:                Pin(cfg.RTSPin),
		CTS:                Pin(cfg.CTSPin),
		FlowControlCapable: cfg.FlowControl,
		PowerGPIOChip:      cfg.PowerGPIOChip,
		PowerOnLine:        cfg.PowerOnLine,
		ResetLine:          cfg.ResetLine,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
	}
}

// FlowControlReady 判断是否满足启用硬件流控的全部条件
// 平台支持开关打开，且 RTS/CTS 两个引脚都已接线
func (p *BoardProfile) FlowControlReady() bool {
	return p.FlowControlCapable && p.RTS.Connected() && p.CTS.Connected()
}
