package hardware

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wfunc/modem-gateway/internal/logger"
	"go.uber.org/zap"
)

// PowerHooks 模组电源时序钩子
// 四个无参操作对应板级的初始化、上电、下电、释放，
// 时序细节（脉宽、电平保持）封装在具体实现里
type PowerHooks interface {
	Init() error
	PowerUp() error
	PowerDown() error
	Deinit() error
}

// SARA-R4 电源脉宽要求（数据手册 4.2.6）
const (
	powerOnPulse  = 200 * time.Millisecond  // PWR_ON 拉低 >=150ms 触发开机
	powerOffPulse = 1600 * time.Millisecond // PWR_ON 拉低 >=1.5s 触发关机
	settleDelay   = 100 * time.Millisecond
)

// GPIOPowerHooks 基于sysfs GPIO的电源时序实现
type GPIOPowerHooks struct {
	chipPath    string
	powerOnLine int
	resetLine   int
	logger      *zap.Logger
	initialized bool
}

// NewGPIOPowerHooks 创建GPIO电源时序钩子
func NewGPIOPowerHooks(profile *BoardProfile) *GPIOPowerHooks {
	return &GPIOPowerHooks{
		chipPath:    profile.PowerGPIOChip,
		powerOnLine: profile.PowerOnLine,
		resetLine:   profile.ResetLine,
		logger:      logger.GetLogger(),
	}
}

// Init 导出并配置电源控制GPIO
func (h *GPIOPowerHooks) Init() error {
	if h.initialized {
		return nil
	}

	for _, line := range []int{h.powerOnLine, h.resetLine} {
		if err := h.exportLine(line); err != nil {
			return err
		}
		if err := h.writeLineFile(line, "direction", "out"); err != nil {
			return err
		}
	}

	// 默认电平：PWR_ON 高（不触发）、RESET_N 高（不复位）
	if err := h.setLine(h.powerOnLine, 1); err != nil {
		return err
	}
	if err := h.setLine(h.resetLine, 1); err != nil {
		return err
	}

	h.initialized = true
	h.logger.Debug("电源GPIO初始化完成",
		zap.Int("power_on_line", h.powerOnLine),
		zap.Int("reset_line", h.resetLine))
	return nil
}

// PowerUp 拉低PWR_ON触发开机
func (h *GPIOPowerHooks) PowerUp() error {
	if err := h.setLine(h.powerOnLine, 0); err != nil {
		return err
	}
	time.Sleep(powerOnPulse)
	if err := h.setLine(h.powerOnLine, 1); err != nil {
		return err
	}
	time.Sleep(settleDelay)

	h.logger.Info("模组上电脉冲已发送", zap.Duration("pulse", powerOnPulse))
	return nil
}

// PowerDown 长拉低PWR_ON触发正常关机
func (h *GPIOPowerHooks) PowerDown() error {
	if err := h.setLine(h.powerOnLine, 0); err != nil {
		return err
	}
	time.Sleep(powerOffPulse)
	if err := h.setLine(h.powerOnLine, 1); err != nil {
		return err
	}

	h.logger.Info("模组下电脉冲已发送", zap.Duration("pulse", powerOffPulse))
	return nil
}

// Deinit 释放GPIO资源
func (h *GPIOPowerHooks) Deinit() error {
	if !h.initialized {
		return nil
	}

	var firstErr error
	for _, line := range []int{h.powerOnLine, h.resetLine} {
		if err := h.unexportLine(line); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.initialized = false
	return firstErr
}

// exportLine 导出GPIO线
func (h *GPIOPowerHooks) exportLine(line int) error {
	linePath := filepath.Join(h.chipPath, fmt.Sprintf("gpio%d", line))
	if _, err := os.Stat(linePath); err == nil {
		// 已导出
		return nil
	}

	exportPath := filepath.Join(h.chipPath, "export")
	if err := os.WriteFile(exportPath, []byte(strconv.Itoa(line)), 0644); err != nil {
		return fmt.Errorf("export gpio%d: %w", line, err)
	}
	return nil
}

// unexportLine 取消导出GPIO线
func (h *GPIOPowerHooks) unexportLine(line int) error {
	unexportPath := filepath.Join(h.chipPath, "unexport")
	if err := os.WriteFile(unexportPath, []byte(strconv.Itoa(line)), 0644); err != nil {
		return fmt.Errorf("unexport gpio%d: %w", line, err)
	}
	return nil
}

// setLine 设置GPIO电平
func (h *GPIOPowerHooks) setLine(line int, value int) error {
	return h.writeLineFile(line, "value", strconv.Itoa(value))
}

// writeLineFile 写GPIO属性文件
func (h *GPIOPowerHooks) writeLineFile(line int, attr, value string) error {
	path := filepath.Join(h.chipPath, fmt.Sprintf("gpio%d", line), attr)
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
