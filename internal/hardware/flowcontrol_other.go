//go:build !linux

package hardware

// applyFlowControl 非Linux平台不支持修改串口流控
// 开发机上跑模拟模式时走不到这里的真实硬件路径
func applyFlowControl(device string, enable bool) error {
	return nil
}
