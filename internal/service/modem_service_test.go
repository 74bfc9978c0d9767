package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/modem-gateway/internal/config"
	"github.com/wfunc/modem-gateway/internal/hardware"
	"github.com/wfunc/modem-gateway/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ModemServiceTestSuite 模组服务测试套件
type ModemServiceTestSuite struct {
	suite.Suite
	db           *gorm.DB
	manager      *hardware.ModemManager
	modemService ModemService
	eventService *ModemEventService
}

func (suite *ModemServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(suite.T(), err)

	err = db.AutoMigrate(
		&models.ModemEvent{},
		&models.DeviceStatus{},
	)
	require.NoError(suite.T(), err)
	suite.db = db

	cfg := &config.ModemConfig{
		Enabled:      true,
		MockMode:     true,
		Device:       "/dev/ttymxc2",
		BaudRate:     115200,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
		TXPin:        35,
		RXPin:        36,
		RTSPin:       -1,
		CTSPin:       -1,
	}
	suite.manager = hardware.NewModemManager(cfg)

	log, _ := zap.NewDevelopment()
	suite.eventService = NewModemEventService(db)
	suite.modemService = NewModemService(db, suite.manager, suite.eventService, log)

	require.NoError(suite.T(), suite.modemService.Start())
}

func (suite *ModemServiceTestSuite) TearDownTest() {
	suite.modemService.Stop()
	suite.eventService.Close()
}

// TestPowerCycleRecordsEvents 上下电应该产生可查询的事件
func (suite *ModemServiceTestSuite) TestPowerCycleRecordsEvents() {
	ctx := context.Background()

	suite.NoError(suite.modemService.PowerOn(ctx))
	suite.NoError(suite.modemService.PowerOff(ctx))

	// 异步写入，先落盘
	suite.eventService.Flush()

	events, total, err := suite.modemService.QueryEvents(ctx, &models.ModemEventQuery{})
	suite.NoError(err)
	suite.Equal(int64(2), total)
	suite.Len(events, 2)

	stats, err := suite.modemService.EventStats(ctx, nil, nil)
	suite.NoError(err)
	suite.Equal(int64(1), stats.TotalPowerOn)
	suite.Equal(int64(1), stats.TotalPowerOff)
}

// TestStatusSnapshot 状态快照应该反映电源状态
func (suite *ModemServiceTestSuite) TestStatusSnapshot() {
	ctx := context.Background()

	status, err := suite.modemService.Status(ctx)
	suite.NoError(err)
	suite.Equal(hardware.PoweredOff, status.State)
	suite.Equal("/dev/ttymxc2", status.Device)
	suite.Equal(115200, status.BaudRate)

	suite.NoError(suite.modemService.PowerOn(ctx))

	status, err = suite.modemService.Status(ctx)
	suite.NoError(err)
	suite.Equal(hardware.PoweredOn, status.State)
}

// TestHookFailurePersisted 钩子失败事件应该入库
func (suite *ModemServiceTestSuite) TestHookFailurePersisted() {
	ctx := context.Background()

	mockHooks, ok := suite.manager.Adapter().Hooks().(*hardware.MockPowerHooks)
	suite.Require().True(ok)
	mockHooks.PowerUpErr = context.DeadlineExceeded

	// 上电仍然成功
	suite.NoError(suite.modemService.PowerOn(ctx))

	suite.eventService.Flush()

	failures, err := suite.modemService.RecentHookFailures(ctx, 10)
	suite.NoError(err)
	suite.Require().Len(failures, 1)
	suite.Equal("power_up", failures[0].HookOp)
	suite.Equal(models.ModemEventLevelWarn, failures[0].Level)
	suite.NotEmpty(failures[0].ErrorMsg)
}

func TestModemServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ModemServiceTestSuite))
}
