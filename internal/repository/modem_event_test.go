package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/modem-gateway/internal/models"
)

func TestModemEventRepository_Create(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewModemEventRepository(db)

	event := &models.ModemEvent{
		EventType: models.ModemEventPowerOn,
		Level:     models.ModemEventLevelInfo,
		State:     "powered_on",
		Device:    "/dev/ttymxc2",
		BaudRate:  115200,
	}
	err := repo.Create(event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.NotZero(t, event.Timestamp)

	found, err := repo.GetByID(event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ModemEventPowerOn, found.EventType)
	assert.Equal(t, "/dev/ttymxc2", found.Device)
}

func TestModemEventRepository_CreateBatch(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewModemEventRepository(db)

	events := []*models.ModemEvent{
		{EventType: models.ModemEventPowerOn, State: "powered_on"},
		{EventType: models.ModemEventPowerOff, State: "powered_off"},
		{EventType: models.ModemEventLinkUp, State: "powered_on"},
	}
	require.NoError(t, repo.CreateBatch(events))

	// 空批次也不应该报错
	require.NoError(t, repo.CreateBatch(nil))

	var count int64
	db.Model(&models.ModemEvent{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestModemEventRepository_Query(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewModemEventRepository(db)

	seed := []*models.ModemEvent{
		{EventType: models.ModemEventPowerOn, Level: models.ModemEventLevelInfo, State: "powered_on", Device: "/dev/ttymxc2"},
		{EventType: models.ModemEventPowerOff, Level: models.ModemEventLevelInfo, State: "powered_off", Device: "/dev/ttymxc2"},
		{EventType: models.ModemEventHookFailure, Level: models.ModemEventLevelWarn, State: "powered_on", HookOp: "init", ErrorMsg: "gpio export failed"},
	}
	require.NoError(t, repo.CreateBatch(seed))

	// 按事件类型过滤
	events, total, err := repo.Query(&models.ModemEventQuery{
		EventType: models.ModemEventPowerOn,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, models.ModemEventPowerOn, events[0].EventType)

	// 按错误过滤
	hasError := true
	events, total, err = repo.Query(&models.ModemEventQuery{HasError: &hasError})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "init", events[0].HookOp)

	// 分页
	events, total, err = repo.Query(&models.ModemEventQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, events, 2)
}

func TestModemEventRepository_GetStats(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewModemEventRepository(db)

	seed := []*models.ModemEvent{
		{EventType: models.ModemEventPowerOn},
		{EventType: models.ModemEventPowerOn},
		{EventType: models.ModemEventPowerOff},
		{EventType: models.ModemEventHookFailure, ErrorMsg: "power_up failed"},
	}
	require.NoError(t, repo.CreateBatch(seed))

	stats, err := repo.GetStats(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalCount)
	assert.Equal(t, int64(2), stats.TotalPowerOn)
	assert.Equal(t, int64(1), stats.TotalPowerOff)
	assert.Equal(t, int64(1), stats.TotalHookFail)
	assert.Equal(t, int64(1), stats.TotalErrors)
}

func TestModemEventRepository_GetLatest(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewModemEventRepository(db)

	old := &models.ModemEvent{EventType: models.ModemEventPowerOn, CreatedAt: time.Now().Add(-time.Hour)}
	recent := &models.ModemEvent{EventType: models.ModemEventPowerOff, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(old))
	require.NoError(t, repo.Create(recent))

	events, err := repo.GetLatest(1, "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ModemEventPowerOff, events[0].EventType)
}

func TestModemEventRepository_GetHookFailures(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewModemEventRepository(db)

	seed := []*models.ModemEvent{
		{EventType: models.ModemEventPowerOn},
		{EventType: models.ModemEventHookFailure, HookOp: "deinit", ErrorMsg: "gpio busy"},
	}
	require.NoError(t, repo.CreateBatch(seed))

	failures, err := repo.GetHookFailures(10)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "deinit", failures[0].HookOp)
}

func TestModemEventRepository_Cleanup(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewModemEventRepository(db)

	old := &models.ModemEvent{EventType: models.ModemEventPowerOn, CreatedAt: time.Now().AddDate(0, 0, -30)}
	recent := &models.ModemEvent{EventType: models.ModemEventPowerOff, CreatedAt: time.Now()}
	require.NoError(t, repo.Create(old))
	require.NoError(t, repo.Create(recent))

	// 保留7天
	deleted, err := repo.CleanupEvents(7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// 非法保留天数
	_, err = repo.CleanupEvents(0)
	assert.Error(t, err)
}
