package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/modem-gateway/internal/models"
)

func TestDeviceStatusRepository_Upsert(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewDeviceStatusRepository(db)
	ctx := context.Background()

	status := &models.DeviceStatus{
		Device:      "/dev/ttymxc2",
		PowerState:  "powered_off",
		Connected:   false,
		BaudRate:    115200,
		FlowControl: "none",
	}
	require.NoError(t, repo.Upsert(ctx, status))

	// 同一设备再次写入应该更新而不是新增
	status2 := &models.DeviceStatus{
		Device:      "/dev/ttymxc2",
		PowerState:  "powered_on",
		Connected:   true,
		BaudRate:    115200,
		FlowControl: "rts_cts",
	}
	require.NoError(t, repo.Upsert(ctx, status2))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "powered_on", all[0].PowerState)
	assert.True(t, all[0].Connected)
	assert.Equal(t, "rts_cts", all[0].FlowControl)
}

func TestDeviceStatusRepository_UpdatePowerState(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewDeviceStatusRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.DeviceStatus{
		Device:     "/dev/ttymxc2",
		PowerState: "powered_off",
	}))

	require.NoError(t, repo.UpdatePowerState(ctx, "/dev/ttymxc2", "powered_on"))

	found, err := repo.FindByDevice(ctx, "/dev/ttymxc2")
	require.NoError(t, err)
	assert.Equal(t, "powered_on", found.PowerState)
	assert.True(t, found.IsPoweredOn())
	require.NotNil(t, found.PowerOnAt)
	assert.Nil(t, found.PowerOffAt)

	require.NoError(t, repo.UpdatePowerState(ctx, "/dev/ttymxc2", "powered_off"))

	found, err = repo.FindByDevice(ctx, "/dev/ttymxc2")
	require.NoError(t, err)
	assert.False(t, found.IsPoweredOn())
	require.NotNil(t, found.PowerOffAt)
}

func TestDeviceStatusRepository_ConnectionAndReconnects(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewDeviceStatusRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.DeviceStatus{
		Device:     "/dev/ttymxc2",
		PowerState: "powered_off",
	}))

	require.NoError(t, repo.UpdateConnection(ctx, "/dev/ttymxc2", true))
	require.NoError(t, repo.IncrementReconnects(ctx, "/dev/ttymxc2"))
	require.NoError(t, repo.IncrementReconnects(ctx, "/dev/ttymxc2"))

	found, err := repo.FindByDevice(ctx, "/dev/ttymxc2")
	require.NoError(t, err)
	assert.True(t, found.Connected)
	assert.Equal(t, uint64(2), found.Reconnects)
}

func TestDeviceStatusRepository_FindByDeviceNotFound(t *testing.T) {
	db := SetupTestDB()
	defer CleanupTestDB(db)
	repo := NewDeviceStatusRepository(db)

	_, err := repo.FindByDevice(context.Background(), "/dev/nope")
	assert.Error(t, err)
}
