package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/catalog/catalogtest"
)

// manyIDs returns 1..n.
func manyIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	return ids
}

// The registries check uniqueness before writing; these cover a write that
// loses the race and hits the unique index instead.
func TestRepository_UniqueIndexReportsDuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewSQLiteRepository(f.db)

	require.NoError(t, repo.Create(ctx, &Device{Name: "Lamp"}))

	err := repo.Create(ctx, &Device{Name: "LAMP"})
	assert.ErrorIs(t, err, catalog.ErrDuplicateName)

	fan := &Device{Name: "Fan"}
	require.NoError(t, repo.Create(ctx, fan))
	fan.Name = "lamp"
	err = repo.Update(ctx, fan)
	assert.ErrorIs(t, err, catalog.ErrDuplicateName)
}

func TestActionRepository_UniqueIndexReportsDuplicateAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lamp := f.device(t, "Lamp")
	fan := f.device(t, "Fan")
	repo := NewSQLiteActionRepository(f.db)

	require.NoError(t, repo.Create(ctx, &Action{Description: "Turn on", DeviceID: lamp.ID}))

	err := repo.Create(ctx, &Action{Description: "TURN ON", DeviceID: lamp.ID})
	assert.ErrorIs(t, err, catalog.ErrDuplicateAction)

	// Same description on another device is fine until it moves over.
	moved := &Action{Description: "turn on", DeviceID: fan.ID}
	require.NoError(t, repo.Create(ctx, moved))
	moved.DeviceID = lamp.ID
	err = repo.Update(ctx, moved)
	assert.ErrorIs(t, err, catalog.ErrDuplicateAction)

	off := &Action{Description: "Turn off", DeviceID: lamp.ID}
	require.NoError(t, repo.Create(ctx, off))
	off.Description = "Turn On"
	err = repo.Update(ctx, off)
	assert.ErrorIs(t, err, catalog.ErrDuplicateAction)
}

func TestListDevices_ManyDevicesWithRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kitchen := f.room(t, "Kitchen")

	_, err := f.db.ExecContext(ctx, `WITH RECURSIVE seq(n) AS (
			SELECT 1 UNION ALL SELECT n + 1 FROM seq WHERE n < 33000
		) INSERT INTO devices (name, name_key) SELECT 'Device ' || n, 'device ' || n FROM seq`)
	require.NoError(t, err)
	_, err = f.db.ExecContext(ctx, `INSERT INTO device_rooms (device_id, room_id) VALUES (1, ?)`, kitchen.ID)
	require.NoError(t, err)

	devices, err := f.devices.ListDevices(ctx, true)
	require.NoError(t, err)
	require.Len(t, devices, 33000)
	assert.Equal(t, []string{"Kitchen"}, roomNames(&devices[0]))
	assert.NotNil(t, devices[32999].Rooms)
	assert.Empty(t, devices[32999].Rooms)
}

func TestCreateDevice_ManyUnknownRooms(t *testing.T) {
	f := newFixture(t)

	_, err := f.devices.CreateDevice(context.Background(), DeviceCreate{Name: "Lamp", RoomIDs: manyIDs(40000)})
	assert.ErrorIs(t, err, catalog.ErrInvalidReference)
	assert.Equal(t, 0, catalogtest.Count(t, f.db, "devices"))
}

func TestUpdateDevice_ManyRoomIDsOneUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kitchen := f.room(t, "Kitchen")
	lamp := f.device(t, "Lamp", kitchen.ID)

	_, err := f.devices.UpdateDevice(ctx, lamp.ID, DeviceUpdate{
		RoomIDs: catalog.Some(manyIDs(40000)),
	})
	assert.ErrorIs(t, err, catalog.ErrInvalidReference)

	got, err := f.devices.GetDevice(ctx, lamp.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kitchen"}, roomNames(got))
}
