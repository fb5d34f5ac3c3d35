package automation

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/catalog/catalogtest"
	"github.com/nerrad567/domotica-core/internal/device"
)

type fixture struct {
	db      *sql.DB
	devices *device.Registry
	actions *device.ActionRegistry
	scenes  *Registry
	events  *catalogtest.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := catalogtest.OpenDB(t)
	f := &fixture{
		db:      db,
		devices: device.NewRegistry(db),
		actions: device.NewActionRegistry(db),
		scenes:  NewRegistry(db),
		events:  &catalogtest.Recorder{},
	}
	f.scenes.SetNotifier(f.events)
	return f
}

func (f *fixture) action(t *testing.T, deviceName, desc string) *device.Action {
	t.Helper()
	ctx := context.Background()

	var deviceID int64
	devices, err := f.devices.ListDevices(ctx, false)
	require.NoError(t, err)
	for _, d := range devices {
		if d.Name == deviceName {
			deviceID = d.ID
		}
	}
	if deviceID == 0 {
		d, err := f.devices.CreateDevice(ctx, device.DeviceCreate{Name: deviceName})
		require.NoError(t, err)
		deviceID = d.ID
	}

	a, err := f.actions.CreateAction(ctx, desc, deviceID)
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string { return &s }

func actionIDs(s *Scene) []int64 {
	ids := make([]int64, len(s.Actions))
	for i, a := range s.Actions {
		ids[i] = a.ID
	}
	return ids
}

func TestCreateScene(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night"})
	require.NoError(t, err)
	assert.NotZero(t, s.ID)
	assert.Equal(t, StatusInactive, s.Status)
	assert.Nil(t, s.ActivationKeyword)
	assert.NotNil(t, s.Actions)
	assert.Empty(t, s.Actions)

	s, err = f.scenes.CreateScene(ctx, SceneCreate{
		Name:              "Movie",
		ActivationKeyword: strPtr(" cinema "),
		Status:            StatusActive,
	})
	require.NoError(t, err)
	require.NotNil(t, s.ActivationKeyword)
	assert.Equal(t, "cinema", *s.ActivationKeyword)
	assert.Equal(t, StatusActive, s.Status)

	s, err = f.scenes.CreateScene(ctx, SceneCreate{Name: "Morning", ActivationKeyword: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, s.ActivationKeyword, "empty keyword is stored as none")

	assert.Equal(t, []catalog.EventType{catalog.SceneCreated, catalog.SceneCreated, catalog.SceneCreated}, f.events.Types())
}

func TestCreateScene_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SceneCreate
		want error
	}{
		{"duplicate name", SceneCreate{Name: "NIGHT"}, catalog.ErrDuplicateName},
		{"empty name", SceneCreate{Name: ""}, catalog.ErrInvalidInput},
		{"bad status", SceneCreate{Name: "Party", Status: "paused"}, ErrInvalidStatus},
		{"long keyword", SceneCreate{Name: "Party", ActivationKeyword: strPtr(strings.Repeat("k", MaxKeywordLength+1))}, catalog.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.scenes.CreateScene(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 1, catalogtest.Count(t, f.db, "scenes"))
}

func TestListScenes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := f.action(t, "Lamp", "Turn on")

	night, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Good Night"})
	require.NoError(t, err)
	_, err = f.scenes.CreateScene(ctx, SceneCreate{Name: "Morning"})
	require.NoError(t, err)
	_, err = f.scenes.AddAction(ctx, night.ID, on.ID)
	require.NoError(t, err)

	all, err := f.scenes.ListScenes(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, []int64{on.ID}, actionIDs(&all[0]))
	assert.NotNil(t, all[1].Actions)
	assert.Empty(t, all[1].Actions)

	filtered, err := f.scenes.ListScenes(ctx, "NIGHT")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Good Night", filtered[0].Name)

	none, err := f.scenes.ListScenes(ctx, "evening")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateScene(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := f.action(t, "Lamp", "Turn on")

	night, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night", ActivationKeyword: strPtr("sleep")})
	require.NoError(t, err)
	_, err = f.scenes.CreateScene(ctx, SceneCreate{Name: "Morning"})
	require.NoError(t, err)
	_, err = f.scenes.AddAction(ctx, night.ID, on.ID)
	require.NoError(t, err)

	t.Run("status only", func(t *testing.T) {
		s, err := f.scenes.UpdateScene(ctx, night.ID, SceneUpdate{Status: catalog.Some(StatusActive)})
		require.NoError(t, err)
		assert.Equal(t, StatusActive, s.Status)
		assert.Equal(t, "Night", s.Name)
		require.NotNil(t, s.ActivationKeyword)
		assert.Equal(t, "sleep", *s.ActivationKeyword)
		assert.Equal(t, []int64{on.ID}, actionIDs(s))
	})

	t.Run("clear keyword", func(t *testing.T) {
		s, err := f.scenes.UpdateScene(ctx, night.ID, SceneUpdate{ActivationKeyword: catalog.Some("")})
		require.NoError(t, err)
		assert.Nil(t, s.ActivationKeyword)
	})

	t.Run("name collision", func(t *testing.T) {
		_, err := f.scenes.UpdateScene(ctx, night.ID, SceneUpdate{Name: catalog.Some("morning")})
		assert.ErrorIs(t, err, ErrSceneNameTaken)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.scenes.UpdateScene(ctx, night.ID, SceneUpdate{Status: catalog.Some(Status("on"))})
		assert.ErrorIs(t, err, catalog.ErrInvalidInput)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.scenes.UpdateScene(ctx, 999, SceneUpdate{Name: catalog.Some("Ghost")})
		assert.ErrorIs(t, err, ErrSceneNotFound)
	})
}

func TestDeleteScene_KeepsActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := f.action(t, "Lamp", "Turn on")

	night, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night"})
	require.NoError(t, err)
	_, err = f.scenes.AddAction(ctx, night.ID, on.ID)
	require.NoError(t, err)

	require.NoError(t, f.scenes.DeleteScene(ctx, night.ID))
	assert.Equal(t, 0, catalogtest.Count(t, f.db, "scene_actions"))
	assert.Equal(t, 1, catalogtest.Count(t, f.db, "actions"))

	assert.ErrorIs(t, f.scenes.DeleteScene(ctx, night.ID), catalog.ErrNotFound)
}

func TestNightScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := f.action(t, "Lamp", "Turn on")

	night, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night"})
	require.NoError(t, err)
	f.events.Reset()

	for range 2 {
		s, err := f.scenes.AddAction(ctx, night.ID, on.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{on.ID}, actionIDs(s))
	}
	assert.Equal(t, 1, catalogtest.Count(t, f.db, "scene_actions"))

	events := f.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, catalog.SceneActionAdded, events[0].Type)
	assert.Equal(t, true, events[0].Details["changed"])
	assert.Equal(t, false, events[1].Details["changed"])

	for range 2 {
		s, err := f.scenes.RemoveAction(ctx, night.ID, on.ID)
		require.NoError(t, err)
		assert.Empty(t, s.Actions)
	}
	assert.Equal(t, 1, catalogtest.Count(t, f.db, "actions"))
}

func TestAddAction_Order(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.action(t, "Lamp", "Turn on")
	second := f.action(t, "Lamp", "Dim")
	third := f.action(t, "Fan", "Spin")

	night, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night"})
	require.NoError(t, err)
	for _, a := range []*device.Action{third, first, second} {
		_, err := f.scenes.AddAction(ctx, night.ID, a.ID)
		require.NoError(t, err)
	}

	s, err := f.scenes.GetScene(ctx, night.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{third.ID, first.ID, second.ID}, actionIDs(s))
}

func TestAddAction_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := f.action(t, "Lamp", "Turn on")
	night, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night"})
	require.NoError(t, err)

	_, err = f.scenes.AddAction(ctx, 999, on.ID)
	assert.ErrorIs(t, err, ErrSceneNotFound)

	_, err = f.scenes.AddAction(ctx, night.ID, 999)
	assert.ErrorIs(t, err, device.ErrActionNotFound)

	_, err = f.scenes.RemoveAction(ctx, night.ID, 999)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeviceDeletionLeavesSceneWithoutItsActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	on := f.action(t, "Lamp", "Turn on")
	spin := f.action(t, "Fan", "Spin")

	night, err := f.scenes.CreateScene(ctx, SceneCreate{Name: "Night"})
	require.NoError(t, err)
	for _, a := range []*device.Action{on, spin} {
		_, err := f.scenes.AddAction(ctx, night.ID, a.ID)
		require.NoError(t, err)
	}

	require.NoError(t, f.devices.DeleteDevice(ctx, on.DeviceID))

	s, err := f.scenes.GetScene(ctx, night.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{spin.ID}, actionIDs(s))
}
