package location

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/domotica-core/internal/catalog"
	"github.com/nerrad567/domotica-core/internal/catalog/catalogtest"
)

func newTestRegistry(t *testing.T) (*Registry, *sql.DB, *catalogtest.Recorder) {
	t.Helper()
	db := catalogtest.OpenDB(t)
	rec := &catalogtest.Recorder{}
	reg := NewRegistry(db)
	reg.SetNotifier(rec)
	return reg, db, rec
}

// insertDevice links a bare device row to roomID, bypassing the device
// registry.
func insertDevice(t *testing.T, db *sql.DB, name string, roomID int64) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(
		`INSERT INTO devices (name, name_key, type) VALUES (?, ?, 'light') RETURNING id`,
		name, catalog.Fold(name),
	).Scan(&id)
	if err != nil {
		t.Fatalf("inserting device: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO device_rooms (device_id, room_id) VALUES (?, ?)`, id, roomID); err != nil {
		t.Fatalf("linking device: %v", err)
	}
	return id
}

func TestCreateRoom(t *testing.T) {
	reg, _, rec := newTestRegistry(t)
	ctx := context.Background()

	room, err := reg.CreateRoom(ctx, "  Kitchen ")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if room.ID == 0 {
		t.Error("CreateRoom() did not assign an ID")
	}
	if room.Name != "Kitchen" {
		t.Errorf("Name = %q, want %q", room.Name, "Kitchen")
	}
	if room.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	types := rec.Types()
	if len(types) != 1 || types[0] != catalog.RoomCreated {
		t.Errorf("events = %v, want [%s]", types, catalog.RoomCreated)
	}
}

func TestCreateRoom_DuplicateNameIgnoresCase(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	if _, err := reg.CreateRoom(ctx, "Kitchen"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	for _, name := range []string{"Kitchen", "KITCHEN", "kitchen", " kItChEn "} {
		_, err := reg.CreateRoom(ctx, name)
		if !errors.Is(err, catalog.ErrDuplicateName) {
			t.Errorf("CreateRoom(%q) error = %v, want ErrDuplicateName", name, err)
		}
	}
}

func TestCreateRoom_Validation(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", strings.Repeat("a", catalog.MaxNameLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.CreateRoom(ctx, tt.input)
			if !errors.Is(err, catalog.ErrInvalidInput) {
				t.Errorf("CreateRoom() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestListRooms(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"Kitchen", "Living Room", "Guest Room", "100%_Room"} {
		if _, err := reg.CreateRoom(ctx, name); err != nil {
			t.Fatalf("CreateRoom(%q) error = %v", name, err)
		}
	}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"Kitchen", "Living Room", "Guest Room", "100%_Room"}},
		{"room", []string{"Living Room", "Guest Room", "100%_Room"}},
		{"ROOM", []string{"Living Room", "Guest Room", "100%_Room"}},
		{"kit", []string{"Kitchen"}},
		{"%", []string{"100%_Room"}},
		{"_", []string{"100%_Room"}},
		{"garage", []string{}},
	}
	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			rooms, err := reg.ListRooms(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRooms() error = %v", err)
			}
			if rooms == nil {
				t.Fatal("ListRooms() returned nil slice")
			}
			got := make([]string, len(rooms))
			for i, r := range rooms {
				got[i] = r.Name
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ListRooms(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	_, err := reg.GetRoom(context.Background(), 42)
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("GetRoom() error = %v, want ErrRoomNotFound", err)
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("GetRoom() error = %v, want catalog.ErrNotFound", err)
	}
}

func TestUpdateRoom(t *testing.T) {
	reg, _, rec := newTestRegistry(t)
	ctx := context.Background()

	kitchen, _ := reg.CreateRoom(ctx, "Kitchen")
	if _, err := reg.CreateRoom(ctx, "Office"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	rec.Reset()

	t.Run("rename", func(t *testing.T) {
		room, err := reg.UpdateRoom(ctx, kitchen.ID, RoomUpdate{Name: catalog.Some("Cozinha")})
		if err != nil {
			t.Fatalf("UpdateRoom() error = %v", err)
		}
		if room.Name != "Cozinha" {
			t.Errorf("Name = %q, want %q", room.Name, "Cozinha")
		}
		if types := rec.Types(); len(types) != 1 || types[0] != catalog.RoomUpdated {
			t.Errorf("events = %v, want [%s]", types, catalog.RoomUpdated)
		}
	})

	t.Run("own name with different case", func(t *testing.T) {
		room, err := reg.UpdateRoom(ctx, kitchen.ID, RoomUpdate{Name: catalog.Some("COZINHA")})
		if err != nil {
			t.Fatalf("UpdateRoom() error = %v", err)
		}
		if room.Name != "COZINHA" {
			t.Errorf("Name = %q, want %q", room.Name, "COZINHA")
		}
	})

	t.Run("collision", func(t *testing.T) {
		_, err := reg.UpdateRoom(ctx, kitchen.ID, RoomUpdate{Name: catalog.Some("office")})
		if !errors.Is(err, catalog.ErrDuplicateName) {
			t.Errorf("UpdateRoom() error = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("no fields", func(t *testing.T) {
		rec.Reset()
		room, err := reg.UpdateRoom(ctx, kitchen.ID, RoomUpdate{})
		if err != nil {
			t.Fatalf("UpdateRoom() error = %v", err)
		}
		if room.Name != "COZINHA" {
			t.Errorf("Name = %q, want unchanged %q", room.Name, "COZINHA")
		}
		if len(rec.Events()) != 0 {
			t.Errorf("empty update emitted %d events", len(rec.Events()))
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := reg.UpdateRoom(ctx, 999, RoomUpdate{Name: catalog.Some("Attic")})
		if !errors.Is(err, catalog.ErrNotFound) {
			t.Errorf("UpdateRoom() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteRoom(t *testing.T) {
	reg, db, rec := newTestRegistry(t)
	ctx := context.Background()

	room, _ := reg.CreateRoom(ctx, "Hall")
	if err := reg.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom() error = %v", err)
	}
	if n := catalogtest.Count(t, db, "rooms"); n != 0 {
		t.Errorf("rooms = %d, want 0", n)
	}
	if types := rec.Types(); types[len(types)-1] != catalog.RoomDeleted {
		t.Errorf("last event = %s, want %s", types[len(types)-1], catalog.RoomDeleted)
	}

	if err := reg.DeleteRoom(ctx, room.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("second DeleteRoom() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRoom_RefusedWhileLinked(t *testing.T) {
	reg, db, rec := newTestRegistry(t)
	ctx := context.Background()

	kitchen, _ := reg.CreateRoom(ctx, "Kitchen")
	deviceID := insertDevice(t, db, "Lamp", kitchen.ID)
	rec.Reset()

	err := reg.DeleteRoom(ctx, kitchen.ID)
	if !errors.Is(err, ErrRoomHasDevices) {
		t.Fatalf("DeleteRoom() error = %v, want ErrRoomHasDevices", err)
	}
	if !errors.Is(err, catalog.ErrHasLinkedDevices) {
		t.Errorf("DeleteRoom() error = %v, want catalog.ErrHasLinkedDevices", err)
	}

	if _, err := reg.GetRoom(ctx, kitchen.ID); err != nil {
		t.Errorf("room missing after refused delete: %v", err)
	}
	if n := catalogtest.Count(t, db, "device_rooms"); n != 1 {
		t.Errorf("device_rooms = %d, want 1", n)
	}
	if len(rec.Events()) != 0 {
		t.Errorf("refused delete emitted %d events", len(rec.Events()))
	}

	if _, err := db.Exec(`DELETE FROM device_rooms WHERE device_id = ?`, deviceID); err != nil {
		t.Fatalf("unlinking: %v", err)
	}
	if err := reg.DeleteRoom(ctx, kitchen.ID); err != nil {
		t.Errorf("DeleteRoom() after unlink error = %v", err)
	}
}

func TestDeleteRoom_RepositoryMapsForeignKeyViolation(t *testing.T) {
	_, db, _ := newTestRegistry(t)
	ctx := context.Background()

	repo := NewSQLiteRepository(db)
	room := &Room{Name: "Porch"}
	if err := repo.Create(ctx, room); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	insertDevice(t, db, "Sensor", room.ID)

	if err := repo.Delete(ctx, room.ID); !errors.Is(err, ErrRoomHasDevices) {
		t.Errorf("Delete() error = %v, want ErrRoomHasDevices", err)
	}
}

func TestGetLinkedDevices(t *testing.T) {
	reg, db, _ := newTestRegistry(t)
	ctx := context.Background()

	kitchen, _ := reg.CreateRoom(ctx, "Kitchen")
	empty, _ := reg.CreateRoom(ctx, "Pantry")
	insertDevice(t, db, "Lamp", kitchen.ID)
	insertDevice(t, db, "Kettle", kitchen.ID)

	got, err := reg.GetLinkedDevices(ctx, kitchen.ID)
	if err != nil {
		t.Fatalf("GetLinkedDevices() error = %v", err)
	}
	if got.Room.ID != kitchen.ID {
		t.Errorf("Room.ID = %d, want %d", got.Room.ID, kitchen.ID)
	}
	if got.Count != 2 || len(got.Devices) != 2 {
		t.Fatalf("Count = %d, len(Devices) = %d, want 2", got.Count, len(got.Devices))
	}
	if got.Devices[0].Name != "Lamp" || got.Devices[1].Name != "Kettle" {
		t.Errorf("Devices = %+v, want Lamp then Kettle", got.Devices)
	}
	if got.Devices[0].Type != "light" || got.Devices[0].State {
		t.Errorf("Devices[0] = %+v, want type light, state off", got.Devices[0])
	}

	none, err := reg.GetLinkedDevices(ctx, empty.ID)
	if err != nil {
		t.Fatalf("GetLinkedDevices() error = %v", err)
	}
	if none.Devices == nil || none.Count != 0 {
		t.Errorf("empty room = %+v, want non-nil empty device list", none)
	}

	if _, err := reg.GetLinkedDevices(ctx, 999); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("GetLinkedDevices(999) error = %v, want ErrNotFound", err)
	}
}

func TestCountRooms(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := reg.CreateRoom(ctx, name); err != nil {
			t.Fatalf("CreateRoom() error = %v", err)
		}
	}
	n, err := reg.CountRooms(ctx)
	if err != nil {
		t.Fatalf("CountRooms() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountRooms() = %d, want 3", n)
	}
}
