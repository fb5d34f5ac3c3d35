// Package device provides the Device and Action registries.
//
// Devices are the controllable things in the catalog. Each device may be
// linked to any number of rooms, and owns the actions that can be performed
// on it. Actions belong to exactly one device and are shared with scenes.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                        device package                          │
//	│                                                                │
//	│  ┌──────────────────┐          ┌──────────────────────────┐   │
//	│  │     Registry     │─────────▶│    SQLiteRepository      │   │
//	│  │  (registry.go)   │          │  (repository.go)         │   │
//	│  │ • devices CRUD   │          │ • devices, device_rooms  │   │
//	│  │ • room links     │          └──────────────────────────┘   │
//	│  └──────────────────┘                                          │
//	│  ┌──────────────────┐          ┌──────────────────────────┐   │
//	│  │  ActionRegistry  │─────────▶│  SQLiteActionRepository  │   │
//	│  │ (action_*.go)    │          │ • actions                │   │
//	│  └──────────────────┘          └──────────────────────────┘   │
//	└────────────────────────────────────────────────────────────────┘
//
// # Links
//
// A device's room set is stored as rows in device_rooms. Replacing the set
// on update computes the added and removed ids and touches only those rows.
// Deleting a device removes its links and cascades to its actions, which in
// turn drops them from every scene.
//
// # Usage
//
//	devices := device.NewRegistry(db)
//	devices.SetNotifier(dispatcher)
//
//	lamp, err := devices.CreateDevice(ctx, device.DeviceCreate{
//	    Name:    "Lamp",
//	    Type:    "light",
//	    RoomIDs: []int64{kitchen.ID},
//	})
//
//	actions := device.NewActionRegistry(db)
//	on, err := actions.CreateAction(ctx, "Turn on", lamp.ID)
package device
