// Package location is the room registry of the domotica catalog.
//
// A Room is a named physical space. Devices link to rooms through the
// device_rooms join table, which the device package owns; this package only
// reads it, to list a room's devices and to refuse deleting a room that still
// has devices linked (ErrRoomHasDevices).
//
// Room names are unique regardless of case. The comparison key is stored in
// rooms.name_key and protected by a UNIQUE constraint, so a race between two
// creates still ends in ErrRoomNameTaken rather than a duplicate.
//
// # Thread Safety
//
// Registry is safe for concurrent use. Every operation runs in its own
// transaction.
package location
