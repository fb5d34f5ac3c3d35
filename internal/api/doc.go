// Package api implements the HTTP REST API and WebSocket stream of the
// device catalog.
//
// All routes live under /api/v1: CRUD for rooms, devices, actions and
// scenes, the device/room link and scene/action membership endpoints, the
// audit trail, entity statistics and a health check. Registry errors are
// translated in one place (writeCatalogError):
//
//	not found                      → 404 not_found
//	duplicate name / action        → 400 duplicate_name / duplicate_action
//	invalid reference              → 400 invalid_reference
//	room still has devices         → 400 has_linked_devices
//	failed validation, bad JSON    → 400 bad_request
//	anything else                  → 500 internal_error
//
// The Hub doubles as a notify sink, so every committed change reaches
// WebSocket clients subscribed to its event type or to "*":
//
//	→ {"type":"subscribe","id":"1","payload":{"channels":["*"]}}
//	← {"type":"event","event_type":"device.linked","timestamp":"...","payload":{...}}
//
// The server follows the same lifecycle as the infrastructure packages:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
