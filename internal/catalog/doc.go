// Package catalog holds the vocabulary shared by the room, device, action and
// scene registries: error kinds, partial-update fields, name folding and
// change events.
//
// The entity packages (location, device, automation) define their own
// sentinel errors, each wrapping one of the kinds declared here, so the
// transport layer can map any registry failure to a response with a single
// errors.Is check per kind:
//
//	if errors.Is(err, catalog.ErrNotFound) {
//	    // 404
//	}
package catalog
