package mqtt

import (
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves the prefix empty.
const DefaultTopicPrefix = "domotica"

// Topics builds the MQTT topics the service publishes on. All topics live
// under one configurable prefix:
//
//	{prefix}/catalog/{entity}/{verb}   change events
//	{prefix}/system/status             retained online/offline status
type Topics struct {
	Prefix string
}

// NewTopics returns a topic builder for prefix. Surrounding slashes are
// trimmed and an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{Prefix: prefix}
}

// CatalogEvent returns the topic for one change event.
//
// Example: domotica/catalog/device/linked
func (t Topics) CatalogEvent(entity, verb string) string {
	return t.Prefix + "/catalog/" + entity + "/" + verb
}

// AllCatalogEvents returns the wildcard matching every change event.
//
// Example: domotica/catalog/#
func (t Topics) AllCatalogEvents() string {
	return t.Prefix + "/catalog/#"
}

// SystemStatus returns the retained service status topic.
//
// Example: domotica/system/status
func (t Topics) SystemStatus() string {
	return t.Prefix + "/system/status"
}
