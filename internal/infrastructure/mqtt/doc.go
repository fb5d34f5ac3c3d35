// Package mqtt publishes catalog change events to an MQTT broker.
//
// The client keeps a retained status message on {prefix}/system/status
// ("online" after connect, "offline" on graceful shutdown, and the same
// "offline" via Last Will if the process dies). Every committed change is
// published once, not retained, on {prefix}/catalog/{entity}/{verb}:
//
//	domotica/catalog/room/created
//	domotica/catalog/device/linked
//	domotica/catalog/scene/action_added
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	dispatcher.AddSink(mqtt.NewClientSink(client))
//
// Subscribers can follow the whole catalog with Topics.AllCatalogEvents.
package mqtt
