// Package influxdb records catalog activity in InfluxDB.
//
// Each committed change becomes one point in the catalog_events measurement:
//
//	catalog_events,entity_type=device,event=linked entity_id=7i,count=1i,changed=true
//
// Tags stay low-cardinality (entity type and verb) so the series can be
// grouped and counted over time; the entity id is a field.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { logger.Warn("influx write failed", "error", err) })
//
//	dispatcher.AddSink(influxdb.NewEventSink(client))
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval; write failures arrive through the SetOnError callback.
package influxdb
