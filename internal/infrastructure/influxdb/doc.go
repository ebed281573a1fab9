// Package influxdb mirrors decoded dashboard readings into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Every reading the
// dashboard renders (temperature, humidity, illuminance, level, setpoint)
// is written as one point of the "dashboard_readings" measurement, tagged
// with its topic, channel kind and display target.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteReading("emqx/esp32eqwt", "temperature", "temp-reading", 23.4)
//
// # Error Handling
//
// Writes are non-blocking and batched; failures are delivered to the
// SetOnError callback wrapped in ErrWriteFailed. Connection and health
// check errors are returned directly.
package influxdb
