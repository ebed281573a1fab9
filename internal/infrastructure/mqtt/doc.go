// Package mqtt provides the dashboard's single MQTT session.
//
// The session is a thin, non-blocking adapter over paho.mqtt.golang:
//   - Connect reports its outcome asynchronously through Handlers
//   - Subscribe, Unsubscribe and Send are fire-and-forget; broker
//     acknowledgements are never awaited by the caller
//   - Connection loss is reported through Handlers.OnConnectionLost
//
// Unlike a long-running service client, the session does not remember
// subscriptions. Every fresh connection starts with none, and the
// dashboard's reconciler resubscribes the whole topic set when it sees
// the session come up.
//
// # Transports
//
//	tcp        tcp://host:port   or ssl://host:port with tls: true
//	websocket  ws://host:port/path or wss://host:port/path with tls: true
//
// # Usage
//
//	session := mqtt.NewSession(cfg.MQTT, mqtt.Handlers{
//	    OnConnect:        func() { ... },
//	    OnConnectFailed:  func(err error) { ... },
//	    OnConnectionLost: func(err error) { ... },
//	    OnMessage:        func(topic string, payload []byte) { ... },
//	})
//	session.Connect()
//	defer session.Close()
package mqtt
