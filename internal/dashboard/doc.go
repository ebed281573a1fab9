// Package dashboard implements the device dashboard core: the persisted
// topic set, subscription reconciliation against the MQTT session, inbound
// payload decoding and outbound level commands.
//
// # Architecture
//
// A single Controller owns all mutable state (topic set, session state,
// readings and activity log). Session callbacks and user actions are
// posted to its event loop and run one at a time in arrival order, so no
// locks guard the domain state.
//
//	MQTT session ──► Controller event loop ──► Renderer (WebSocket hub)
//	     ▲                │   │   │
//	     │                │   │   └─► ActivityRepository (SQLite)
//	     └── Reconciler ◄─┘   └─────► TelemetrySink (InfluxDB)
//
// Decoding is table driven: NewRules builds a topic to Rule map from the
// configured channels, and every DecodeFunc is pure.
//
// # Session lifecycle
//
// Disconnected ──Connect──► Connecting ──onConnect──► Connected
//
//	Connecting ──failure──► Failed
//	Connected ──lost──► Lost ──onConnect──► Connected
//
// Entering Connected always triggers a full resubscribe, because a fresh
// transport session starts with no subscriptions.
package dashboard
