// Package auth provides bearer-token authorisation for the dashboard API.
//
// Tokens are HS256-signed JWTs carrying a subject and a role. The role
// maps to a fixed set of permissions:
//   - viewer: read the dashboard state and event stream
//   - operator: everything a viewer can do, plus manage topics, publish
//     commands and start the MQTT session
//
// When no signing secret is configured the API runs open, which suits a
// dashboard on a trusted LAN.
package auth
