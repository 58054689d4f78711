// Package realtime carries lock coordinator traffic over websockets.
//
// Hub tracks open connections and implements lock.Publisher. Server upgrades
// HTTP requests, runs one read and one write pump per connection, and turns
// inbound messages into coordinator calls. Every message on the wire is an
// Envelope: {"event": "<name>", "data": <payload>}.
package realtime
