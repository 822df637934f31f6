// Package relay carries the replication protocol over WebSockets.
//
// A Server hosts named rooms. Each connection says hello with a room, a peer
// id and a display name; the server answers with a welcome listing the room
// and then the last state the room's owner serialized, so late joiners catch
// up before anything else. State frames are accepted only from the owner and
// forwarded to every other member in arrival order. The first member owns a
// room; when the owner disconnects the oldest remaining member takes over.
//
// Client implements host.Network on top of a connection, posting every
// inbound frame onto the frame loop of the manager it serves.
//
// Frames are CBOR encoded binary messages.
package relay
