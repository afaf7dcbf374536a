package rpc

import "encoding/hex"

// AddressString renders a raw 32-byte on-chain address as a stable hex
// string. This core never needs to round-trip through bech32: the SCAddress
// values it stores are opaque identifiers used for map keys, equality, and
// the serialized route payload (which encodes the raw 32 bytes directly),
// never rendered to a user.
func AddressString(addr [32]byte) string {
	return hex.EncodeToString(addr[:])
}
