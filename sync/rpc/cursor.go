// Package rpc consumes domain.RPCClient to read on-chain pool state and
// decodes it into the pool-status DTOs the sync worker builds
// domain.PricingModel instances from. Grounded on
// opendex_aggregator_api/services/parsers/*.py and
// jex_dex_aggregator_api/services/parsers/*.py: the same top-proto
// (length-prefixed nested values, fixed-width integers, 32-byte addresses)
// SPEC_FULL.md §6 names for serialize/route.go.
package rpc

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"cosmossdk.io/math"
)

// cursor reads one MultiversX smart-contract query result (a single
// []byte returnData entry) left to right, the Go mirror of the Python
// parsers' "offset, read = parse_x(hex_[offset:])" style.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.remaining() < n {
		return nil, fmt.Errorf("rpc: short read: need %d bytes, have %d", n, c.remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// address reads a fixed 32-byte on-chain address, left raw (bech32 encoding
// is a display concern the aggregator core never needs).
func (c *cursor) address() ([32]byte, error) {
	var out [32]byte
	b, err := c.take(32)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func (c *cursor) uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) bool() (bool, error) {
	b, err := c.uint8()
	return b != 0, err
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) uint64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// nestedString reads a u32-be length prefix followed by that many raw
// bytes, the wire shape shared by token identifiers and nested strings
// (parse_nested_str in the Python reference).
func (c *cursor) nestedString() (string, error) {
	n, err := c.uint32()
	if err != nil {
		return "", err
	}
	b, err := c.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// amount reads a u32-be length prefix followed by a big-endian unsigned
// integer of that many bytes (parse_amount in the Python reference); a
// zero length means the value is exactly zero.
func (c *cursor) amount() (math.Int, error) {
	n, err := c.uint32()
	if err != nil {
		return math.Int{}, err
	}
	if n == 0 {
		return math.ZeroInt(), nil
	}
	b, err := c.take(int(n))
	if err != nil {
		return math.Int{}, err
	}
	return math.NewIntFromBigInt(new(big.Int).SetBytes(b)), nil
}

// optionalAddress reads a presence byte followed by an address when present,
// matching fields like Opendex's optional fee_token_id / platform_fees_receiver.
func (c *cursor) optionalAddress() (*[32]byte, error) {
	present, err := c.bool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	addr, err := c.address()
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// optionalString reads a presence byte followed by a nested string when
// present.
func (c *cursor) optionalString() (string, bool, error) {
	present, err := c.bool()
	if err != nil {
		return "", false, err
	}
	if !present {
		return "", false, nil
	}
	s, err := c.nestedString()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}
