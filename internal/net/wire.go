// Package net implements the wire codec (C1), the per-connection session
// handler (C3), and the TCP listener (C5) for the order-book protocol.
// It deliberately shares its package name with the standard library's
// net package — every file below still reaches the stdlib through a
// plain "net" import; only this package's own identifiers are declared
// here, so there is no ambiguity.
package net

import (
	"encoding/binary"
	"errors"
)

// MessageType is the wire-level type byte. Values match the numeric
// codes in §6 of the protocol this service implements.
type MessageType uint8

const (
	TypeQuit                    MessageType = 0x01
	TypeEchoRequest             MessageType = 0x02
	TypeEchoResponse            MessageType = 0x03
	TypeListUsersRequest        MessageType = 0x04
	TypeListUsersResponse       MessageType = 0x05
	TypeAddOrderRequest         MessageType = 0x10
	TypeAddOrderResponse        MessageType = 0x11
	TypeCancelOrderRequest      MessageType = 0x12
	TypeCancelOrderResponse     MessageType = 0x13
	TypeModifyOrderRequest      MessageType = 0x14
	TypeModifyOrderResponse     MessageType = 0x15
	TypeOrderbookStatusRequest  MessageType = 0x16
	TypeOrderbookStatusResponse MessageType = 0x17
	TypeTradeNotification       MessageType = 0x18
	TypeError                   MessageType = 0x30
)

// HeaderLen is the size of the common header: type (1 byte) + length (4
// bytes) + sequence (4 bytes) = 9 bytes. The reference protocol this
// project implements calls this a "12-byte header" in prose but packs
// its MessageHeader struct with #pragma pack(1) and no reserved field,
// which sizes to 9 bytes; this implementation follows the packed struct
// layout, not the prose count (see DESIGN.md).
const HeaderLen = 9

// MaxLevels bounds the number of price levels carried in an
// OrderbookStatusResponse per side.
const MaxLevels = 10

// EchoMessageLen is the fixed width of the NUL-terminated text field
// carried by EchoRequest/EchoResponse and the text portion of
// ListUsersResponse.
const EchoMessageLen = 256

var (
	// ErrNeedMore indicates the buffer holds fewer than HeaderLen bytes,
	// or fewer bytes than the header's own declared Length.
	ErrNeedMore = errors.New("net: need more bytes")

	// ErrMalformed indicates a header whose declared Length is smaller
	// than the minimum body size for its Type.
	ErrMalformed = errors.New("net: malformed frame")
)

// Header is the 9-byte prefix common to every frame.
type Header struct {
	Type     MessageType
	Length   uint32
	Sequence uint32
}

func (h Header) put(buf []byte) {
	buf[0] = byte(h.Type)
	binary.BigEndian.PutUint32(buf[1:5], h.Length)
	binary.BigEndian.PutUint32(buf[5:9], h.Sequence)
}

func decodeHeader(buf []byte) Header {
	return Header{
		Type:     MessageType(buf[0]),
		Length:   binary.BigEndian.Uint32(buf[1:5]),
		Sequence: binary.BigEndian.Uint32(buf[5:9]),
	}
}

// Message is implemented by every decoded frame type, including
// Unknown.
type Message interface {
	Header() Header
	Encode() []byte
}
