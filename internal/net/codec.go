package net

import "fmt"

// minBodyLen returns the minimum body size (excluding the header) for a
// known type, or HeaderLen-relative 0 for anything decoded as Unknown.
func minBodyLen(t MessageType) int {
	switch t {
	case TypeQuit, TypeOrderbookStatusRequest, TypeListUsersRequest:
		return 0
	case TypeEchoRequest, TypeEchoResponse:
		return EchoMessageLen
	case TypeListUsersResponse:
		return 4 + EchoMessageLen
	case TypeAddOrderRequest:
		return 18
	case TypeAddOrderResponse:
		return 17
	case TypeCancelOrderRequest:
		return 8
	case TypeCancelOrderResponse:
		return 9
	case TypeModifyOrderRequest, TypeModifyOrderResponse:
		return 17
	case TypeOrderbookStatusResponse:
		return orderbookStatusResponseBodyLen
	case TypeTradeNotification:
		return 24
	case TypeError:
		return 0
	default:
		return 0
	}
}

// Decode consumes exactly one frame from the front of buf. On success it
// returns the decoded Message and the number of bytes consumed. If buf
// holds fewer than HeaderLen bytes, or fewer bytes than the header's own
// Length field, it returns ErrNeedMore and the caller should wait for
// more data before calling again.
func Decode(buf []byte) (Message, int, error) {
	if len(buf) < HeaderLen {
		return nil, 0, ErrNeedMore
	}
	h := decodeHeader(buf)

	if int(h.Length) < HeaderLen+minBodyLen(h.Type) {
		return nil, 0, fmt.Errorf("type %#x length %d: %w", h.Type, h.Length, ErrMalformed)
	}
	if len(buf) < int(h.Length) {
		return nil, 0, ErrNeedMore
	}

	body := buf[HeaderLen:h.Length]
	var msg Message
	switch h.Type {
	case TypeQuit:
		msg = decodeQuitRequest(h)
	case TypeEchoRequest:
		msg = decodeEchoRequest(h, body)
	case TypeEchoResponse:
		msg = decodeEchoResponse(h, body)
	case TypeListUsersRequest:
		msg = decodeListUsersRequest(h)
	case TypeListUsersResponse:
		msg = decodeListUsersResponse(h, body)
	case TypeAddOrderRequest:
		msg = decodeAddOrderRequest(h, body)
	case TypeAddOrderResponse:
		msg = decodeAddOrderResponse(h, body)
	case TypeCancelOrderRequest:
		msg = decodeCancelOrderRequest(h, body)
	case TypeCancelOrderResponse:
		msg = decodeCancelOrderResponse(h, body)
	case TypeModifyOrderRequest:
		msg = decodeModifyOrderRequest(h, body)
	case TypeModifyOrderResponse:
		msg = decodeModifyOrderResponse(h, body)
	case TypeOrderbookStatusRequest:
		msg = decodeOrderbookStatusRequest(h)
	case TypeOrderbookStatusResponse:
		msg = decodeOrderbookStatusResponse(h, body)
	case TypeTradeNotification:
		msg = decodeTradeNotification(h, body)
	case TypeError:
		msg = ErrorMessage{Hdr: h}
	default:
		msg = Unknown{Hdr: h}
	}
	return msg, int(h.Length), nil
}

// Encode serializes any Message back to its wire bytes.
func Encode(m Message) []byte {
	return m.Encode()
}
