package net

import "encoding/binary"

// Side and OrderType are wire-level copies of the engine's enums. C1 is
// kept independent of C2's package so the codec can be tested (and, in
// principle, reused) without importing the matching engine.
type Side uint8

const (
	Buy Side = iota
	Sell
)

type OrderType uint8

const (
	GoodTillCancel OrderType = iota
	FillAndKill
	FillOrKill
	GoodForDay
	Market
)

// Status codes carried in response bodies.
const (
	StatusOK                   uint8 = 0
	StatusRejected             uint8 = 1
	StatusUnsupportedOrderType uint8 = 2
	StatusUnknownOrder         uint8 = 3
)

// --- Quit -------------------------------------------------------------

type QuitRequest struct{ Hdr Header }

func (m QuitRequest) Header() Header { return m.Hdr }
func (m QuitRequest) Encode() []byte {
	buf := make([]byte, HeaderLen)
	m.Hdr.put(buf)
	return buf
}

func decodeQuitRequest(h Header) QuitRequest { return QuitRequest{Hdr: h} }

// --- Echo ---------------------------------------------------------------

type EchoRequest struct {
	Hdr     Header
	Message [EchoMessageLen]byte
}

func (m EchoRequest) Header() Header { return m.Hdr }
func (m EchoRequest) Encode() []byte {
	buf := make([]byte, HeaderLen+EchoMessageLen)
	m.Hdr.put(buf)
	copy(buf[HeaderLen:], m.Message[:])
	return buf
}

func decodeEchoRequest(h Header, body []byte) EchoRequest {
	var m EchoRequest
	m.Hdr = h
	copy(m.Message[:], body)
	return m
}

type EchoResponse struct {
	Hdr     Header
	Message [EchoMessageLen]byte
}

func (m EchoResponse) Header() Header { return m.Hdr }
func (m EchoResponse) Encode() []byte {
	buf := make([]byte, HeaderLen+EchoMessageLen)
	m.Hdr.put(buf)
	copy(buf[HeaderLen:], m.Message[:])
	return buf
}

func decodeEchoResponse(h Header, body []byte) EchoResponse {
	var m EchoResponse
	m.Hdr = h
	copy(m.Message[:], body)
	return m
}

// --- ListUsers ------------------------------------------------------------

type ListUsersRequest struct{ Hdr Header }

func (m ListUsersRequest) Header() Header { return m.Hdr }
func (m ListUsersRequest) Encode() []byte {
	buf := make([]byte, HeaderLen)
	m.Hdr.put(buf)
	return buf
}

func decodeListUsersRequest(h Header) ListUsersRequest { return ListUsersRequest{Hdr: h} }

// ListUsersResponse always declares its header Length as
// HeaderLen+4+EchoMessageLen regardless of the real text length — per
// §9's open question, receivers must trust Length, not a NUL scan.
type ListUsersResponse struct {
	Hdr        Header
	NumClients uint32
	Text       [EchoMessageLen]byte
}

func (m ListUsersResponse) Header() Header { return m.Hdr }
func (m ListUsersResponse) Encode() []byte {
	buf := make([]byte, HeaderLen+4+EchoMessageLen)
	m.Hdr.put(buf)
	binary.BigEndian.PutUint32(buf[HeaderLen:HeaderLen+4], m.NumClients)
	copy(buf[HeaderLen+4:], m.Text[:])
	return buf
}

func decodeListUsersResponse(h Header, body []byte) ListUsersResponse {
	var m ListUsersResponse
	m.Hdr = h
	m.NumClients = binary.BigEndian.Uint32(body[0:4])
	copy(m.Text[:], body[4:])
	return m
}

// --- AddOrder ---------------------------------------------------------------

type AddOrderRequest struct {
	Hdr           Header
	OrderType     OrderType
	Side          Side
	Price         uint32
	Quantity      uint32
	ClientOrderID uint64
}

func (m AddOrderRequest) Header() Header { return m.Hdr }
func (m AddOrderRequest) Encode() []byte {
	buf := make([]byte, HeaderLen+18)
	m.Hdr.put(buf)
	buf[HeaderLen] = byte(m.OrderType)
	buf[HeaderLen+1] = byte(m.Side)
	binary.BigEndian.PutUint32(buf[HeaderLen+2:HeaderLen+6], m.Price)
	binary.BigEndian.PutUint32(buf[HeaderLen+6:HeaderLen+10], m.Quantity)
	binary.BigEndian.PutUint64(buf[HeaderLen+10:HeaderLen+18], m.ClientOrderID)
	return buf
}

func decodeAddOrderRequest(h Header, body []byte) AddOrderRequest {
	return AddOrderRequest{
		Hdr:           h,
		OrderType:     OrderType(body[0]),
		Side:          Side(body[1]),
		Price:         binary.BigEndian.Uint32(body[2:6]),
		Quantity:      binary.BigEndian.Uint32(body[6:10]),
		ClientOrderID: binary.BigEndian.Uint64(body[10:18]),
	}
}

type AddOrderResponse struct {
	Hdr           Header
	ClientOrderID uint64
	ServerOrderID uint64
	Status        uint8
}

func (m AddOrderResponse) Header() Header { return m.Hdr }
func (m AddOrderResponse) Encode() []byte {
	buf := make([]byte, HeaderLen+17)
	m.Hdr.put(buf)
	binary.BigEndian.PutUint64(buf[HeaderLen:HeaderLen+8], m.ClientOrderID)
	binary.BigEndian.PutUint64(buf[HeaderLen+8:HeaderLen+16], m.ServerOrderID)
	buf[HeaderLen+16] = m.Status
	return buf
}

func decodeAddOrderResponse(h Header, body []byte) AddOrderResponse {
	return AddOrderResponse{
		Hdr:           h,
		ClientOrderID: binary.BigEndian.Uint64(body[0:8]),
		ServerOrderID: binary.BigEndian.Uint64(body[8:16]),
		Status:        body[16],
	}
}

// --- CancelOrder ------------------------------------------------------------

type CancelOrderRequest struct {
	Hdr     Header
	OrderID uint64
}

func (m CancelOrderRequest) Header() Header { return m.Hdr }
func (m CancelOrderRequest) Encode() []byte {
	buf := make([]byte, HeaderLen+8)
	m.Hdr.put(buf)
	binary.BigEndian.PutUint64(buf[HeaderLen:HeaderLen+8], m.OrderID)
	return buf
}

func decodeCancelOrderRequest(h Header, body []byte) CancelOrderRequest {
	return CancelOrderRequest{Hdr: h, OrderID: binary.BigEndian.Uint64(body[0:8])}
}

type CancelOrderResponse struct {
	Hdr     Header
	OrderID uint64
	Status  uint8
}

func (m CancelOrderResponse) Header() Header { return m.Hdr }
func (m CancelOrderResponse) Encode() []byte {
	buf := make([]byte, HeaderLen+9)
	m.Hdr.put(buf)
	binary.BigEndian.PutUint64(buf[HeaderLen:HeaderLen+8], m.OrderID)
	buf[HeaderLen+8] = m.Status
	return buf
}

func decodeCancelOrderResponse(h Header, body []byte) CancelOrderResponse {
	return CancelOrderResponse{
		Hdr:     h,
		OrderID: binary.BigEndian.Uint64(body[0:8]),
		Status:  body[8],
	}
}

// --- ModifyOrder ------------------------------------------------------------

type ModifyOrderRequest struct {
	Hdr      Header
	OrderID  uint64
	Side     Side
	Price    uint32
	Quantity uint32
}

func (m ModifyOrderRequest) Header() Header { return m.Hdr }
func (m ModifyOrderRequest) Encode() []byte {
	buf := make([]byte, HeaderLen+17)
	m.Hdr.put(buf)
	binary.BigEndian.PutUint64(buf[HeaderLen:HeaderLen+8], m.OrderID)
	buf[HeaderLen+8] = byte(m.Side)
	binary.BigEndian.PutUint32(buf[HeaderLen+9:HeaderLen+13], m.Price)
	binary.BigEndian.PutUint32(buf[HeaderLen+13:HeaderLen+17], m.Quantity)
	return buf
}

func decodeModifyOrderRequest(h Header, body []byte) ModifyOrderRequest {
	return ModifyOrderRequest{
		Hdr:      h,
		OrderID:  binary.BigEndian.Uint64(body[0:8]),
		Side:     Side(body[8]),
		Price:    binary.BigEndian.Uint32(body[9:13]),
		Quantity: binary.BigEndian.Uint32(body[13:17]),
	}
}

// ModifyOrderResponse is byte-for-byte the same body as the request; only
// the header Type (0x15) differs, per §6.
type ModifyOrderResponse struct {
	Hdr      Header
	OrderID  uint64
	Side     Side
	Price    uint32
	Quantity uint32
}

func (m ModifyOrderResponse) Header() Header { return m.Hdr }
func (m ModifyOrderResponse) Encode() []byte {
	buf := make([]byte, HeaderLen+17)
	m.Hdr.put(buf)
	binary.BigEndian.PutUint64(buf[HeaderLen:HeaderLen+8], m.OrderID)
	buf[HeaderLen+8] = byte(m.Side)
	binary.BigEndian.PutUint32(buf[HeaderLen+9:HeaderLen+13], m.Price)
	binary.BigEndian.PutUint32(buf[HeaderLen+13:HeaderLen+17], m.Quantity)
	return buf
}

func decodeModifyOrderResponse(h Header, body []byte) ModifyOrderResponse {
	return ModifyOrderResponse{
		Hdr:      h,
		OrderID:  binary.BigEndian.Uint64(body[0:8]),
		Side:     Side(body[8]),
		Price:    binary.BigEndian.Uint32(body[9:13]),
		Quantity: binary.BigEndian.Uint32(body[13:17]),
	}
}

// --- OrderbookStatus -----------------------------------------------------

type OrderbookStatusRequest struct{ Hdr Header }

func (m OrderbookStatusRequest) Header() Header { return m.Hdr }
func (m OrderbookStatusRequest) Encode() []byte {
	buf := make([]byte, HeaderLen)
	m.Hdr.put(buf)
	return buf
}

func decodeOrderbookStatusRequest(h Header) OrderbookStatusRequest {
	return OrderbookStatusRequest{Hdr: h}
}

// LevelEntry is one (price, quantity) pair within an
// OrderbookStatusResponse.
type LevelEntry struct {
	Price    uint32
	Quantity uint32
}

const orderbookStatusResponseBodyLen = 4 + 4 + MaxLevels*8 + MaxLevels*8

// OrderbookStatusResponse always carries MAX_LEVELS slots per side;
// entries at or beyond BidCount/AskCount are unspecified and MUST be
// ignored by receivers, per §6.
type OrderbookStatusResponse struct {
	Hdr       Header
	BidCount  uint32
	AskCount  uint32
	BidLevels [MaxLevels]LevelEntry
	AskLevels [MaxLevels]LevelEntry
}

func (m OrderbookStatusResponse) Header() Header { return m.Hdr }
func (m OrderbookStatusResponse) Encode() []byte {
	buf := make([]byte, HeaderLen+orderbookStatusResponseBodyLen)
	m.Hdr.put(buf)
	off := HeaderLen
	binary.BigEndian.PutUint32(buf[off:off+4], m.BidCount)
	off += 4
	binary.BigEndian.PutUint32(buf[off:off+4], m.AskCount)
	off += 4
	for _, lvl := range m.BidLevels {
		binary.BigEndian.PutUint32(buf[off:off+4], lvl.Price)
		binary.BigEndian.PutUint32(buf[off+4:off+8], lvl.Quantity)
		off += 8
	}
	for _, lvl := range m.AskLevels {
		binary.BigEndian.PutUint32(buf[off:off+4], lvl.Price)
		binary.BigEndian.PutUint32(buf[off+4:off+8], lvl.Quantity)
		off += 8
	}
	return buf
}

func decodeOrderbookStatusResponse(h Header, body []byte) OrderbookStatusResponse {
	var m OrderbookStatusResponse
	m.Hdr = h
	off := 0
	m.BidCount = binary.BigEndian.Uint32(body[off : off+4])
	off += 4
	m.AskCount = binary.BigEndian.Uint32(body[off : off+4])
	off += 4
	for i := 0; i < MaxLevels; i++ {
		m.BidLevels[i] = LevelEntry{
			Price:    binary.BigEndian.Uint32(body[off : off+4]),
			Quantity: binary.BigEndian.Uint32(body[off+4 : off+8]),
		}
		off += 8
	}
	for i := 0; i < MaxLevels; i++ {
		m.AskLevels[i] = LevelEntry{
			Price:    binary.BigEndian.Uint32(body[off : off+4]),
			Quantity: binary.BigEndian.Uint32(body[off+4 : off+8]),
		}
		off += 8
	}
	return m
}

// --- TradeNotification -----------------------------------------------------

type TradeNotification struct {
	Hdr         Header
	BuyOrderID  uint64
	SellOrderID uint64
	Price       uint32
	Quantity    uint32
}

func (m TradeNotification) Header() Header { return m.Hdr }
func (m TradeNotification) Encode() []byte {
	buf := make([]byte, HeaderLen+24)
	m.Hdr.put(buf)
	binary.BigEndian.PutUint64(buf[HeaderLen:HeaderLen+8], m.BuyOrderID)
	binary.BigEndian.PutUint64(buf[HeaderLen+8:HeaderLen+16], m.SellOrderID)
	binary.BigEndian.PutUint32(buf[HeaderLen+16:HeaderLen+20], m.Price)
	binary.BigEndian.PutUint32(buf[HeaderLen+20:HeaderLen+24], m.Quantity)
	return buf
}

func decodeTradeNotification(h Header, body []byte) TradeNotification {
	return TradeNotification{
		Hdr:         h,
		BuyOrderID:  binary.BigEndian.Uint64(body[0:8]),
		SellOrderID: binary.BigEndian.Uint64(body[8:16]),
		Price:       binary.BigEndian.Uint32(body[16:20]),
		Quantity:    binary.BigEndian.Uint32(body[20:24]),
	}
}

// --- Error / Unknown ---------------------------------------------------

// ErrorMessage is a bare header typed TypeError; the offending sequence
// is echoed in Hdr.Sequence.
type ErrorMessage struct{ Hdr Header }

func (m ErrorMessage) Header() Header { return m.Hdr }
func (m ErrorMessage) Encode() []byte {
	buf := make([]byte, HeaderLen)
	m.Hdr.put(buf)
	return buf
}

// Unknown is produced by Decode for any type code outside the catalog.
// The dispatcher turns it into an ErrorMessage response carrying the
// original sequence.
type Unknown struct {
	Hdr Header
}

func (m Unknown) Header() Header { return m.Hdr }
func (m Unknown) Encode() []byte {
	buf := make([]byte, HeaderLen)
	m.Hdr.put(buf)
	return buf
}
