package net

import (
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/struccomaker/simple-orderbook-v1/internal/engine"
)

// fakeGateway lets session tests exercise dispatch without a real engine
// behind it, per the Gateway interface's testability goal.
type fakeGateway struct {
	addFn      func(*engine.Order) ([]engine.Trade, error)
	cancelled  []engine.OrderId
	modifyFn   func(engine.OrderId, engine.Side, engine.Price, engine.Quantity) ([]engine.Trade, error)
	snapshotFn func() ([]engine.LevelInfo, []engine.LevelInfo)
}

func (f *fakeGateway) AddOrder(order *engine.Order) ([]engine.Trade, error) {
	if f.addFn != nil {
		return f.addFn(order)
	}
	return nil, nil
}

func (f *fakeGateway) CancelOrder(id engine.OrderId) {
	f.cancelled = append(f.cancelled, id)
}

func (f *fakeGateway) ModifyOrder(id engine.OrderId, side engine.Side, price engine.Price, quantity engine.Quantity) ([]engine.Trade, error) {
	if f.modifyFn != nil {
		return f.modifyFn(id, side, price, quantity)
	}
	return nil, nil
}

func (f *fakeGateway) Snapshot() ([]engine.LevelInfo, []engine.LevelInfo) {
	if f.snapshotFn != nil {
		return f.snapshotFn()
	}
	return nil, nil
}

func newTestSession(t *testing.T, gw Gateway) (*Session, net.Conn) {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	t.Cleanup(func() { _ = clientConn.Close() })
	sess := NewSession(serverConn, 1, gw, 0, func() uint32 { return 1 })
	return sess, clientConn
}

func readFrame(t *testing.T, conn net.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	msg, consumed, err := Decode(buf[:n])
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	return msg
}

func TestSession_EchoRoundTrip(t *testing.T) {
	gw := &fakeGateway{}
	sess, client := newTestSession(t, gw)

	var body [EchoMessageLen]byte
	copy(body[:], "hi")
	req := EchoRequest{Hdr: Header{Type: TypeEchoRequest, Length: HeaderLen + EchoMessageLen, Sequence: 11}, Message: body}

	logger := zerolog.Nop()
	sess.buf = req.Encode()
	done := make(chan bool, 1)
	go func() { done <- sess.processBuffered(&logger) }()

	resp := readFrame(t, client)
	echo, ok := resp.(EchoResponse)
	require.True(t, ok)
	assert.Equal(t, uint32(11), echo.Hdr.Sequence)
	assert.Equal(t, body, echo.Message)
	assert.False(t, <-done)
}

func TestSession_QuitAcksWithBareEchoHeader(t *testing.T) {
	gw := &fakeGateway{}
	sess, client := newTestSession(t, gw)

	logger := zerolog.Nop()

	req := QuitRequest{Hdr: Header{Type: TypeQuit, Length: HeaderLen, Sequence: 99}}
	sess.buf = req.Encode()

	done := make(chan bool, 1)
	go func() { done <- sess.processBuffered(&logger) }()

	// The ack is a bare header. Decode rejects an EchoResponse shorter than
	// its 256-byte body as malformed, so the header is parsed directly.
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	raw := make([]byte, 4096)
	n, err := client.Read(raw)
	require.NoError(t, err)
	require.Equal(t, HeaderLen, n)
	ack := decodeHeader(raw[:n])
	assert.Equal(t, TypeEchoResponse, ack.Type)
	assert.Equal(t, uint32(HeaderLen), ack.Length)
	assert.Equal(t, uint32(0), ack.Sequence)
	assert.True(t, <-done)
}

func TestSession_AddOrderRejectedSurfacesStatus(t *testing.T) {
	gw := &fakeGateway{
		addFn: func(o *engine.Order) ([]engine.Trade, error) {
			return nil, engine.ErrUnsupportedOrderType
		},
	}
	sess, client := newTestSession(t, gw)

	logger := zerolog.Nop()

	req := AddOrderRequest{
		Hdr:           Header{Type: TypeAddOrderRequest, Length: HeaderLen + 18, Sequence: 1},
		OrderType:     Market,
		Side:          Buy,
		Price:         100,
		Quantity:      10,
		ClientOrderID: 5,
	}
	sess.buf = req.Encode()

	go func() { sess.processBuffered(&logger) }()

	resp := readFrame(t, client)
	addResp, ok := resp.(AddOrderResponse)
	require.True(t, ok)
	assert.Equal(t, StatusUnsupportedOrderType, addResp.Status)
	assert.Equal(t, uint64(5), addResp.ClientOrderID)
}

func TestSession_CancelOrderForwardsToGateway(t *testing.T) {
	gw := &fakeGateway{}
	sess, client := newTestSession(t, gw)

	logger := zerolog.Nop()

	req := CancelOrderRequest{Hdr: Header{Type: TypeCancelOrderRequest, Length: HeaderLen + 8, Sequence: 2}, OrderID: 77}
	sess.buf = req.Encode()

	go func() { sess.processBuffered(&logger) }()

	resp := readFrame(t, client)
	cancelResp, ok := resp.(CancelOrderResponse)
	require.True(t, ok)
	assert.Equal(t, uint64(77), cancelResp.OrderID)
	assert.Equal(t, []engine.OrderId{77}, gw.cancelled)
}

func TestSession_UnknownTypeBecomesErrorFrame(t *testing.T) {
	gw := &fakeGateway{}
	sess, client := newTestSession(t, gw)

	logger := zerolog.Nop()

	buf := make([]byte, HeaderLen)
	Header{Type: MessageType(0x77), Length: HeaderLen, Sequence: 42}.put(buf)
	sess.buf = buf

	go func() { sess.processBuffered(&logger) }()

	resp := readFrame(t, client)
	errMsg, ok := resp.(ErrorMessage)
	require.True(t, ok)
	assert.Equal(t, uint32(42), errMsg.Hdr.Sequence)
}

func TestSession_MalformedFrameDropsBufferAndRepliesWithError(t *testing.T) {
	gw := &fakeGateway{}
	sess, client := newTestSession(t, gw)

	logger := zerolog.Nop()

	buf := make([]byte, HeaderLen)
	Header{Type: TypeCancelOrderRequest, Length: HeaderLen, Sequence: 8}.put(buf)
	sess.buf = buf

	done := make(chan bool, 1)
	go func() { done <- sess.processBuffered(&logger) }()

	resp := readFrame(t, client)
	_, ok := resp.(ErrorMessage)
	require.True(t, ok)
	assert.False(t, <-done)
	assert.Empty(t, sess.buf)
}
