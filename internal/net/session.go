package net

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/struccomaker/simple-orderbook-v1/internal/engine"
)

// recvChunkSize is how much we read off the socket per Read call; the
// reassembly buffer grows independently of this.
const recvChunkSize = 4096

// Gateway is the subset of engine.Gateway a Session needs. Declaring it
// here, rather than depending on the concrete type, keeps this package
// testable against a fake book.
type Gateway interface {
	AddOrder(order *engine.Order) ([]engine.Trade, error)
	CancelOrder(id engine.OrderId)
	ModifyOrder(id engine.OrderId, side engine.Side, price engine.Price, quantity engine.Quantity) ([]engine.Trade, error)
	Snapshot() (bids []engine.LevelInfo, asks []engine.LevelInfo)
}

// Session owns exactly one client socket for its lifetime (C3). It reads
// bytes into a growable reassembly buffer, dispatches complete frames to
// the engine gateway, and writes responses — and any trade notifications
// that request produced — back on the same socket before moving on to
// the next frame.
type Session struct {
	id       uuid.UUID
	clientID uint32
	conn     net.Conn
	gw       Gateway

	readTimeout time.Duration
	clientCount func() uint32

	buf []byte
}

// NewSession wraps conn for clientID, dispatching requests against gw.
// clientCount, if non-nil, is consulted to answer ListUsersRequest;
// passing nil reports zero.
func NewSession(conn net.Conn, clientID uint32, gw Gateway, readTimeout time.Duration, clientCount func() uint32) *Session {
	return &Session{
		id:          uuid.New(),
		clientID:    clientID,
		conn:        conn,
		gw:          gw,
		readTimeout: readTimeout,
		clientCount: clientCount,
	}
}

// Run drives the session's read/dispatch/write loop until the peer
// closes, a socket error occurs, the client sends Quit, or t starts
// dying. Transport and protocol failures only ever end this one
// session; they are logged, not propagated.
func (s *Session) Run(t *tomb.Tomb) {
	logger := log.With().
		Str("session", s.id.String()).
		Uint32("client_id", s.clientID).
		Str("remote", s.conn.RemoteAddr().String()).
		Logger()
	logger.Info().Msg("session started")
	defer func() {
		if err := s.conn.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing connection")
		}
		logger.Info().Msg("session ended")
	}()

	chunk := make([]byte, recvChunkSize)
	for {
		select {
		case <-t.Dying():
			return
		default:
		}

		if s.readTimeout > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
				logger.Warn().Err(err).Msg("failed to set read deadline")
			}
		}

		n, err := s.conn.Read(chunk)
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
			if s.processBuffered(&logger) {
				return // Quit was handled.
			}
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if err == io.EOF {
				logger.Info().Msg("peer closed connection")
			} else {
				logger.Warn().Err(err).Msg("read error, ending session")
			}
			return
		}
	}
}

// processBuffered dispatches every complete frame currently in s.buf. It
// returns true if a Quit request was handled, in which case the caller
// should stop the session.
func (s *Session) processBuffered(logger *zerolog.Logger) bool {
	for {
		msg, consumed, err := Decode(s.buf)
		if err != nil {
			if errors.Is(err, ErrNeedMore) {
				return false
			}
			// Malformed: the declared length is untrustworthy, so there
			// is no safe resync point within the buffer. Reply with
			// whatever sequence we can read and drop everything we have.
			var seq uint32
			if len(s.buf) >= HeaderLen {
				seq = decodeHeader(s.buf).Sequence
			}
			logger.Warn().Err(err).Msg("malformed frame, dropping buffer")
			s.write(ErrorMessage{Hdr: Header{Type: TypeError, Length: HeaderLen, Sequence: seq}})
			s.buf = nil
			return false
		}

		s.buf = s.buf[consumed:]
		if s.dispatch(msg) {
			return true
		}
	}
}

// dispatch handles one decoded frame and returns true iff it was a Quit
// request (after acknowledging it).
func (s *Session) dispatch(msg Message) bool {
	switch m := msg.(type) {
	case QuitRequest:
		// The reference protocol this service implements acknowledges
		// quit with a bare header typed RSP_ECHO and sequence 0, not a
		// dedicated ack type; kept as-is rather than "fixed" (see
		// SPEC_FULL.md, SUPPLEMENTED FEATURES item 2).
		s.writeHeaderOnly(Header{Type: TypeEchoResponse, Length: HeaderLen, Sequence: 0})
		return true

	case EchoRequest:
		s.write(EchoResponse{
			Hdr:     Header{Type: TypeEchoResponse, Length: HeaderLen + EchoMessageLen, Sequence: m.Hdr.Sequence},
			Message: m.Message,
		})

	case ListUsersRequest:
		s.write(s.listUsersResponse())

	case AddOrderRequest:
		s.handleAddOrder(m)

	case CancelOrderRequest:
		s.gw.CancelOrder(engine.OrderId(m.OrderID))
		s.write(CancelOrderResponse{
			Hdr:     Header{Type: TypeCancelOrderResponse, Length: HeaderLen + 9, Sequence: m.Hdr.Sequence},
			OrderID: m.OrderID,
			Status:  StatusOK,
		})

	case ModifyOrderRequest:
		s.handleModifyOrder(m)

	case OrderbookStatusRequest:
		s.write(s.orderbookStatusResponse(m.Hdr.Sequence))

	default:
		// Unknown type codes, and any server-to-client-only type a
		// client should never send, both become an Error frame that
		// preserves the original sequence (§4.1).
		s.write(ErrorMessage{Hdr: Header{Type: TypeError, Length: HeaderLen, Sequence: msg.Header().Sequence}})
	}
	return false
}

func (s *Session) handleAddOrder(m AddOrderRequest) {
	orderType := engine.OrderType(m.OrderType)
	side := engine.Side(m.Side)
	serverOrderID := engine.OrderId(m.ClientOrderID)

	trades, err := s.gw.AddOrder(engine.NewOrder(serverOrderID, orderType, side, engine.Price(int32(m.Price)), engine.Quantity(m.Quantity)))
	status := StatusOK
	switch {
	case errors.Is(err, engine.ErrUnsupportedOrderType):
		status = StatusUnsupportedOrderType
	case err != nil:
		status = StatusRejected
	}

	s.write(AddOrderResponse{
		Hdr:           Header{Type: TypeAddOrderResponse, Length: HeaderLen + 17, Sequence: m.Hdr.Sequence},
		ClientOrderID: m.ClientOrderID,
		ServerOrderID: uint64(serverOrderID),
		Status:        status,
	})

	s.emitTrades(trades)
}

func (s *Session) handleModifyOrder(m ModifyOrderRequest) {
	// ModifyOrder's rejection rules mirror AddOrder's; the response
	// below always echoes the request fields regardless, per §6 — the
	// wire protocol has no status field for RSP_MODIFY_ORDER.
	trades, _ := s.gw.ModifyOrder(
		engine.OrderId(m.OrderID),
		engine.Side(m.Side),
		engine.Price(int32(m.Price)),
		engine.Quantity(m.Quantity),
	)

	s.write(ModifyOrderResponse{
		Hdr:      Header{Type: TypeModifyOrderResponse, Length: HeaderLen + 17, Sequence: m.Hdr.Sequence},
		OrderID:  m.OrderID,
		Side:     m.Side,
		Price:    m.Price,
		Quantity: m.Quantity,
	})

	s.emitTrades(trades)
}

// emitTrades writes one TradeNotification per trade in engine emission
// order. A session must never reorder writes on its own socket, so
// these go out synchronously right after the triggering response.
func (s *Session) emitTrades(trades []engine.Trade) {
	for _, tr := range trades {
		s.write(TradeNotification{
			Hdr:         Header{Type: TypeTradeNotification, Length: HeaderLen + 24, Sequence: 0},
			BuyOrderID:  uint64(tr.Bid.OrderID),
			SellOrderID: uint64(tr.Ask.OrderID),
			Price:       uint32(int32(tr.Bid.Price)),
			Quantity:    uint32(tr.Bid.Quantity),
		})
	}
}

func (s *Session) listUsersResponse() ListUsersResponse {
	var n uint32
	if s.clientCount != nil {
		n = s.clientCount()
	}
	resp := ListUsersResponse{
		Hdr:        Header{Type: TypeListUsersResponse, Length: HeaderLen + 4 + EchoMessageLen, Sequence: 0},
		NumClients: n,
	}
	text := fmt.Sprintf("Connected clients: %d", n)
	copy(resp.Text[:], text)
	return resp
}

func (s *Session) orderbookStatusResponse(seq uint32) OrderbookStatusResponse {
	bids, asks := s.gw.Snapshot()
	resp := OrderbookStatusResponse{
		Hdr:      Header{Type: TypeOrderbookStatusResponse, Length: HeaderLen + orderbookStatusResponseBodyLen, Sequence: seq},
		BidCount: uint32(min(len(bids), MaxLevels)),
		AskCount: uint32(min(len(asks), MaxLevels)),
	}
	for i := 0; i < len(bids) && i < MaxLevels; i++ {
		resp.BidLevels[i] = LevelEntry{Price: uint32(int32(bids[i].Price)), Quantity: uint32(bids[i].Quantity)}
	}
	for i := 0; i < len(asks) && i < MaxLevels; i++ {
		resp.AskLevels[i] = LevelEntry{Price: uint32(int32(asks[i].Price)), Quantity: uint32(asks[i].Quantity)}
	}
	return resp
}

func (s *Session) write(m Message) {
	if _, err := s.conn.Write(m.Encode()); err != nil {
		log.Warn().Err(err).Str("session", s.id.String()).Msg("write failed")
	}
}

func (s *Session) writeHeaderOnly(h Header) {
	buf := make([]byte, HeaderLen)
	h.put(buf)
	if _, err := s.conn.Write(buf); err != nil {
		log.Warn().Err(err).Str("session", s.id.String()).Msg("write failed")
	}
}
