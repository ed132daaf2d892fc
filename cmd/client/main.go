// Command orderbook-client is the interactive front-end for the
// order-book server: a thin REPL that frames commands onto the wire
// protocol and prints whatever comes back. It carries no matching or
// session logic of its own (§6).
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	orderbooknet "github.com/struccomaker/simple-orderbook-v1/internal/net"
)

type client struct {
	conn     net.Conn
	sequence atomic.Uint32
	nextID   atomic.Uint64
	done     chan struct{}
}

func main() {
	c := &client{}

	fmt.Println("Order Book Client")
	fmt.Println("Type 'help' for available commands")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		if !c.dispatch(scanner.Text()) {
			break
		}
	}
	c.disconnect()
}

// dispatch runs one REPL line. It returns false when the client should
// exit.
func (c *client) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "connect":
		if len(args) != 2 {
			fmt.Println("Usage: connect <host> <port>")
			return true
		}
		c.connect(args[0], args[1])

	case "disconnect":
		c.disconnect()

	case "echo":
		msg := strings.Join(args, " ")
		if msg == "" {
			fmt.Println("Usage: echo <message>")
			return true
		}
		c.sendEcho(msg)

	case "users":
		c.sendListUsers()

	case "buy":
		c.sendAddOrder(orderbooknet.GoodTillCancel, orderbooknet.Buy, args)

	case "sell":
		c.sendAddOrder(orderbooknet.GoodTillCancel, orderbooknet.Sell, args)

	case "fkbuy":
		c.sendAddOrder(orderbooknet.FillAndKill, orderbooknet.Buy, args)

	case "fksell":
		c.sendAddOrder(orderbooknet.FillAndKill, orderbooknet.Sell, args)

	case "cancel":
		if len(args) != 1 {
			fmt.Println("Usage: cancel <order_id>")
			return true
		}
		orderID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			fmt.Println("Usage: cancel <order_id>")
			return true
		}
		c.sendCancelOrder(orderID)

	case "modify":
		c.sendModifyOrder(args)

	case "book":
		c.sendOrderbookStatus()

	case "quit", "exit":
		if c.conn != nil {
			c.sendQuit()
			c.disconnect()
		}
		return false

	case "help":
		printHelp()

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type 'help' for available commands")
	}
	return true
}

func printHelp() {
	fmt.Println("  connect <host> <port>   - Connect to server")
	fmt.Println("  disconnect              - Disconnect from server")
	fmt.Println("  echo <message>          - Send echo request")
	fmt.Println("  users                   - Request list of connected users")
	fmt.Println("  buy <price> <quantity>  - Place buy order")
	fmt.Println("  sell <price> <quantity> - Place sell order")
	fmt.Println("  fkbuy <price> <qty>     - Place fill-and-kill buy order")
	fmt.Println("  fksell <price> <qty>    - Place fill-and-kill sell order")
	fmt.Println("  cancel <order_id>       - Cancel order")
	fmt.Println("  modify <id> <side> <price> <qty> - Modify order")
	fmt.Println("  book                    - Request orderbook status")
	fmt.Println("  quit                    - Exit application")
	fmt.Println("  help                    - Display this help")
}

func (c *client) connect(host, portStr string) {
	if c.conn != nil {
		fmt.Println("Already connected to a server")
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		fmt.Println("Usage: connect <host> <port>")
		return
	}
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		fmt.Printf("Error connecting to server: %v\n", err)
		return
	}
	c.conn = conn
	c.done = make(chan struct{})
	go c.receiveLoop()
	fmt.Printf("Connected to server %s:%d\n", host, port)
}

func (c *client) disconnect() {
	if c.conn == nil {
		return
	}
	close(c.done)
	_ = c.conn.Close()
	c.conn = nil
}

func (c *client) receiveLoop() {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			for {
				msg, consumed, derr := orderbooknet.Decode(buf)
				if derr != nil {
					break
				}
				buf = buf[consumed:]
				printMessage(msg)
			}
		}
		if err != nil {
			select {
			case <-c.done:
			default:
				if err != io.EOF {
					fmt.Printf("\nConnection lost: %v\n", err)
				} else {
					fmt.Println("\nServer closed the connection")
				}
			}
			return
		}
	}
}

func printMessage(msg orderbooknet.Message) {
	switch m := msg.(type) {
	case orderbooknet.EchoResponse:
		fmt.Printf("\n[ECHO] %s\n", nulTerminated(m.Message[:]))
	case orderbooknet.ListUsersResponse:
		fmt.Printf("\n[USERS] %s\n", nulTerminated(m.Text[:]))
	case orderbooknet.AddOrderResponse:
		fmt.Printf("\n[ADD ORDER] client_id=%d server_id=%d status=%d\n", m.ClientOrderID, m.ServerOrderID, m.Status)
	case orderbooknet.CancelOrderResponse:
		fmt.Printf("\n[CANCEL ORDER] order_id=%d status=%d\n", m.OrderID, m.Status)
	case orderbooknet.ModifyOrderResponse:
		fmt.Printf("\n[MODIFY ORDER] order_id=%d side=%d price=%d qty=%d\n", m.OrderID, m.Side, m.Price, m.Quantity)
	case orderbooknet.OrderbookStatusResponse:
		printBook(m)
	case orderbooknet.TradeNotification:
		fmt.Printf("\n[TRADE] buy=%d sell=%d price=%d qty=%d\n", m.BuyOrderID, m.SellOrderID, m.Price, m.Quantity)
	case orderbooknet.ErrorMessage:
		fmt.Printf("\n[ERROR] sequence=%d\n", m.Hdr.Sequence)
	default:
		fmt.Printf("\n[UNKNOWN %#x]\n", msg.Header().Type)
	}
	fmt.Print("> ")
}

func printBook(m orderbooknet.OrderbookStatusResponse) {
	fmt.Println("\n[BOOK]")
	fmt.Println("  bids:")
	for i := uint32(0); i < m.BidCount && i < orderbooknet.MaxLevels; i++ {
		fmt.Printf("    %d @ %d\n", m.BidLevels[i].Quantity, m.BidLevels[i].Price)
	}
	fmt.Println("  asks:")
	for i := uint32(0); i < m.AskCount && i < orderbooknet.MaxLevels; i++ {
		fmt.Printf("    %d @ %d\n", m.AskLevels[i].Quantity, m.AskLevels[i].Price)
	}
}

func nulTerminated(b []byte) string {
	if idx := strings.IndexByte(string(b), 0); idx >= 0 {
		return string(b[:idx])
	}
	return string(b)
}

func (c *client) nextSequence() uint32 { return c.sequence.Add(1) }

func (c *client) send(buf []byte) {
	if c.conn == nil {
		fmt.Println("Not connected. Use 'connect <host> <port>' first.")
		return
	}
	if _, err := c.conn.Write(buf); err != nil {
		fmt.Printf("Send failed: %v\n", err)
	}
}

func (c *client) sendEcho(message string) {
	var body [256]byte
	copy(body[:], message)
	m := orderbooknet.EchoRequest{
		Hdr:     orderbooknet.Header{Type: orderbooknet.TypeEchoRequest, Length: orderbooknet.HeaderLen + 256, Sequence: c.nextSequence()},
		Message: body,
	}
	c.send(m.Encode())
}

func (c *client) sendListUsers() {
	m := orderbooknet.ListUsersRequest{Hdr: orderbooknet.Header{Type: orderbooknet.TypeListUsersRequest, Length: orderbooknet.HeaderLen, Sequence: c.nextSequence()}}
	c.send(m.Encode())
}

func (c *client) sendAddOrder(orderType orderbooknet.OrderType, side orderbooknet.Side, args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: <price> <quantity>")
		return
	}
	price, err1 := strconv.ParseUint(args[0], 10, 32)
	qty, err2 := strconv.ParseUint(args[1], 10, 32)
	if err1 != nil || err2 != nil || price == 0 || qty == 0 {
		fmt.Println("price and quantity must be positive integers")
		return
	}
	m := orderbooknet.AddOrderRequest{
		Hdr:           orderbooknet.Header{Type: orderbooknet.TypeAddOrderRequest, Length: orderbooknet.HeaderLen + 18, Sequence: c.nextSequence()},
		OrderType:     orderType,
		Side:          side,
		Price:         uint32(price),
		Quantity:      uint32(qty),
		ClientOrderID: c.nextID.Add(1),
	}
	c.send(m.Encode())
}

func (c *client) sendCancelOrder(orderID uint64) {
	m := orderbooknet.CancelOrderRequest{
		Hdr:     orderbooknet.Header{Type: orderbooknet.TypeCancelOrderRequest, Length: orderbooknet.HeaderLen + 8, Sequence: c.nextSequence()},
		OrderID: orderID,
	}
	c.send(m.Encode())
}

func (c *client) sendModifyOrder(args []string) {
	if len(args) != 4 {
		fmt.Println("Usage: modify <order_id> <side:buy|sell> <price> <quantity>")
		return
	}
	orderID, err1 := strconv.ParseUint(args[0], 10, 64)
	price, err2 := strconv.ParseUint(args[2], 10, 32)
	qty, err3 := strconv.ParseUint(args[3], 10, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Println("Usage: modify <order_id> <side:buy|sell> <price> <quantity>")
		return
	}
	side := orderbooknet.Sell
	if args[1] == "buy" || args[1] == "b" {
		side = orderbooknet.Buy
	}
	m := orderbooknet.ModifyOrderRequest{
		Hdr:      orderbooknet.Header{Type: orderbooknet.TypeModifyOrderRequest, Length: orderbooknet.HeaderLen + 17, Sequence: c.nextSequence()},
		OrderID:  orderID,
		Side:     side,
		Price:    uint32(price),
		Quantity: uint32(qty),
	}
	c.send(m.Encode())
}

func (c *client) sendOrderbookStatus() {
	m := orderbooknet.OrderbookStatusRequest{Hdr: orderbooknet.Header{Type: orderbooknet.TypeOrderbookStatusRequest, Length: orderbooknet.HeaderLen, Sequence: c.nextSequence()}}
	c.send(m.Encode())
}

func (c *client) sendQuit() {
	m := orderbooknet.QuitRequest{Hdr: orderbooknet.Header{Type: orderbooknet.TypeQuit, Length: orderbooknet.HeaderLen, Sequence: c.nextSequence()}}
	c.send(m.Encode())
}
