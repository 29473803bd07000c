// Command client is a terminal spectator for a running arena: it connects
// to the watch server and prints the event stream.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

const (
	msgTypeHeartbeat = 1
)

var msgNames = map[uint16]string{
	301: "GAME START",
	302: "ROUND START",
	303: "TURN",
	304: "VOTE OPENED",
	305: "VOTE RESOLVED",
	306: "SPY GUESS",
	307: "ROUND END",
	308: "GAME END",
}

func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	host := flag.String("host", "localhost:8080", "watch server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/watch"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			printEvent(msgID, message[4:])
		}
	}()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			return
		case <-heartbeat.C:
			if err := send(c, msgTypeHeartbeat, nil); err != nil {
				log.Println("Heartbeat error:", err)
				return
			}
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		}
	}
}

func printEvent(msgID uint16, data []byte) {
	name, ok := msgNames[msgID]
	if !ok {
		log.Printf("<- UNKNOWN (ID %d): %s", msgID, string(data))
		return
	}

	var pretty map[string]any
	if err := json.Unmarshal(data, &pretty); err != nil {
		log.Printf("<- %s: %s", name, string(data))
		return
	}
	formatted, _ := json.MarshalIndent(pretty, "", "  ")
	log.Printf("<- %s:\n%s", name, formatted)
}
