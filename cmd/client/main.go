package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sudoSubh/Collaborative-whiteboard/internal/domain"
)

var (
	addr     = flag.String("addr", "localhost:3004", "http service address")
	roomCode = flag.String("room", "", "room code to join; empty creates a new room")
	random   = flag.Bool("random", false, "join a random room instead of creating one")
)

func main() {
	flag.Parse()

	username := getUsername()

	conn := connectWebSocket()
	defer conn.Close()

	joinRoom(conn, username)

	// OS interrupt signals
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	// Start goroutine to listen for incoming messages
	done := make(chan struct{})
	go readMessages(conn, done)

	fmt.Println("Write chat messages (Press Enter to Send):")
	writeMessages(conn, username, interrupt, done)
}

func getUsername() string {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("Enter your username: ")
	scanner.Scan()
	return scanner.Text()
}

func connectWebSocket() *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	log.Println("Connected to WebSocket server.")
	return conn
}

func joinRoom(conn *websocket.Conn, username string) {
	intent := domain.EventCreateRoom
	switch {
	case *roomCode != "":
		intent = domain.EventJoinRoom
	case *random:
		intent = domain.EventJoinRandom
	}

	env, err := domain.NewEnvelope(intent, domain.JoinRequest{
		RoomID:   *roomCode,
		Username: username,
	})
	if err != nil {
		log.Fatalf("Failed to encode join request: %v", err)
	}
	if err := conn.WriteJSON(env); err != nil {
		log.Fatalf("Failed to send join request: %v", err)
	}
}

func readMessages(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var env domain.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Printf("Error reading message: %v", err)
			return
		}

		switch env.Type {
		case domain.EventRoomCreated, domain.EventRoomJoined:
			var state domain.RoomState
			if err := json.Unmarshal(env.Data, &state); err != nil {
				continue
			}
			fmt.Printf("\n== Room %s (%d users, %d strokes on canvas)\n",
				state.RoomID, state.UserCount, len(state.DrawingData))
		case domain.EventRoomError:
			var roomErr domain.RoomError
			_ = json.Unmarshal(env.Data, &roomErr)
			log.Fatalf("Join failed: %s", roomErr.Error)
		case domain.EventChatMessage:
			var msg domain.ChatMessage
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				continue
			}
			ts := time.UnixMilli(msg.Timestamp).Format("15:04:05")
			fmt.Printf("\n[%s] %s: %s\n", ts, msg.Username, msg.Message)
		case domain.EventUserJoined:
			var joined domain.UserJoined
			if err := json.Unmarshal(env.Data, &joined); err != nil {
				continue
			}
			fmt.Printf("\n-- %s joined (%d users)\n", joined.Username, joined.UserCount)
		case domain.EventUserLeft:
			var left domain.UserLeft
			if err := json.Unmarshal(env.Data, &left); err != nil {
				continue
			}
			fmt.Printf("\n-- someone left (%d users)\n", left.UserCount)
		case domain.EventDrawing, domain.EventClearCanvas:
			// Canvas traffic is meaningless on a text client.
		}
	}
}

func writeMessages(conn *websocket.Conn, username string, interrupt chan os.Signal, done chan struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection...")
			err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Printf("Error during close: %v", err)
			}
			return
		default:
			if scanner.Scan() {
				content := scanner.Text()
				if content == "" {
					continue
				}

				env, err := domain.NewEnvelope(domain.EventChatMessage, domain.ChatMessage{
					Username: username,
					Message:  content,
				})
				if err != nil {
					log.Printf("Error encoding message: %v", err)
					continue
				}
				if err := conn.WriteJSON(env); err != nil {
					log.Printf("Error sending message: %v", err)
					return
				}
			}
		}
	}
}
