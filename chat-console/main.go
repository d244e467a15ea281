package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type turn struct {
	ConversationType string    `json:"conversationType"`
	Messages         []message `json:"messages"`
}

type reply struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/conversation/ws", "websocket endpoint")
	origin := flag.String("origin", "http://localhost:3000", "Origin header sent on connect")
	persona := flag.String("type", "companion", "conversation type")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, http.Header{"Origin": {*origin}})
	if err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	defer conn.Close()

	// Replies are read here; done marks the end of each turn.
	done := make(chan string)
	go func() {
		var text strings.Builder
		for {
			var r reply
			if err := conn.ReadJSON(&r); err != nil {
				log.Println("Error reading message:", err)
				os.Exit(1)
			}
			switch r.Type {
			case "delta":
				text.WriteString(r.Text)
				fmt.Print(r.Text)
			case "done":
				fmt.Println()
				done <- text.String()
				text.Reset()
			case "error":
				fmt.Printf("error: %s (%s)\n", r.Error, r.Details)
				done <- ""
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		conn.Close()
		os.Exit(0)
	}()

	var history []message
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("Chatting as %q (type 'exit' to quit):\n", *persona)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		text = strings.TrimSpace(text)
		if err != nil || text == "exit" {
			break
		}
		if text == "" {
			continue
		}

		history = append(history, message{Role: "user", Content: text})
		payload, _ := json.Marshal(turn{ConversationType: *persona, Messages: history})
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Println("Error sending message:", err)
			break
		}
		if answer := <-done; answer != "" {
			history = append(history, message{Role: "assistant", Content: answer})
		} else {
			history = history[:len(history)-1]
		}
	}
}
