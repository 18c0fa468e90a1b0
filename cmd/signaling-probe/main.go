// Diagnostic tool for the call-signaling WebSocket. Connects to one
// match's channel, logs every inbound frame, and auto-rejects incoming
// calls so a peer can verify the full offer/reject round trip.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/loveconnect/loveconnect-go-sdk/sdk"
	"github.com/loveconnect/loveconnect-go-sdk/signaling"
)

func main() {
	token := os.Getenv("LOVECONNECT_ACCESS_TOKEN")
	if token == "" {
		fmt.Println("LOVECONNECT_ACCESS_TOKEN env var required")
		os.Exit(1)
	}
	matchID, err := strconv.Atoi(os.Getenv("LOVECONNECT_MATCH_ID"))
	if err != nil {
		fmt.Println("LOVECONNECT_MATCH_ID env var must be a match ID")
		os.Exit(1)
	}

	config := sdk.DefaultConfig()
	if base := os.Getenv("LOVECONNECT_BASE_URL"); base != "" {
		config.BaseURL = base
	}

	fmt.Println("[1/2] Creating client...")
	core, err := sdk.NewClient(token, config)
	if err != nil {
		fmt.Printf("ERROR creating client: %v\n", err)
		os.Exit(1)
	}

	sig := signaling.New(core, nil)

	frameCount := 0
	sig.OnMessage(func(msg *signaling.Message) {
		frameCount++
		fmt.Printf("\n=== FRAME #%d ===\n", frameCount)
		fmt.Printf("  Type: %s\n", msg.Type)
		if msg.CallerID != 0 {
			fmt.Printf("  Caller: %d (%s)\n", msg.CallerID, msg.CallerName)
		}
		if msg.CallID != 0 {
			fmt.Printf("  Call ID: %d\n", msg.CallID)
		}
		if msg.CallType != "" {
			fmt.Printf("  Call type: %s\n", msg.CallType)
		}
		if msg.Candidate != nil {
			fmt.Printf("  Candidate: %s\n", truncate(msg.Candidate.Candidate, 80))
		}
		if msg.Duration != nil {
			fmt.Printf("  Duration: %ds\n", *msg.Duration)
		}
		fmt.Println("================")

		if msg.Type == signaling.MessageIncomingCall {
			fmt.Println("  Auto-rejecting so the peer sees the round trip...")
			if err := sig.SendReject(msg.CallerID, msg.CallID); err != nil {
				fmt.Printf("  REJECT ERROR: %v\n", err)
			}
		}
	})

	sig.OnDisconnect(func(err error) {
		fmt.Printf("\nConnection lost: %v\n", err)
		os.Exit(1)
	})

	fmt.Printf("[2/2] Connecting to match %d...\n", matchID)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sig.Connect(ctx, matchID); err != nil {
		fmt.Printf("ERROR connecting: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Connected! Listening for 120s.")
	fmt.Println(">>> Start a call from the other side to test.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nStopping...")
	case <-time.After(120 * time.Second):
		fmt.Printf("\nTimeout. Received %d frame(s).\n", frameCount)
	}

	_ = sig.Close()
	fmt.Println("Disconnected.")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
