package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/ema-relay/core/audio/miniaudio"
	"github.com/koscakluka/ema-relay/internal/chatui"
	"github.com/koscakluka/ema-relay/internal/relayclient"
)

func main() {
	url := flag.String("url", "ws://localhost:4001/ws", "relay websocket url")
	room := flag.String("room", "", "room to join; speech needs a room")
	noMic := flag.Bool("no-mic", false, "disable microphone recording")
	flag.Parse()

	if err := run(*url, *room, !*noMic); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(url, room string, useMic bool) error {
	if room == "" {
		room = fmt.Sprintf("chat-%d", time.Now().UnixMilli())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := relayclient.Dial(ctx, url, relayclient.WithRoom(room))
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	var recorder chatui.Recorder
	if useMic {
		mic, err := miniaudio.NewRecorder()
		if err != nil {
			fmt.Fprintf(os.Stderr, "microphone unavailable: %v\n", err)
		} else {
			defer mic.Close()
			recorder = mic
		}
	}

	_, err = tea.NewProgram(chatui.New(client, recorder), tea.WithAltScreen()).Run()
	return err
}
