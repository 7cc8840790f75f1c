package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const sessionCookieName = "rps_session"

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Join the arena as an interactive player",
		Long: `play connects to the server's websocket endpoint and reads commands
from stdin:

  ready              mark yourself ready for a match
  throw <value>      throw PASS, ROCK, PAPER or SCISSORS
  new                start the next round of a finished match
  cancel             cancel your current match
  history            print your game history
  name <name>        change your display name
  type <1|2>         change your preferred number of opponents
  quit               disconnect`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay()
		},
	}
}

func runPlay() error {
	wsURL, err := websocketURL(cfg.ServerURL)
	if err != nil {
		return err
	}

	header := http.Header{}
	if cfg.Session != "" {
		header.Set("Cookie", sessionCookieName+"="+cfg.Session)
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	// A new identity arrives as a session cookie on the handshake.
	if resp != nil {
		for _, c := range resp.Cookies() {
			if c.Name == sessionCookieName {
				if err := cfg.SaveSession(c.Value); err != nil {
					fmt.Fprintf(os.Stderr, "warning: could not save session: %v\n", err)
				}
			}
		}
	}

	fmt.Printf("Connected to %s\n", wsURL)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			printServerMessage(raw)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			break
		}

		msg, err := parseCommand(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("failed to send: %w", err)
		}

		select {
		case <-done:
			return nil
		default:
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	<-done
	return nil
}

func parseCommand(line string) (map[string]any, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "ready":
		return map[string]any{"action": "mark_as_ready"}, nil
	case "throw":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: throw <PASS|ROCK|PAPER|SCISSORS>")
		}
		return map[string]any{"action": "throw", "data": strings.ToUpper(fields[1])}, nil
	case "new":
		return map[string]any{"action": "start_new_round"}, nil
	case "cancel":
		return map[string]any{"action": "cancel_game"}, nil
	case "history":
		return map[string]any{"action": "show_history"}, nil
	case "name":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: name <name>")
		}
		return map[string]any{"action": "change_name", "data": strings.Join(fields[1:], " ")}, nil
	case "type":
		if len(fields) < 2 {
			return nil, fmt.Errorf("usage: type <1|2>")
		}
		size, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("usage: type <1|2>")
		}
		return map[string]any{"action": "change_type", "data": size}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func printServerMessage(raw []byte) {
	if cfg.Output == "json" {
		fmt.Println(string(raw))
		return
	}

	var pretty json.RawMessage = raw
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pretty); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Print(buf.String())
}

func websocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", serverURL, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	u.Path = "/ws"
	return u.String(), nil
}
