package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hemlist/engine/internal/client"
	"hemlist/engine/internal/list"
)

// Conn implements client.Connection over this package's wire protocol:
// snapshot frames stream in over the websocket, event batches go out as
// HTTP POSTs whose 200 response is the acknowledgment.
type Conn struct {
	baseURL string
	token   string
	httpc   *http.Client

	mu       sync.Mutex
	ws       *websocket.Conn
	clientID string
}

var _ client.Connection = (*Conn)(nil)

func NewConn(baseURL, token string) *Conn {
	return &Conn{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Conn) Connect(ctx context.Context, onSnapshot func(items []list.Item)) error {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/sync?token=" + url.QueryEscape(c.token)
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	var hello frame
	if err := ws.ReadJSON(&hello); err != nil {
		ws.Close()
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Type != "hello" || hello.ClientID == "" {
		ws.Close()
		return fmt.Errorf("unexpected first frame %q", hello.Type)
	}

	c.mu.Lock()
	c.ws = ws
	c.clientID = hello.ClientID
	c.mu.Unlock()

	go func() {
		for {
			var f frame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			if f.Type == "snapshot" {
				onSnapshot(f.Items)
			}
		}
	}()
	return nil
}

func (c *Conn) Disconnect() error {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws == nil {
		return nil
	}
	return ws.Close()
}

func (c *Conn) PushEvents(ctx context.Context, events []list.Event) error {
	data, err := list.MarshalEvents(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}
	body, err := json.Marshal(map[string]json.RawMessage{"events": data})
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	c.mu.Lock()
	req.Header.Set("X-Hemlist-Client", c.clientID)
	c.mu.Unlock()

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("push events: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push events: hub responded %s", resp.Status)
	}
	return nil
}
