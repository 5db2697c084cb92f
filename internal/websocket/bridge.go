// Package websocket connects browser tabs to routing engines. Each tab holds
// one websocket; the server routes it through a RemoteWindow and pushes
// history commands, titles, route changes and alerts back.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/samber/do/v2"

	"github.com/nfrund/hashrouter/internal/alert"
	"github.com/nfrund/hashrouter/internal/app"
	"github.com/nfrund/hashrouter/internal/metrics"
	"github.com/nfrund/hashrouter/internal/pubsub"
)

// Bridge accepts tab connections and runs one engine per tab.
type Bridge struct {
	injector  do.Injector
	bus       pubsub.Subscriber
	metrics   *metrics.Metrics
	whitelist *typeWhitelist
	logger    *slog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewBridge creates a bridge building engines from the services in i.
func NewBridge(i do.Injector) *Bridge {
	return &Bridge{
		injector:  i,
		bus:       do.MustInvoke[*pubsub.WatermillBridge](i),
		metrics:   do.MustInvoke[*metrics.Metrics](i),
		whitelist: defaultTypeWhitelist(),
		logger:    do.MustInvoke[*slog.Logger](i).With("service", "websocket"),
		clients:   make(map[string]*Client),
	}
}

// Clients returns the number of connected tabs.
func (b *Bridge) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ServeHTTP upgrades the request and serves the tab until it disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		b.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer conn.CloseNow()

	if err := b.serve(r.Context(), conn); err != nil {
		b.logger.Warn("WebSocket session ended with error", "error", err)
		conn.Close(websocket.StatusPolicyViolation, err.Error())
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (b *Bridge) serve(ctx context.Context, conn *websocket.Conn) error {
	hello, err := b.readHello(ctx, conn)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	logger := b.logger.With("client_id", id)
	client := newClient(id, conn, logger)
	queue := client.send
	go client.writePump(queue)
	defer client.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Forward this tab's route changes and alerts before the engine starts
	// so the first route is not missed.
	if err := b.forward(ctx, client); err != nil {
		return err
	}

	client.SendMessage(&Message{Type: TypeWelcome, ClientID: id})
	win := NewRemoteWindow(client, hello.Hash, hello.History)
	engine, err := app.NewEngine(b.injector, win, app.WithClientID(id))
	if err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer engine.Close()

	b.register(client)
	defer b.unregister(client)

	return b.readPump(ctx, client, win)
}

func (b *Bridge) readHello(ctx context.Context, conn *websocket.Conn) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, helloWait)
	defer cancel()

	msg, err := readMessage(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if msg.Type != TypeHello {
		return nil, fmt.Errorf("expected %s, got %q", TypeHello, msg.Type)
	}
	return msg, nil
}

func (b *Bridge) forward(ctx context.Context, client *Client) error {
	err := pubsub.Subscribe(ctx, b.bus, app.RouteChanged, func(_ context.Context, clientID string, change app.RouteChange) error {
		if clientID == client.ID {
			b.sendPayload(client, TypeRoute, change)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", app.RouteChanged.Name(), err)
	}

	err = pubsub.Subscribe(ctx, b.bus, alert.Raised, func(_ context.Context, clientID string, a alert.Alert) error {
		if clientID == client.ID {
			b.sendPayload(client, TypeAlert, a)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", alert.Raised.Name(), err)
	}
	return nil
}

func (b *Bridge) sendPayload(client *Client, msgType string, payload any) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		client.logger.Error("Failed to encode payload", "type", msgType, "error", err)
		return
	}
	client.SendMessage(msg)
}

func (b *Bridge) readPump(ctx context.Context, client *Client, win *RemoteWindow) error {
	for {
		msg, err := readMessage(ctx, client.conn)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				client.logger.Info("WebSocket closed by client")
				return nil
			}
			var syntax *json.SyntaxError
			if errors.As(err, &syntax) {
				return fmt.Errorf("malformed message: %w", err)
			}
			client.logger.Debug("WebSocket read ended", "error", err)
			return nil
		}

		if !b.whitelist.IsAllowed(msg.Type) {
			client.logger.Warn("Ignoring message type not allowed from clients", "type", msg.Type)
			continue
		}
		switch msg.Type {
		case TypeHashChange:
			win.receive(msg.Hash)
		case TypeHello:
			client.logger.Debug("Ignoring repeated hello")
		}
	}
}

func readMessage(ctx context.Context, conn *websocket.Conn) (*Message, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (b *Bridge) register(client *Client) {
	b.mu.Lock()
	b.clients[client.ID] = client
	b.mu.Unlock()
	b.metrics.ClientConnected()
	client.logger.Info("Client registered")
}

func (b *Bridge) unregister(client *Client) {
	b.mu.Lock()
	delete(b.clients, client.ID)
	b.mu.Unlock()
	b.metrics.ClientDisconnected()
	client.logger.Info("Client unregistered")
}
