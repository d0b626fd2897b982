package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Channel is one stateful WebSocket exchange with the host. The protocol is:
// the server sends a greeting, the client authenticates with its token, and
// the server replies auth_ok or rejects. Correlation ids on subsequent
// requests come from the owning Client so they keep increasing across
// channels.
type Channel struct {
	conn   *websocket.Conn
	client *Client
}

// Message covers every message shape the channel exchanges.
type Message struct {
	ID      int64           `json:"id,omitempty"`
	Type    string          `json:"type"`
	Success *bool           `json:"success,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *MessageError   `json:"error,omitempty"`
}

// MessageError carries the error detail of a failed result message.
type MessageError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OpenChannel dials the host's WebSocket endpoint and performs the
// authentication handshake. The caller must Close the returned channel.
func (c *Client) OpenChannel(ctx context.Context) (*Channel, error) {
	wsURL := strings.Replace(c.host, "http", "ws", 1) + "/api/websocket"

	dialer := websocket.Dialer{HandshakeTimeout: c.timeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, &TransportError{Op: "websocket dial", Status: resp.StatusCode, Err: err}
		}
		return nil, &TransportError{Op: "websocket dial", Err: err}
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	ch := &Channel{conn: conn, client: c}
	if err := ch.authenticate(ctx); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}

// authenticate consumes the server greeting, sends the access token and
// checks the reply. Any reply other than a well-formed auth_ok is fatal for
// this channel.
func (ch *Channel) authenticate(ctx context.Context) error {
	ch.applyDeadline(ctx)

	var greeting Message
	if err := ch.conn.ReadJSON(&greeting); err != nil {
		return &TransportError{Op: "websocket greeting", Err: err}
	}

	auth := map[string]string{"type": "auth", "access_token": ch.client.token}
	if err := ch.conn.WriteJSON(auth); err != nil {
		return &TransportError{Op: "websocket auth send", Err: err}
	}

	var reply Message
	if err := ch.conn.ReadJSON(&reply); err != nil {
		return &TransportError{Op: "websocket auth reply", Err: err}
	}
	if reply.Type != "auth_ok" {
		return &AuthError{Reason: fmt.Sprintf("unexpected reply type %q", reply.Type)}
	}
	return nil
}

// Send writes a request onto the channel, assigning it the next correlation
// id, and returns the id used.
func (ch *Channel) Send(ctx context.Context, msgType string, fields map[string]any) (int64, error) {
	ch.applyDeadline(ctx)

	id := ch.client.nextMsgID()
	msg := map[string]any{"id": id, "type": msgType}
	for k, v := range fields {
		msg[k] = v
	}
	if err := ch.conn.WriteJSON(msg); err != nil {
		return 0, &TransportError{Op: "websocket send", Err: err}
	}
	return id, nil
}

// Receive reads the next message from the channel.
func (ch *Channel) Receive(ctx context.Context) (*Message, error) {
	ch.applyDeadline(ctx)

	var msg Message
	if err := ch.conn.ReadJSON(&msg); err != nil {
		return nil, &TransportError{Op: "websocket receive", Err: err}
	}
	return &msg, nil
}

// ResolveMedia asks the host to resolve a content identifier to a relative
// media URL. Usage is single-outstanding-request, so the first reply is the
// reply to this request.
func (ch *Channel) ResolveMedia(ctx context.Context, contentID string) (string, error) {
	if _, err := ch.Send(ctx, "media_source/resolve_media", map[string]any{
		"media_content_id": contentID,
	}); err != nil {
		return "", err
	}

	reply, err := ch.Receive(ctx)
	if err != nil {
		return "", err
	}
	if reply.Success != nil && !*reply.Success {
		reason := "unknown error"
		if reply.Error != nil && reply.Error.Message != "" {
			reason = reply.Error.Message
		}
		return "", &TransportError{Op: "resolve_media", Err: fmt.Errorf("%s", reason)}
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(reply.Result, &result); err != nil {
		return "", &TransportError{Op: "resolve_media decode", Err: err}
	}
	return result.URL, nil
}

// Close shuts the channel down. Safe to call on every exit path.
func (ch *Channel) Close() {
	if ch.conn != nil {
		ch.conn.Close()
	}
}

// applyDeadline bounds the next read/write by the context deadline, falling
// back to the client timeout so no exchange can stall a cycle indefinitely.
func (ch *Channel) applyDeadline(ctx context.Context) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(ch.client.timeout)
	}
	ch.conn.SetReadDeadline(deadline)
	ch.conn.SetWriteDeadline(deadline)
}
