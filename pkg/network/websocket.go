package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	authproviders "github.com/cbodonnell/matchrelay/pkg/auth/providers"
	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/messages"
	"nhooyr.io/websocket"
)

const (
	// DefaultPingInterval is how often idle connections are pinged
	DefaultPingInterval = 15 * time.Second
	// DefaultWriteTimeout bounds a single frame write
	DefaultWriteTimeout = 10 * time.Second
)

// ControlMessageHandler handles one inbound message. It is called from the
// connection's read loop, so messages from one client are handled in order.
type ControlMessageHandler func(ctx context.Context, client *Client, message *messages.Message)

// ControlDisconnectHandler is called exactly once when a connection ends.
type ControlDisconnectHandler func(client *Client)

// WSServer upgrades HTTP requests to WebSocket connections and runs them.
type WSServer struct {
	clientManager     *ClientManager
	messageHandler    ControlMessageHandler
	disconnectHandler ControlDisconnectHandler
	originPatterns    []string
	pingInterval      time.Duration
	writeTimeout      time.Duration
}

type NewWSServerOptions struct {
	ClientManager     *ClientManager
	MessageHandler    ControlMessageHandler
	DisconnectHandler ControlDisconnectHandler
	// OriginPatterns lists the cross origin hosts allowed to connect.
	// A single "*" accepts any origin.
	OriginPatterns []string
	// PingInterval of zero disables keepalive pings.
	PingInterval time.Duration
	// WriteTimeout bounds frame writes and the wait for a pong. Defaults to DefaultWriteTimeout.
	WriteTimeout time.Duration
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &WSServer{
		clientManager:     opts.ClientManager,
		messageHandler:    opts.MessageHandler,
		disconnectHandler: opts.DisconnectHandler,
		originPatterns:    opts.OriginPatterns,
		pingInterval:      opts.PingInterval,
		writeTimeout:      writeTimeout,
	}
}

// ServeHTTP accepts a WebSocket connection and blocks until it is closed.
// The frame encoding is chosen with the encoding query parameter.
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	encoding, err := messages.ParseEncoding(r.URL.Query().Get("encoding"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var userID string
	if claims, ok := authproviders.ClaimsFromContext(r.Context()); ok {
		userID = claims.UID
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}
	conn.SetReadLimit(messages.MaxMessageSize)

	client := s.clientManager.ConnectClient(r.RemoteAddr, userID, encoding)
	log.Info("Client %s connected from %s using %s", client.ID, r.RemoteAddr, encoding)

	s.handleWSConnection(r.Context(), conn, client)
}

// handleWSConnection handles a WebSocket connection.
func (s *WSServer) handleWSConnection(ctx context.Context, conn *websocket.Conn, client *Client) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.clientManager.DisconnectClient(client.ID)
		if s.disconnectHandler != nil {
			s.disconnectHandler(client)
		}
		conn.Close(websocket.StatusNormalClosure, "")
		log.Info("Client %s disconnected", client.ID)
	}()

	go s.writeLoop(ctx, conn, client)
	if s.pingInterval > 0 {
		go s.pingLoop(ctx, conn, client)
	}

	for {
		message, err := ReadMessageFromWS(ctx, conn, client.Encoding)
		if err != nil {
			if messages.IsValidation(err) {
				log.Debug("Invalid message from client %s: %v", client.ID, err)
				sendRoomError(s.clientManager, client.ID, err.Error())
				continue
			}
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug("Error reading WebSocket message from client %s: %v", client.ID, err)
			}
			log.Trace("Connection closed for client %s", client.ID)
			return
		}

		s.messageHandler(ctx, client, message)
	}
}

// writeLoop is the only writer of data frames on conn.
func (s *WSServer) writeLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case msg := <-client.send:
			if err := WriteMessageToWS(ctx, conn, msg, client.Encoding, s.writeTimeout); err != nil {
				log.Debug("Failed to write to client %s: %v", client.ID, err)
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}

func (s *WSServer) pingLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					log.Debug("Ping to client %s failed: %v", client.ID, err)
					conn.Close(websocket.StatusPolicyViolation, "ping timeout")
				}
				return
			}
		}
	}
}

// WriteMessageToWS writes a Message to a WebSocket connection
func WriteMessageToWS(ctx context.Context, conn *websocket.Conn, msg *messages.Message, encoding messages.Encoding, timeout time.Duration) error {
	b, err := messages.SerializeMessage(msg, encoding)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	messageType := websocket.MessageText
	if encoding == messages.EncodingZstd {
		messageType = websocket.MessageBinary
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := conn.Write(ctx, messageType, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

// ReadMessageFromWS reads a Message from a WebSocket connection.
// Frames that arrive but cannot be decoded yield an error for which
// messages.IsValidation reports true; any other error ends the connection.
func ReadMessageFromWS(ctx context.Context, conn *websocket.Conn, encoding messages.Encoding) (*messages.Message, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := messages.DeserializeMessage(data, encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %w", err)
	}

	return msg, nil
}
