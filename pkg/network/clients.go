package network

import (
	"fmt"
	"sync"

	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/messages"
	"github.com/cbodonnell/matchrelay/pkg/rooms"
	"github.com/google/uuid"
)

const (
	// DefaultSendBufferSize is how many outbound messages a client may have pending
	DefaultSendBufferSize = 64
)

var _ rooms.Notifier = &ClientManager{}

// Client represents a connected client
type Client struct {
	ID         string
	RemoteAddr string
	// UserID is the verified user behind the connection, empty when auth is disabled
	UserID   string
	Encoding messages.Encoding

	send      chan *messages.Message
	done      chan struct{}
	closeOnce sync.Once
}

// Done is closed once the client has been disconnected or asked to close.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// ErrClientNotFound is returned when no client is registered under an ID.
type ErrClientNotFound struct {
	ClientID string
}

func (e *ErrClientNotFound) Error() string {
	return fmt.Sprintf("client %s not found", e.ClientID)
}

// ClientManager manages connected clients
type ClientManager struct {
	clients        map[string]*Client
	clientsLock    sync.RWMutex
	sendBufferSize int
}

type NewClientManagerOptions struct {
	// SendBufferSize defaults to DefaultSendBufferSize.
	SendBufferSize int
}

// NewClientManager creates a new ClientManager
func NewClientManager(opts NewClientManagerOptions) *ClientManager {
	size := opts.SendBufferSize
	if size <= 0 {
		size = DefaultSendBufferSize
	}
	return &ClientManager{
		clients:        make(map[string]*Client),
		sendBufferSize: size,
	}
}

// ConnectClient registers a new client under a fresh ID
func (cm *ClientManager) ConnectClient(remoteAddr string, userID string, encoding messages.Encoding) *Client {
	client := &Client{
		ID:         uuid.NewString(),
		RemoteAddr: remoteAddr,
		UserID:     userID,
		Encoding:   encoding,
		send:       make(chan *messages.Message, cm.sendBufferSize),
		done:       make(chan struct{}),
	}

	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()
	cm.clients[client.ID] = client

	return client
}

// DisconnectClient removes a client from the manager
func (cm *ClientManager) DisconnectClient(clientID string) {
	cm.clientsLock.Lock()
	defer cm.clientsLock.Unlock()

	client, ok := cm.clients[clientID]
	if !ok {
		return
	}
	client.close()
	delete(cm.clients, clientID)
}

// CloseAll asks every client to close without removing it.
// Each connection cleans itself up as it shuts down.
func (cm *ClientManager) CloseAll() {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	for _, client := range cm.clients {
		client.close()
	}
}

func (cm *ClientManager) GetClient(clientID string) (*Client, error) {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	client, ok := cm.clients[clientID]
	if !ok {
		return nil, &ErrClientNotFound{ClientID: clientID}
	}
	return client, nil
}

func (cm *ClientManager) Exists(clientID string) bool {
	_, err := cm.GetClient(clientID)
	return err == nil
}

// Count returns the number of connected clients
func (cm *ClientManager) Count() int {
	cm.clientsLock.RLock()
	defer cm.clientsLock.RUnlock()
	return len(cm.clients)
}

// Send queues msg for a client without blocking. The message is dropped if the
// client is gone or its buffer is full.
func (cm *ClientManager) Send(clientID string, msg *messages.Message) {
	client, err := cm.GetClient(clientID)
	if err != nil {
		log.Debug("Dropping %s message: %v", msg.Type, err)
		return
	}

	select {
	case <-client.done:
		log.Debug("Dropping %s message for closed client %s", msg.Type, clientID)
	case client.send <- msg:
	default:
		log.Warn("Send buffer full for client %s, dropping %s message", clientID, msg.Type)
	}
}
