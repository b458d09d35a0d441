package network

import (
	"context"
	"net/http"
	"time"

	"github.com/cbodonnell/matchrelay/pkg/log"
	"github.com/cbodonnell/matchrelay/pkg/messages"
	"github.com/cbodonnell/matchrelay/pkg/rooms"
	"github.com/cbodonnell/matchrelay/pkg/state"
)

// Error messages returned to clients in roomError.
const (
	ErrorMessageRoomNotFound  = "Room not found"
	ErrorMessageRoomFull      = "Room is full"
	ErrorMessageAlreadyInRoom = "Already in a room"
	ErrorMessageUnavailable   = "No room codes available"
	ErrorMessageInternal      = "Internal server error"
)

// NetworkManager connects the WebSocket gateway to the room manager.
type NetworkManager struct {
	ClientManager *ClientManager
	Rooms         *rooms.Manager
	WSServer      *WSServer
}

type NewNetworkManagerOptions struct {
	ClientManager  *ClientManager
	Rooms          *rooms.Manager
	OriginPatterns []string
	PingInterval   time.Duration
	WriteTimeout   time.Duration
}

func NewNetworkManager(opts NewNetworkManagerOptions) *NetworkManager {
	n := &NetworkManager{
		ClientManager: opts.ClientManager,
		Rooms:         opts.Rooms,
	}
	n.WSServer = NewWSServer(NewWSServerOptions{
		ClientManager:     opts.ClientManager,
		MessageHandler:    n.handleControlMessage,
		DisconnectHandler: n.handleControlDisconnect,
		OriginPatterns:    opts.OriginPatterns,
		PingInterval:      opts.PingInterval,
		WriteTimeout:      opts.WriteTimeout,
	})
	return n
}

// Handler returns the WebSocket endpoint.
func (n *NetworkManager) Handler() http.Handler {
	return n.WSServer
}

// Shutdown asks every open connection to close. Rooms are cleaned up as each
// connection ends.
func (n *NetworkManager) Shutdown() {
	log.Info("Closing %d client connections", n.ClientManager.Count())
	n.ClientManager.CloseAll()
}

func (n *NetworkManager) handleControlDisconnect(client *Client) {
	n.Rooms.DisconnectAll(client.ID)
}

func (n *NetworkManager) handleControlMessage(ctx context.Context, client *Client, message *messages.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic handling %s from client %s: %v", message.Type, client.ID, r)
			sendRoomError(n.ClientManager, client.ID, ErrorMessageInternal)
		}
	}()

	clientMessage, err := messages.DecodeClientMessage(message)
	if err != nil {
		log.Debug("Invalid message from client %s: %v", client.ID, err)
		sendRoomError(n.ClientManager, client.ID, err.Error())
		return
	}

	switch m := clientMessage.(type) {
	case *messages.CreateRoom:
		n.handleCreateRoom(client)
	case *messages.JoinRoom:
		n.handleJoinRoom(client, m)
	case *messages.UpdateGameState:
		n.Rooms.UpdateState(m.RoomCode, client.ID, m.GameState)
	case *messages.GameAction:
		n.Rooms.RelayAction(m.RoomCode, client.ID, m.Action)
	case *messages.LeaveRoom:
		n.Rooms.Leave(m.RoomCode, client.ID)
	default:
		log.Error("Unhandled message type %T from client %s", m, client.ID)
	}
}

func (n *NetworkManager) handleCreateRoom(client *Client) {
	code, err := n.Rooms.CreateRoom(client.ID)
	if err != nil {
		sendRoomError(n.ClientManager, client.ID, errorMessage(err))
		return
	}

	msg, err := messages.NewRoomCreated(code)
	if err != nil {
		log.Error("Failed to build room created message: %v", err)
		return
	}
	n.ClientManager.Send(client.ID, msg)
}

// handleJoinRoom only reports failures; the manager confirms a successful join.
func (n *NetworkManager) handleJoinRoom(client *Client, join *messages.JoinRoom) {
	if _, err := n.Rooms.JoinRoom(join.RoomCode, client.ID); err != nil {
		sendRoomError(n.ClientManager, client.ID, errorMessage(err))
	}
}

// errorMessage maps a room manager error onto the text sent to the client.
func errorMessage(err error) string {
	switch {
	case state.IsRoomNotFound(err):
		return ErrorMessageRoomNotFound
	case state.IsRoomFull(err):
		return ErrorMessageRoomFull
	case state.IsAlreadyInRoom(err):
		return ErrorMessageAlreadyInRoom
	case state.IsCodeSpaceExhausted(err):
		return ErrorMessageUnavailable
	default:
		log.Error("Unexpected room error: %v", err)
		return ErrorMessageInternal
	}
}

func sendRoomError(notifier rooms.Notifier, clientID string, reason string) {
	msg, err := messages.NewRoomError(reason)
	if err != nil {
		log.Error("Failed to build room error message: %v", err)
		return
	}
	notifier.Send(clientID, msg)
}
