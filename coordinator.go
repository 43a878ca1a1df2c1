package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// client binds a session id to its live websocket connection. Game state
// never holds one of these; rooms reference players by session id and the
// coordinator resolves the connection at send time.
type client struct {
	conn      *websocket.Conn
	send      chan any
	sessionID string
	closed    bool
}

type inboundFrame struct {
	client *client
	data   []byte
}

// Coordinator owns all room and connection state. Every mutation happens on
// its dispatch loop: websocket read pumps, the reveal timer, and the expiry
// ticker only post onto its channels, so handlers never interleave and the
// per-room invariants (one host, at most two unresolved flips) hold without
// locks.
type Coordinator struct {
	cfg     *Config
	rooms   *RoomStore
	clients map[string]*client
	member  map[string]string // session id -> room id

	register   chan *client
	unregister chan *client
	frames     chan inboundFrame
	resolves   chan string
}

func newCoordinator(cfg *Config) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		rooms:      newRoomStore(),
		clients:    make(map[string]*client),
		member:     make(map[string]string),
		register:   make(chan *client),
		unregister: make(chan *client),
		frames:     make(chan inboundFrame),
		resolves:   make(chan string, 64),
	}
}

// run is the coordinator's event loop.
func (co *Coordinator) run(ctx context.Context) {
	sweep := time.NewTicker(co.cfg.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case c := <-co.register:
			co.handleRegister(c)

		case c := <-co.unregister:
			co.handleDisconnect(c)

		case frame := <-co.frames:
			co.handleFrame(frame.client, frame.data)

		case roomID := <-co.resolves:
			co.handleResolve(roomID)

		case <-sweep.C:
			co.sweepRooms()

		case <-ctx.Done():
			return
		}
	}
}

// serveWS upgrades the connection and assigns it a fresh session id.
func (co *Coordinator) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(co.cfg, "ERROR: Websocket upgrade from %s: %v", realIP(r), err)
			return
		}

		c := &client{
			conn:      conn,
			send:      make(chan any, 16),
			sessionID: uuid.NewString(),
		}

		co.register <- c

		go c.writePump()
		c.readPump(co)
	}
}

func (c *client) readPump(co *Coordinator) {
	defer func() {
		co.unregister <- c
		_ = c.conn.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		co.frames <- inboundFrame{client: c, data: data}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (co *Coordinator) handleRegister(c *client) {
	co.clients[c.sessionID] = c

	logf(co.cfg, "GAME: New connection %s", c.sessionID)

	co.sendTo(c, serverMessage{
		Type:    "connection_established",
		Payload: connectionEstablishedPayload{PlayerID: c.sessionID},
	})
}

// handleDisconnect funnels any connection teardown, clean or not, into the
// same leave path used by an explicit leave_room.
func (co *Coordinator) handleDisconnect(c *client) {
	if co.clients[c.sessionID] != c {
		return
	}

	delete(co.clients, c.sessionID)
	c.closed = true
	close(c.send)

	logf(co.cfg, "GAME: Disconnected %s", c.sessionID)

	co.leaveCurrentRoom(c.sessionID)
}

// handleFrame parses the envelope and routes to a handler. Handler errors
// are reported to the offending session only; nothing here terminates the
// connection.
func (co *Coordinator) handleFrame(c *client, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		logf(co.cfg, "ERROR: Malformed frame from %s", c.sessionID)
		co.sendError(c, errInvalidMessage)
		return
	}

	var err error

	switch msg.Type {
	case "create_room":
		err = co.handleCreateRoom(c, msg.Payload)
	case "join_room":
		err = co.handleJoinRoom(c, msg.Payload)
	case "start_game":
		err = co.handleStartGame(c, msg.Payload)
	case "flip_card":
		err = co.handleFlipCard(c, msg.Payload)
	case "restart_game":
		err = co.handleRestartGame(c)
	case "leave_room":
		err = co.handleLeaveRoom(c)
	case "set_player_ready":
		err = co.handleSetPlayerReady(c, msg.Payload)
	default:
		logf(co.cfg, "GAME: Unknown message type %q from %s", msg.Type, c.sessionID)
		err = errUnknownMessageType
	}

	if err != nil {
		co.sendError(c, err)
	}
}

func (co *Coordinator) handleCreateRoom(c *client, payload json.RawMessage) error {
	var p createRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.PlayerName == "" {
		return errInvalidMessage
	}

	// A session belongs to at most one room; creating a new one implies
	// leaving the old one.
	co.leaveCurrentRoom(c.sessionID)

	player := &Player{
		ID:     c.sessionID,
		Name:   p.PlayerName,
		Color:  p.PlayerColor,
		IsHost: true,
	}

	room := co.rooms.create(p.GameConfig, p.ImagePackage)
	if err := room.addPlayer(player, co.cfg.maxPlayers); err != nil {
		co.rooms.delete(room.id)
		return err
	}
	co.member[c.sessionID] = room.id

	logf(co.cfg, "ROOMS: Created %s by %q (%d total)", room.id, player.Name, co.rooms.count())

	// Single-member room, so this doubles as the room state broadcast.
	co.sendTo(c, serverMessage{
		Type: "room_created",
		Payload: roomCreatedPayload{
			RoomID:    room.id,
			Player:    player,
			Players:   room.players,
			GameState: room.state,
		},
	})

	return nil
}

func (co *Coordinator) handleJoinRoom(c *client, payload json.RawMessage) error {
	var p joinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.RoomID == "" || p.PlayerName == "" {
		return errInvalidMessage
	}

	room := co.rooms.get(p.RoomID)
	if room == nil {
		return errRoomNotFound
	}

	// Rejoining the current room has to go through a leave first so the
	// stale membership doesn't trip the name check. Leaving may empty the
	// room and delete it, so it is looked up again.
	if co.member[c.sessionID] == p.RoomID {
		co.leaveCurrentRoom(c.sessionID)

		room = co.rooms.get(p.RoomID)
		if room == nil {
			return errRoomNotFound
		}
	}

	player := &Player{
		ID:    c.sessionID,
		Name:  p.PlayerName,
		Color: p.PlayerColor,
	}

	if err := room.addPlayer(player, co.cfg.maxPlayers); err != nil {
		return err
	}

	// Admission succeeded, so any previous room is left behind now. A
	// rejected join leaves the session's membership untouched.
	co.leaveCurrentRoom(c.sessionID)
	co.member[c.sessionID] = room.id

	logf(co.cfg, "ROOMS: Player %q joined %s", player.Name, room.id)

	co.sendTo(c, serverMessage{
		Type: "join_success",
		Payload: joinSuccessPayload{
			PlayerID: c.sessionID,
			RoomID:   room.id,
			Player:   player,
		},
	})

	co.broadcastRoom(room, serverMessage{
		Type: "player_joined",
		Payload: playerJoinedPayload{
			Player:    player,
			Players:   room.players,
			GameState: room.state,
			RoomID:    room.id,
		},
	})

	return nil
}

func (co *Coordinator) handleStartGame(c *client, payload json.RawMessage) error {
	room := co.currentRoom(c.sessionID)
	if room == nil {
		return errNotInRoom
	}

	var p startGamePayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return errInvalidMessage
		}
	}

	if err := room.start(c.sessionID, p.GameConfig, p.ImagePackage); err != nil {
		return err
	}

	logf(co.cfg, "GAME: Started in %s with %d cards", room.id, len(room.deck))

	co.broadcastGameStarted(room)

	return nil
}

func (co *Coordinator) handleFlipCard(c *client, payload json.RawMessage) error {
	room := co.currentRoom(c.sessionID)
	if room == nil {
		return errNotInRoom
	}

	var p flipCardPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.CardID == "" {
		return errInvalidMessage
	}

	resolveNeeded, err := room.flip(c.sessionID, p.CardID)
	if err != nil {
		return err
	}

	co.broadcastRoom(room, serverMessage{
		Type: "card_flipped",
		Payload: cardFlippedPayload{
			CardID:       p.CardID,
			PlayerID:     c.sessionID,
			FlippedCards: room.flipped,
		},
	})

	if resolveNeeded {
		co.scheduleResolve(room.id)
	}

	return nil
}

// scheduleResolve arms the reveal delay. The timer only posts the room id
// back onto the loop; the handler re-fetches the room so a deleted room is
// a no-op rather than a stale pointer.
func (co *Coordinator) scheduleResolve(roomID string) {
	// The send runs on the timer goroutine, so blocking here never stalls
	// the dispatch loop; the buffer just smooths bursts.
	time.AfterFunc(co.cfg.revealDelay, func() {
		co.resolves <- roomID
	})
}

func (co *Coordinator) handleResolve(roomID string) {
	room := co.rooms.get(roomID)
	if room == nil {
		return
	}

	res := room.resolve()
	if res == nil {
		return
	}

	if !res.isMatch {
		co.broadcastRoom(room, serverMessage{
			Type:    "no_match",
			Payload: noMatchPayload{FlippedCards: res.cardIDs},
		})

		co.broadcastRoom(room, serverMessage{
			Type:    "turn_changed",
			Payload: turnChangedPayload{CurrentTurn: res.nextTurn},
		})

		return
	}

	co.broadcastRoom(room, serverMessage{
		Type: "match_found",
		Payload: matchFoundPayload{
			MatchedCards: res.cardIDs,
			PlayerID:     res.scorerID,
			Score:        res.score,
			Players:      room.players,
		},
	})

	if res.finished {
		logf(co.cfg, "GAME: Finished in %s", room.id)

		co.broadcastRoom(room, serverMessage{
			Type: "game_ended",
			Payload: gameEndedPayload{
				Winner:    res.winner,
				IsTie:     res.isTie,
				Players:   room.players,
				GameState: room.state,
			},
		})

		return
	}

	// A match keeps the turn, but clients still sync on the turn broadcast.
	co.broadcastRoom(room, serverMessage{
		Type:    "turn_changed",
		Payload: turnChangedPayload{CurrentTurn: room.currentTurn},
	})
}

func (co *Coordinator) handleRestartGame(c *client) error {
	room := co.currentRoom(c.sessionID)
	if room == nil {
		return errNotInRoom
	}

	if err := room.restart(c.sessionID); err != nil {
		return err
	}

	logf(co.cfg, "GAME: Restarted in %s", room.id)

	co.broadcastGameStarted(room)

	return nil
}

func (co *Coordinator) handleLeaveRoom(c *client) error {
	if _, ok := co.member[c.sessionID]; !ok {
		return errNotInRoom
	}

	co.leaveCurrentRoom(c.sessionID)

	return nil
}

func (co *Coordinator) handleSetPlayerReady(c *client, payload json.RawMessage) error {
	room := co.currentRoom(c.sessionID)
	if room == nil {
		return errNotInRoom
	}

	var p setPlayerReadyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return errInvalidMessage
	}

	room.playerByID(c.sessionID).IsReady = p.IsReady

	co.broadcastRoom(room, serverMessage{
		Type:    "player_ready_changed",
		Payload: playerReadyChangedPayload{Players: room.players},
	})

	return nil
}

// leaveCurrentRoom removes the session from whatever room it is in, deleting
// the room outright when it empties and migrating the host otherwise. No-op
// for sessions without a room.
func (co *Coordinator) leaveCurrentRoom(sessionID string) {
	roomID, ok := co.member[sessionID]
	if !ok {
		return
	}
	delete(co.member, sessionID)

	room := co.rooms.get(roomID)
	if room == nil {
		return
	}

	removed, newHost := room.removePlayer(sessionID)
	if removed == nil {
		return
	}

	if len(room.players) == 0 {
		co.rooms.delete(room.id)
		logf(co.cfg, "ROOMS: Closed %s (empty)", room.id)
		return
	}

	logf(co.cfg, "ROOMS: Player %q left %s", removed.Name, room.id)

	co.broadcastRoom(room, serverMessage{
		Type: "player_left",
		Payload: playerLeftPayload{
			PlayerID: sessionID,
			Players:  room.players,
		},
	})

	if newHost != nil {
		co.broadcastRoom(room, serverMessage{
			Type: "new_host",
			Payload: newHostPayload{
				NewHostID: newHost.ID,
				Players:   room.players,
			},
		})
	}
}

// sweepRooms expires rooms past the retention window, notifying members
// before deletion.
func (co *Coordinator) sweepRooms() {
	cutoff := time.Now().Add(-co.cfg.roomRetention)

	for _, room := range co.rooms.expired(cutoff) {
		co.broadcastRoom(room, serverMessage{
			Type:    "room_closed",
			Payload: roomClosedPayload{Message: "Room expired"},
		})

		for _, p := range room.players {
			delete(co.member, p.ID)
		}
		co.rooms.delete(room.id)

		logf(co.cfg, "ROOMS: Expired %s", room.id)
	}
}

func (co *Coordinator) currentRoom(sessionID string) *Room {
	roomID, ok := co.member[sessionID]
	if !ok {
		return nil
	}
	return co.rooms.get(roomID)
}

func (co *Coordinator) broadcastGameStarted(room *Room) {
	co.broadcastRoom(room, serverMessage{
		Type: "game_started",
		Payload: gameStartedPayload{
			GameState:   room.state,
			Cards:       room.deck,
			CurrentTurn: room.currentTurn,
			Players:     room.players,
		},
	})
}

// broadcastRoom fans a message out to every member in join order. Sends are
// best effort: a slow or gone client is skipped and reaped by its own close
// event.
func (co *Coordinator) broadcastRoom(room *Room, msg serverMessage) {
	for _, p := range room.players {
		if c, ok := co.clients[p.ID]; ok {
			co.sendTo(c, msg)
		}
	}
}

func (co *Coordinator) sendTo(c *client, msg serverMessage) {
	if c.closed {
		return
	}

	select {
	case c.send <- msg:
	default:
	}
}

func (co *Coordinator) sendError(c *client, err error) {
	co.sendTo(c, serverMessage{
		Type:    "error",
		Payload: errorPayload{Message: err.Error()},
	})
}
