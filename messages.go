package main

import (
	"encoding/json"
)

// clientMessage is the envelope for every inbound frame. Payload stays raw
// until the router knows which shape to decode it into.
type clientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createRoomPayload struct {
	PlayerName   string          `json:"playerName"`
	PlayerColor  string          `json:"playerColor,omitempty"`
	GameConfig   json.RawMessage `json:"gameConfig,omitempty"`
	ImagePackage *ImagePackage   `json:"imagePackage,omitempty"`
}

type joinRoomPayload struct {
	RoomID      string `json:"roomId"`
	PlayerName  string `json:"playerName"`
	PlayerColor string `json:"playerColor,omitempty"`
}

type startGamePayload struct {
	GameConfig   json.RawMessage `json:"gameConfig,omitempty"`
	ImagePackage *ImagePackage   `json:"imagePackage,omitempty"`
}

type flipCardPayload struct {
	CardID string `json:"cardId"`
}

type setPlayerReadyPayload struct {
	IsReady bool `json:"isReady"`
}

// serverMessage is the envelope for every outbound frame.
type serverMessage struct {
	Type     string `json:"type"`
	Payload  any    `json:"payload"`
	RoomID   string `json:"roomId,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

type connectionEstablishedPayload struct {
	PlayerID string `json:"playerId"`
}

type roomCreatedPayload struct {
	RoomID    string    `json:"roomId"`
	Player    *Player   `json:"player"`
	Players   []*Player `json:"players"`
	GameState gameState `json:"gameState"`
}

// joinSuccessPayload goes to the joiner only; everyone else gets player_joined.
type joinSuccessPayload struct {
	PlayerID string  `json:"playerId"`
	RoomID   string  `json:"roomId"`
	Player   *Player `json:"player"`
}

type playerJoinedPayload struct {
	Player    *Player   `json:"player"`
	Players   []*Player `json:"players"`
	GameState gameState `json:"gameState"`
	RoomID    string    `json:"roomId"`
}

type playerLeftPayload struct {
	PlayerID string    `json:"playerId"`
	Players  []*Player `json:"players"`
}

type newHostPayload struct {
	NewHostID string    `json:"newHostId"`
	Players   []*Player `json:"players"`
}

type gameStartedPayload struct {
	GameState   gameState `json:"gameState"`
	Cards       []*Card   `json:"cards"`
	CurrentTurn string    `json:"currentTurn"`
	Players     []*Player `json:"players"`
}

type cardFlippedPayload struct {
	CardID       string   `json:"cardId"`
	PlayerID     string   `json:"playerId"`
	FlippedCards []string `json:"flippedCards"`
}

type matchFoundPayload struct {
	MatchedCards []string  `json:"matchedCards"`
	PlayerID     string    `json:"playerId"`
	Score        int       `json:"score"`
	Players      []*Player `json:"players"`
}

type noMatchPayload struct {
	FlippedCards []string `json:"flippedCards"`
}

type turnChangedPayload struct {
	CurrentTurn string `json:"currentTurn"`
}

type gameEndedPayload struct {
	Winner    *Player   `json:"winner,omitempty"`
	IsTie     bool      `json:"isTie"`
	Players   []*Player `json:"players"`
	GameState gameState `json:"gameState"`
}

type playerReadyChangedPayload struct {
	Players []*Player `json:"players"`
}

type roomClosedPayload struct {
	Message string `json:"message"`
}

type errorPayload struct {
	Message string `json:"message"`
}
