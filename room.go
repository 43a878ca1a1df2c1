package main

import (
	"encoding/json"
	"strings"
	"time"
)

type gameState string

const (
	stateWaiting  gameState = "waiting"
	statePlaying  gameState = "playing"
	stateFinished gameState = "finished"
)

// Fallback palette for clients that don't pick a color, assigned by join index.
var playerColors = []string{"#ef4444", "#3b82f6", "#22c55e", "#eab308"}

// Player is a session's game-facing identity. The live connection is kept
// separately in the coordinator's registry, so this stays serializable.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	IsHost  bool   `json:"isHost"`
	IsReady bool   `json:"isReady"`
	Score   int    `json:"score"`
	Wins    int    `json:"wins"`
}

// Room is the unit of isolation for one game. Slice order of players is
// join order, which also defines turn order.
type Room struct {
	id          string
	hostID      string
	players     []*Player
	state       gameState
	currentTurn string
	gameConfig  json.RawMessage
	images      *ImagePackage
	deck        []*Card
	flipped     []string
	flippedBy   string
	matched     map[string]bool
	createdAt   time.Time
}

func newRoom(id string, gameConfig json.RawMessage, images *ImagePackage) *Room {
	return &Room{
		id:         id,
		state:      stateWaiting,
		gameConfig: gameConfig,
		images:     images,
		matched:    make(map[string]bool),
		createdAt:  time.Now(),
	}
}

func (r *Room) playerByID(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) cardByID(id string) *Card {
	for _, c := range r.deck {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// addPlayer admits a player into the room, assigning a palette color if the
// client didn't pick one.
func (r *Room) addPlayer(p *Player, maxPlayers int) error {
	if len(r.players) >= maxPlayers {
		return errRoomFull
	}
	if r.state != stateWaiting {
		return errGameAlreadyStarted
	}
	for _, existing := range r.players {
		if strings.EqualFold(existing.Name, p.Name) {
			return errNameTaken
		}
	}

	if p.Color == "" {
		p.Color = playerColors[len(r.players)%len(playerColors)]
	}

	r.players = append(r.players, p)
	if p.IsHost {
		r.hostID = p.ID
	}

	return nil
}

// removePlayer drops a player from the room, migrating the host flag to the
// earliest remaining player and handing the turn to the next player in join
// order when the departing player held it. Returns the removed player and
// the new host, if any.
func (r *Room) removePlayer(id string) (*Player, *Player) {
	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}

	removed := r.players[idx]
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	if len(r.players) == 0 {
		r.currentTurn = ""
		r.hostID = ""
		return removed, nil
	}

	// Remaining players keep their relative order, so the circular advance
	// simply continues from the vacated slot.
	if r.state == statePlaying && r.currentTurn == id {
		r.currentTurn = r.players[idx%len(r.players)].ID
	}

	var newHost *Player
	if removed.IsHost {
		newHost = r.players[0]
		newHost.IsHost = true
		r.hostID = newHost.ID
	}

	return removed, newHost
}

// start transitions waiting → playing. Host only, two players minimum.
// A config or image package in the payload replaces the stored one.
func (r *Room) start(sessionID string, gameConfig json.RawMessage, images *ImagePackage) error {
	if r.state != stateWaiting {
		return errGameAlreadyStarted
	}
	if sessionID != r.hostID {
		return errNotHost
	}
	if len(r.players) < 2 {
		return errInsufficientPlayers
	}

	if len(gameConfig) > 0 {
		r.gameConfig = gameConfig
	}
	if images != nil {
		r.images = images
	}
	if r.images == nil || len(r.images.Images) == 0 {
		return errInvalidMessage
	}

	r.begin()

	return nil
}

// restart transitions finished → playing with a fresh deck. Scores reset,
// win counters and membership are preserved.
func (r *Room) restart(sessionID string) error {
	if r.state != stateFinished {
		return errGameNotFinished
	}
	if sessionID != r.hostID {
		return errNotHost
	}

	r.begin()

	return nil
}

func (r *Room) begin() {
	cfg := parseGameConfig(r.gameConfig)

	r.deck = buildDeck(r.images.Images, cfg.Pairs)
	r.flipped = nil
	r.flippedBy = ""
	r.matched = make(map[string]bool)

	for _, p := range r.players {
		p.Score = 0
	}

	r.state = statePlaying
	r.currentTurn = r.players[0].ID
}

// flip applies a card-flip action. The returned bool reports whether the
// flipped-set just reached two cards and resolution should be scheduled.
func (r *Room) flip(sessionID, cardID string) (bool, error) {
	if r.state != statePlaying {
		return false, errGameNotStarted
	}
	if sessionID != r.currentTurn {
		return false, errNotYourTurn
	}

	card := r.cardByID(cardID)
	if card == nil {
		return false, errCardNotFound
	}
	if len(r.flipped) >= 2 || card.IsFlipped || card.IsMatched {
		return false, errCardUnavailable
	}

	card.IsFlipped = true
	r.flipped = append(r.flipped, cardID)
	r.flippedBy = sessionID

	return len(r.flipped) == 2, nil
}

// resolveResult describes the outcome of a match resolution.
type resolveResult struct {
	isMatch  bool
	cardIDs  []string
	scorerID string
	score    int
	finished bool
	winner   *Player
	isTie    bool
	nextTurn string
}

// resolve compares the two flipped cards and settles the round. It returns
// nil when there is nothing to resolve, which covers timers that fire after
// the game moved on.
func (r *Room) resolve() *resolveResult {
	if r.state != statePlaying || len(r.flipped) != 2 {
		return nil
	}

	first := r.cardByID(r.flipped[0])
	second := r.cardByID(r.flipped[1])
	if first == nil || second == nil {
		r.flipped = nil
		r.flippedBy = ""
		return nil
	}
	res := &resolveResult{cardIDs: []string{first.ID, second.ID}}

	if first.ImageID == second.ImageID {
		res.isMatch = true

		first.IsMatched = true
		second.IsMatched = true
		r.matched[first.ID] = true
		r.matched[second.ID] = true

		// The flipper may have disconnected while the reveal timer was
		// pending; the pair still resolves, nobody scores.
		if scorer := r.playerByID(r.flippedBy); scorer != nil {
			scorer.Score += pointsPerPair
			res.scorerID = scorer.ID
			res.score = scorer.Score
		}

		if len(r.matched) == len(r.deck) {
			r.state = stateFinished
			r.currentTurn = ""
			res.finished = true

			winners, isTie := r.winners()
			res.isTie = isTie
			if !isTie && len(winners) == 1 {
				res.winner = winners[0]
				res.winner.Wins++
			}
		}
	} else {
		first.IsFlipped = false
		second.IsFlipped = false

		r.advanceTurn()
		res.nextTurn = r.currentTurn
	}

	r.flipped = nil
	r.flippedBy = ""

	return res
}

// winners returns the players holding the maximum score, and whether that
// maximum is shared.
func (r *Room) winners() ([]*Player, bool) {
	if len(r.players) == 0 {
		return nil, false
	}

	top := r.players[0].Score
	for _, p := range r.players[1:] {
		if p.Score > top {
			top = p.Score
		}
	}

	winners := make([]*Player, 0, 1)
	for _, p := range r.players {
		if p.Score == top {
			winners = append(winners, p)
		}
	}

	return winners, len(winners) > 1
}

func (r *Room) advanceTurn() {
	if len(r.players) == 0 {
		r.currentTurn = ""
		return
	}

	for i, p := range r.players {
		if p.ID == r.currentTurn {
			r.currentTurn = r.players[(i+1)%len(r.players)].ID
			return
		}
	}

	r.currentTurn = r.players[0].ID
}
