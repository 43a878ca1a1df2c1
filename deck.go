package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
)

// pointsPerPair is the score awarded for each matched pair.
const pointsPerPair = 100

type GameImage struct {
	ID   string `json:"id,omitempty"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

type ImagePackage struct {
	ID     string      `json:"id,omitempty"`
	Name   string      `json:"name,omitempty"`
	Images []GameImage `json:"images"`
}

// GameConfig holds the fields the server acts on. The raw client blob is
// kept alongside it on the room so restarts reuse whatever was supplied.
type GameConfig struct {
	Pairs      int    `json:"pairs"`
	Difficulty string `json:"difficulty,omitempty"`
}

func parseGameConfig(raw json.RawMessage) GameConfig {
	var cfg GameConfig
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &cfg)
	}
	return cfg
}

type Card struct {
	ID        string `json:"id"`
	ImageID   string `json:"imageId"`
	ImageURL  string `json:"imageUrl"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
	Position  int    `json:"position"`
}

// buildDeck emits two cards per image for the first `pairs` images, then
// shuffles and assigns dense positions. Pair count is clamped to the number
// of images available.
func buildDeck(images []GameImage, pairs int) []*Card {
	if pairs < 1 || pairs > len(images) {
		pairs = len(images)
	}

	cards := make([]*Card, 0, pairs*2)
	for i, img := range images[:pairs] {
		identity := img.ID
		if identity == "" {
			identity = img.URL
		}
		cards = append(cards,
			&Card{
				ID:       fmt.Sprintf("%d-1", i),
				ImageID:  identity,
				ImageURL: img.URL,
			},
			&Card{
				ID:       fmt.Sprintf("%d-2", i),
				ImageID:  identity,
				ImageURL: img.URL,
			},
		)
	}

	shuffleCards(cards)

	for i, card := range cards {
		card.Position = i
	}

	return cards
}

// Fisher-Yates shuffle using crypto/rand
func shuffleCards(cards []*Card) {
	for i := len(cards) - 1; i > 0; i-- {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			continue
		}
		j := int(b[0]) % (i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
