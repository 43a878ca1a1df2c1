package main

import (
	"fmt"
	"testing"
)

func testImages(n int) []GameImage {
	images := make([]GameImage, n)
	for i := range images {
		images[i] = GameImage{
			ID:   fmt.Sprintf("img-%d", i),
			URL:  fmt.Sprintf("https://images.example/%d.png", i),
			Name: fmt.Sprintf("Image %d", i),
		}
	}
	return images
}

func TestBuildDeckPairsAndPositions(t *testing.T) {
	deck := buildDeck(testImages(4), 4)

	if len(deck) != 8 {
		t.Fatalf("Expected 8 cards, got %d", len(deck))
	}

	byImage := make(map[string]int)
	seenIDs := make(map[string]bool)
	seenPositions := make(map[int]bool)

	for _, card := range deck {
		byImage[card.ImageID]++

		if seenIDs[card.ID] {
			t.Errorf("Duplicate card id %q", card.ID)
		}
		seenIDs[card.ID] = true

		if card.Position < 0 || card.Position >= len(deck) {
			t.Errorf("Position %d out of range for %q", card.Position, card.ID)
		}
		if seenPositions[card.Position] {
			t.Errorf("Duplicate position %d", card.Position)
		}
		seenPositions[card.Position] = true

		if card.IsFlipped || card.IsMatched {
			t.Errorf("Card %q should start face down and unmatched", card.ID)
		}
	}

	if len(byImage) != 4 {
		t.Errorf("Expected 4 distinct images, got %d", len(byImage))
	}
	for image, count := range byImage {
		if count != 2 {
			t.Errorf("Image %q appears on %d cards, expected 2", image, count)
		}
	}
}

func TestBuildDeckPositionsMatchOrder(t *testing.T) {
	deck := buildDeck(testImages(6), 6)

	for i, card := range deck {
		if card.Position != i {
			t.Errorf("Card at index %d has position %d", i, card.Position)
		}
	}
}

func TestBuildDeckClampsPairCount(t *testing.T) {
	if got := len(buildDeck(testImages(3), 10)); got != 6 {
		t.Errorf("Expected pair count clamped to 3 images (6 cards), got %d", got)
	}

	if got := len(buildDeck(testImages(5), 0)); got != 10 {
		t.Errorf("Expected zero pair count to use all 5 images (10 cards), got %d", got)
	}

	if got := len(buildDeck(testImages(5), 2)); got != 4 {
		t.Errorf("Expected 2 pairs (4 cards), got %d", got)
	}
}

func TestBuildDeckUsesURLWhenImageIDMissing(t *testing.T) {
	images := []GameImage{
		{URL: "https://images.example/a.png"},
		{URL: "https://images.example/b.png"},
	}

	deck := buildDeck(images, 2)

	identities := make(map[string]int)
	for _, card := range deck {
		identities[card.ImageID]++
	}
	if identities["https://images.example/a.png"] != 2 {
		t.Error("Expected URL to serve as pair identity when image id is empty")
	}
}

func TestShuffleIsNotIdentity(t *testing.T) {
	// With 20 pairs per trial, all trials coming out in generation order
	// means the shuffle is broken.
	trials := 10
	shuffled := false

	for range trials {
		deck := buildDeck(testImages(20), 20)

		identity := true
		for i, card := range deck {
			expected := fmt.Sprintf("%d-%d", i/2, i%2+1)
			if card.ID != expected {
				identity = false
				break
			}
		}
		if !identity {
			shuffled = true
			break
		}
	}

	if !shuffled {
		t.Errorf("Deck came out in generation order across %d trials", trials)
	}
}
