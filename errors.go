/*
Copyright © 2025 R4mirezDiaz
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Every game-level failure is recoverable: it is reported back to the
// offending session as an "error" message and never closes the connection.
var (
	errRoomNotFound        = errors.New("room not found")
	errRoomFull            = errors.New("room is full")
	errGameAlreadyStarted  = errors.New("game already started")
	errNameTaken           = errors.New("player name already taken")
	errNotHost             = errors.New("only the host can do that")
	errNotYourTurn         = errors.New("not your turn")
	errCardNotFound        = errors.New("card not found")
	errCardUnavailable     = errors.New("card is not available")
	errInsufficientPlayers = errors.New("at least two players are required to start")
	errNotInRoom           = errors.New("you are not in a room")
	errGameNotStarted      = errors.New("game has not started")
	errGameNotFinished     = errors.New("game is not finished")
	errInvalidMessage      = errors.New("invalid message format")
	errUnknownMessageType  = errors.New("unknown message type")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
