package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/bookshelf/internal/models"
	"github.com/desertthunder/bookshelf/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind  MsgKind
	token uint64
	data  any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgRecommendations MsgKind = iota
	MsgProgressUpdate
)

type recommendationsData struct {
	books []models.Book
	err   error
}

// recommendationsMsg is the constructor for [MsgRecommendations]
func recommendationsMsg(token uint64, books []models.Book, err error) Msg {
	return Msg{kind: MsgRecommendations, token: token, data: recommendationsData{books, err}}
}

type progressData struct {
	update tasks.ProgressUpdate
	ch     <-chan tasks.ProgressUpdate
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]. ch is the channel to keep reading from.
func progressUpdateMsg(token uint64, update tasks.ProgressUpdate, ch <-chan tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, token: token, data: progressData{update, ch}}
}
