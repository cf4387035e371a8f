// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package present receives the user-facing outcome of each dispatch.
package present

import (
	"sync"
	"time"

	xglog "github.com/ManuGH/codescan/internal/log"
	"github.com/ManuGH/codescan/internal/lookup"
	"github.com/rs/zerolog"
)

// Presenter is notified as a dispatch progresses.
type Presenter interface {
	ShowSearching(code string)
	ShowResult(rec lookup.Record)
	ShowNotFound(code string)
}

// LogPresenter writes each notification to a logger.
type LogPresenter struct {
	Logger zerolog.Logger
}

func (p LogPresenter) ShowSearching(code string) {
	p.Logger.Info().Str(xglog.FieldCode, code).Msg("searching")
}

func (p LogPresenter) ShowResult(rec lookup.Record) {
	p.Logger.Info().
		Str(xglog.FieldCode, rec.Code).
		Str("title", rec.Title()).
		Bool("cached", rec.Cached).
		Msg("record found")
}

func (p LogPresenter) ShowNotFound(code string) {
	p.Logger.Info().Str(xglog.FieldCode, code).Msg("record not found")
}

// Multi fans notifications out to several presenters in order.
type Multi []Presenter

func (m Multi) ShowSearching(code string) {
	for _, p := range m {
		p.ShowSearching(code)
	}
}

func (m Multi) ShowResult(rec lookup.Record) {
	for _, p := range m {
		p.ShowResult(rec)
	}
}

func (m Multi) ShowNotFound(code string) {
	for _, p := range m {
		p.ShowNotFound(code)
	}
}

// View states.
const (
	StateIdle      = "idle"
	StateSearching = "searching"
	StateFound     = "found"
	StateNotFound  = "not_found"
)

// View is the latest presentation state.
type View struct {
	State     string         `json:"state"`
	Code      string         `json:"code,omitempty"`
	Record    *lookup.Record `json:"record,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt,omitempty"`
	Results   uint64         `json:"results"`
	NotFound  uint64         `json:"notFound"`
}

// Board keeps the most recent notification for polling clients.
type Board struct {
	mu   sync.RWMutex
	view View
	now  func() time.Time
}

// NewBoard returns an idle Board.
func NewBoard() *Board {
	return &Board{view: View{State: StateIdle}, now: time.Now}
}

func (b *Board) ShowSearching(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.view.State = StateSearching
	b.view.Code = code
	b.view.Record = nil
	b.view.UpdatedAt = b.now()
}

func (b *Board) ShowResult(rec lookup.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.view.State = StateFound
	b.view.Code = rec.Code
	b.view.Record = &rec
	b.view.UpdatedAt = b.now()
	b.view.Results++
}

func (b *Board) ShowNotFound(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.view.State = StateNotFound
	b.view.Code = code
	b.view.Record = nil
	b.view.UpdatedAt = b.now()
	b.view.NotFound++
}

// Snapshot returns a copy of the current view.
func (b *Board) Snapshot() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}
