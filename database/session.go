// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package database

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"
)

// ErrSessionClosed is returned by any use of a [Session] after Close.
var ErrSessionClosed = errors.New("database: session is closed")

type opKind int

const (
	opSave opKind = iota
	opDelete
)

type op struct {
	kind   opKind
	entity any
}

// Session is a unit of work bound to one pooled connection. Writes are
// staged with Add and Delete and only reach the database on Flush, which
// happens inside a transaction that is never committed implicitly.
type Session struct {
	conn    *sql.Conn
	base    *gorm.DB
	tx      *gorm.DB
	pending []op
	closed  bool
}

// DB returns a handle for queries which run inside the session's
// transaction, beginning it if needed. Staged writes are not flushed first.
func (s *Session) DB(ctx context.Context) (*gorm.DB, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tx == nil {
		tx := s.base.WithContext(ctx).Begin()
		if tx.Error != nil {
			return nil, tx.Error
		}
		s.tx = tx
	}
	return s.tx.WithContext(ctx), nil
}

// Add stages entity to be inserted, when its primary key is zero, or
// saved otherwise. Database assigned fields stay unset until flushed.
func (s *Session) Add(entity any) {
	s.pending = append(s.pending, op{kind: opSave, entity: entity})
}

// Delete stages entity to be deleted. A nil entity is ignored.
func (s *Session) Delete(entity any) {
	if entity == nil {
		return
	}
	s.pending = append(s.pending, op{kind: opDelete, entity: entity})
}

// Pending reports how many writes are staged.
func (s *Session) Pending() int {
	return len(s.pending)
}

// Flush writes every staged change inside the session's transaction.
// Other sessions can't observe them until Commit.
func (s *Session) Flush(ctx context.Context) error {
	db, err := s.DB(ctx)
	if err != nil {
		return err
	}

	for len(s.pending) > 0 {
		o := s.pending[0]
		switch o.kind {
		case opSave:
			err = db.Save(o.entity).Error
		case opDelete:
			err = db.Delete(o.entity).Error
		}
		if err != nil {
			return err
		}
		s.pending = s.pending[1:]
	}
	return nil
}

// Commit flushes staged changes and commits them. The session stays
// usable and begins a new transaction on next use.
func (s *Session) Commit(ctx context.Context) error {
	err := s.Flush(ctx)
	if err != nil {
		return err
	}
	err = s.tx.Commit().Error
	s.tx = nil
	return err
}

// Rollback discards staged changes and anything flushed since the last Commit.
func (s *Session) Rollback() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.pending = nil
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback().Error
	s.tx = nil
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// Close rolls back anything uncommitted and returns the connection to
// the pool. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	rerr := s.Rollback()
	s.closed = true
	return errors.Join(rerr, s.conn.Close())
}
