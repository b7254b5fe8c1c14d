//
// Created on 2023/4/12 by khanghh
// Project: github.com/verichains/calltrace
// Copyright (c) 2023 Verichains Lab
//

package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/tidwall/wal"
	"github.com/verichains/calltrace/trace"
)

var ErrNotFound = errors.New("journal entry not found")

// Journal is an append-only archive of recorded arenas. Entries are indexed
// from 1 and only keep the recorded data, decoded values are recomputed by
// a new decode pass after reading.
type Journal struct {
	log *wal.Log
	mtx sync.Mutex
}

func Open(dir string) (*Journal, error) {
	opts := *wal.DefaultOptions
	opts.LogFormat = wal.Binary
	wlog, err := wal.Open(dir, &opts)
	if err != nil {
		return nil, fmt.Errorf("could not open journal %s: %w", dir, err)
	}
	return &Journal{log: wlog}, nil
}

// Append validates and stores the arena, returning its index.
func (j *Journal) Append(arena *trace.CallTraceArena) (uint64, error) {
	if err := arena.Validate(); err != nil {
		return 0, err
	}
	enc, err := rlp.EncodeToBytes(newArenaRecord(arena, uint64(time.Now().Unix())))
	if err != nil {
		return 0, err
	}
	j.mtx.Lock()
	defer j.mtx.Unlock()
	last, err := j.log.LastIndex()
	if err != nil {
		return 0, err
	}
	if err := j.log.Write(last+1, enc); err != nil {
		return 0, err
	}
	log.Debug("Appended call trace to journal", "index", last+1, "nodes", arena.Len(), "size", len(enc))
	return last + 1, nil
}

func (j *Journal) readRecord(index uint64) (*arenaRecord, error) {
	data, err := j.log.Read(index)
	if err != nil {
		if errors.Is(err, wal.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec := new(arenaRecord)
	if err := rlp.DecodeBytes(data, rec); err != nil {
		return nil, fmt.Errorf("corrupted journal entry %d: %w", index, err)
	}
	return rec, nil
}

// Read restores the arena stored at index.
func (j *Journal) Read(index uint64) (*trace.CallTraceArena, error) {
	rec, err := j.readRecord(index)
	if err != nil {
		return nil, err
	}
	return rec.arena()
}

// Time returns when the entry at index was appended.
func (j *Journal) Time(index uint64) (time.Time, error) {
	rec, err := j.readRecord(index)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(rec.Time), 0), nil
}

// FirstIndex returns the index of the oldest entry, zero if the journal is empty.
func (j *Journal) FirstIndex() (uint64, error) {
	return j.log.FirstIndex()
}

// LastIndex returns the index of the newest entry, zero if the journal is empty.
func (j *Journal) LastIndex() (uint64, error) {
	return j.log.LastIndex()
}

// Truncate removes every entry before index.
func (j *Journal) Truncate(index uint64) error {
	j.mtx.Lock()
	defer j.mtx.Unlock()
	if err := j.log.TruncateFront(index); err != nil {
		if errors.Is(err, wal.ErrOutOfRange) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (j *Journal) Close() error {
	return j.log.Close()
}
