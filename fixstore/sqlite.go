/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package fixstore

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"fixengine/fixmsg"
)

const createSchemaQuery = `
CREATE TABLE IF NOT EXISTS counters (
	session_key TEXT PRIMARY KEY,
	local       INTEGER NOT NULL,
	remote      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	session_key TEXT NOT NULL,
	uid         TEXT NOT NULL,
	seq_num     INTEGER NOT NULL,
	is_sent     INTEGER NOT NULL,
	stored_at   TEXT NOT NULL,
	encoded     BLOB NOT NULL,
	PRIMARY KEY (session_key, is_sent, seq_num)
);
CREATE INDEX IF NOT EXISTS messages_session_idx ON messages (session_key, is_sent, seq_num);
`

const upsertCounterQuery = `
INSERT INTO counters (session_key, local, remote) VALUES (?, ?, ?)
ON CONFLICT(session_key) DO UPDATE SET local = excluded.local, remote = excluded.remote
`

const selectCounterQuery = `SELECT local, remote FROM counters WHERE session_key = ?`

const insertMessageQuery = `
INSERT OR IGNORE INTO messages (session_key, uid, seq_num, is_sent, stored_at, encoded)
VALUES (?, ?, ?, ?, ?, ?)
`

const selectMessagesQuery = `
SELECT uid, encoded FROM messages
WHERE session_key = ? AND is_sent = ? AND seq_num >= ?
  AND (? = 0 OR seq_num <= ?)
ORDER BY seq_num %s
LIMIT ?
`

const deleteSessionMessagesQuery = `DELETE FROM messages WHERE session_key = ?`
const deleteSessionCounterQuery = `DELETE FROM counters WHERE session_key = ?`

// SQLiteStore is a durable MessageStore backed by go-sqlite3: open with WAL
// mode and a generous busy timeout, prepare statements once, reuse across
// calls. One physical database may back many sessions; every row and
// counter lookup is scoped by sessionKey, so stores opened on the same
// database file for different sessions (each with its own *sql.DB) stay
// isolated from one another without needing separate files.
type SQLiteStore struct {
	db         *sql.DB
	sessionKey string

	stmtInsertMsg   *sql.Stmt
	stmtUpsertCtr   *sql.Stmt
	stmtSelectCtr   *sql.Stmt
}

// OpenSQLiteStore opens (or creates) the database at path and returns a
// store scoped to sessionKey. Multiple OpenSQLiteStore calls against the
// same path with different keys safely share the underlying file.
func OpenSQLiteStore(path, sessionKey string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("fixstore: open sqlite: %w", err)
	}

	if _, err := db.Exec(createSchemaQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fixstore: init schema: %w", err)
	}

	s := &SQLiteStore{db: db, sessionKey: sessionKey}

	if s.stmtInsertMsg, err = db.Prepare(insertMessageQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("fixstore: prepare insert message: %w", err)
	}
	if s.stmtUpsertCtr, err = db.Prepare(upsertCounterQuery); err != nil {
		_ = s.stmtInsertMsg.Close()
		_ = db.Close()
		return nil, fmt.Errorf("fixstore: prepare upsert counter: %w", err)
	}
	if s.stmtSelectCtr, err = db.Prepare(selectCounterQuery); err != nil {
		_ = s.stmtInsertMsg.Close()
		_ = s.stmtUpsertCtr.Close()
		_ = db.Close()
		return nil, fmt.Errorf("fixstore: prepare select counter: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) counters() (local, remote int, err error) {
	row := s.stmtSelectCtr.QueryRow(s.sessionKey)
	err = row.Scan(&local, &remote)
	if err == sql.ErrNoRows {
		local, remote = 1, 1
		_, err = s.stmtUpsertCtr.Exec(s.sessionKey, local, remote)
		return local, remote, err
	}
	return local, remote, err
}

func (s *SQLiteStore) GetLocal() (int, error) {
	local, _, err := s.counters()
	return local, err
}

func (s *SQLiteStore) GetRemote() (int, error) {
	_, remote, err := s.counters()
	return remote, err
}

func (s *SQLiteStore) IncrLocal() (int, error) {
	local, remote, err := s.counters()
	if err != nil {
		return 0, err
	}
	local++
	if _, err := s.stmtUpsertCtr.Exec(s.sessionKey, local, remote); err != nil {
		return 0, err
	}
	return local, nil
}

func (s *SQLiteStore) IncrRemote() (int, error) {
	local, remote, err := s.counters()
	if err != nil {
		return 0, err
	}
	remote++
	if _, err := s.stmtUpsertCtr.Exec(s.sessionKey, local, remote); err != nil {
		return 0, err
	}
	return remote, nil
}

func (s *SQLiteStore) SetLocal(n int) error {
	_, remote, err := s.counters()
	if err != nil {
		return err
	}
	_, err = s.stmtUpsertCtr.Exec(s.sessionKey, n, remote)
	return err
}

func (s *SQLiteStore) SetRemote(n int) error {
	local, _, err := s.counters()
	if err != nil {
		return err
	}
	_, err = s.stmtUpsertCtr.Exec(s.sessionKey, local, n)
	return err
}

func (s *SQLiteStore) StoreMsg(msg *fixmsg.FixMessage, sender string) error {
	seqNum, ok := msg.SeqNum()
	if !ok {
		return &fixmsg.InvalidMessageError{Reason: "cannot store a message with no MsgSeqNum"}
	}
	senderOfMsg, _ := msg.Get(49) // TagSenderCompID
	isSent := senderOfMsg == sender

	uid := msg.UID
	if uid == "" {
		uid = fmt.Sprintf("%s:%d:%v", s.sessionKey, seqNum, isSent)
	}

	_, err := s.stmtInsertMsg.Exec(s.sessionKey, uid, seqNum, isSent, time.Now().Format(time.RFC3339Nano), fixmsg.Encode(msg, msg.BeginString()))
	return err
}

func (s *SQLiteStore) GetSent(min, max, limit int) ([]*fixmsg.FixMessage, error) {
	return s.GetMsgs(min, max, limit, IndexSent, Ascending)
}

func (s *SQLiteStore) GetReceived(min, max, limit int) ([]*fixmsg.FixMessage, error) {
	return s.GetMsgs(min, max, limit, IndexReceived, Ascending)
}

func (s *SQLiteStore) GetMsgs(min, max, limit int, index Index, order SortOrder) ([]*fixmsg.FixMessage, error) {
	if index == IndexAll {
		sent, err := s.scanMsgs(min, max, limit, true, order)
		if err != nil {
			return nil, err
		}
		recv, err := s.scanMsgs(min, max, limit, false, order)
		if err != nil {
			return nil, err
		}
		return mergeBySeqNum(sent, recv, order), nil
	}
	return s.scanMsgs(min, max, limit, index == IndexSent, order)
}

func (s *SQLiteStore) scanMsgs(min, max, limit int, isSent bool, order SortOrder) ([]*fixmsg.FixMessage, error) {
	dir := "ASC"
	if order == Descending {
		dir = "DESC"
	}
	query := fmt.Sprintf(selectMessagesQuery, dir)

	lim := limit
	if lim == Unbounded {
		lim = -1
	}
	rows, err := s.db.Query(query, s.sessionKey, isSent, min, max, max, lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*fixmsg.FixMessage, 0)
	for rows.Next() {
		var uid string
		var encoded []byte
		if err := rows.Scan(&uid, &encoded); err != nil {
			return nil, err
		}
		msg, err := decodeStored(encoded)
		if err != nil {
			continue
		}
		msg.UID = uid
		out = append(out, msg)
	}
	return out, rows.Err()
}

func mergeBySeqNum(a, b []*fixmsg.FixMessage, order SortOrder) []*fixmsg.FixMessage {
	out := make([]*fixmsg.FixMessage, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Slice(out, func(i, j int) bool {
		si, _ := out[i].SeqNum()
		sj, _ := out[j].SeqNum()
		if order == Ascending {
			return si < sj
		}
		return si > sj
	})
	return out
}

func (s *SQLiteStore) Reset() error {
	if _, err := s.db.Exec(deleteSessionMessagesQuery, s.sessionKey); err != nil {
		return err
	}
	if _, err := s.db.Exec(deleteSessionCounterQuery, s.sessionKey); err != nil {
		return err
	}
	_, err := s.stmtUpsertCtr.Exec(s.sessionKey, 1, 2)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.stmtInsertMsg != nil {
		_ = s.stmtInsertMsg.Close()
	}
	if s.stmtUpsertCtr != nil {
		_ = s.stmtUpsertCtr.Close()
	}
	if s.stmtSelectCtr != nil {
		_ = s.stmtSelectCtr.Close()
	}
	return s.db.Close()
}
