package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/juju/mgo/v3"
	"github.com/juju/mgo/v3/bson"
)

// record mirrors the documents the login service writes to the shared
// sessions collection: the session payload is a JSON string.
type record struct {
	ID      string    `bson:"_id"`
	Data    string    `bson:"session"`
	Expires time.Time `bson:"expires"`
}

type MongoStore struct {
	db  *mgo.Database
	col string
}

// NewMongoStore opens the shared sessions collection on the given
// database handle. Connection ownership stays with the caller.
func NewMongoStore(db *mgo.Database) *MongoStore {
	return &MongoStore{
		db:  db,
		col: Collection,
	}
}

func (m *MongoStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	var rec record
	err := m.db.C(m.col).FindId(sessionID).One(&rec)
	if err == mgo.ErrNotFound {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	// The store reaper is lazy; an expired record is not a session.
	if !rec.Expires.IsZero() && time.Now().After(rec.Expires) {
		return nil, nil
	}

	fields, err := decodeData(rec.Data)
	if err != nil {
		return nil, fmt.Errorf("session: failed to unmarshal: %w", err)
	}

	return &Session{
		ID:       sessionID,
		UserID:   fieldString(fields, "userId"),
		ReturnTo: fieldString(fields, "returnTo"),
	}, nil
}

// Save persists the session's identity pointers, leaving every field
// owned by the login service (cookie settings etc.) untouched. Records
// are upserted so a fresh anonymous session can carry a return path.
func (m *MongoStore) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("session: missing session id")
	}

	var rec record
	err := m.db.C(m.col).FindId(s.ID).One(&rec)
	if err != nil && err != mgo.ErrNotFound {
		return err
	}

	fields, err := decodeData(rec.Data)
	if err != nil {
		return fmt.Errorf("session: failed to unmarshal: %w", err)
	}

	setField(fields, "userId", s.UserID)
	setField(fields, "returnTo", s.ReturnTo)

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}

	_, err = m.db.C(m.col).UpsertId(s.ID, bson.M{
		"$set":         bson.M{"session": string(data)},
		"$setOnInsert": bson.M{"expires": time.Now().Add(Lifetime)},
	})
	return err
}

func decodeData(data string) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if data == "" {
		return fields, nil
	}
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func fieldString(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func setField(fields map[string]json.RawMessage, key, val string) {
	if val == "" {
		delete(fields, key)
		return
	}
	raw, _ := json.Marshal(val)
	fields[key] = raw
}
