package auth

import (
	"context"
	"fmt"

	"github.com/juju/mgo/v3"
	"github.com/juju/mgo/v3/bson"
)

// DefaultUsersCollection is where the login service keeps user records
// unless a deployment overrides it.
const DefaultUsersCollection = "users"

type userRecord struct {
	ID      bson.ObjectId `bson:"_id"`
	Name    string        `bson:"name"`
	Email   string        `bson:"email"`
	IsAdmin bool          `bson:"isAdmin"`
}

// MongoUserStore resolves users from the shared Mongo database.
// This is the canonical store for the shared-login agreement.
type MongoUserStore struct {
	db  *mgo.Database
	col string
}

func NewMongoUserStore(db *mgo.Database, collection string) *MongoUserStore {
	if collection == "" {
		collection = DefaultUsersCollection
	}
	return &MongoUserStore{db: db, col: collection}
}

func (s *MongoUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	if !bson.IsObjectIdHex(id) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedID, id)
	}

	var rec userRecord
	err := s.db.C(s.col).FindId(bson.ObjectIdHex(id)).One(&rec)
	if err == mgo.ErrNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: user lookup failed: %w", err)
	}

	// explicit allow-list projection; IsAdmin stays false when the
	// record has no isAdmin field
	return &User{
		ID:      rec.ID.Hex(),
		Name:    rec.Name,
		Email:   rec.Email,
		IsAdmin: rec.IsAdmin,
	}, nil
}
