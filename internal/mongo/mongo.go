package mongo

import (
	"time"

	"github.com/juju/mgo/v3"
)

type Client struct {
	*mgo.Session
}

func New(url string) (*Client, error) {

	session, err := mgo.DialWithTimeout(url, 5*time.Second)
	if err != nil {
		return nil, err
	}

	session.SetSocketTimeout(2 * time.Second)

	if err := session.Ping(); err != nil {
		session.Close()
		return nil, err
	}

	return &Client{Session: session}, nil

}
