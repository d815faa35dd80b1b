// Package archive keeps imported channel messages in bbolt and indexes them
// with bleve for full-text search.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned for unknown channel or message ids.
var ErrNotFound = errors.New("not found")

var (
	channelsBucket = []byte("channels")
	messagesBucket = []byte("messages")
)

type Store struct {
	db *bolt.DB
}

// NewStore opens or creates the archive database at dbPath. A zero timeout
// uses one second.
func NewStore(dbPath string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{channelsBucket, messagesBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveChannel(ch *Channel) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(ch)
		if err != nil {
			return err
		}
		return tx.Bucket(channelsBucket).Put([]byte(ch.ID), data)
	})
}

func (s *Store) GetChannel(id string) (*Channel, error) {
	var ch Channel
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(channelsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("channel %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &ch)
	})
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Channels lists all channels sorted by title, falling back to the feed URL.
func (s *Store) Channels() ([]*Channel, error) {
	var channels []*Channel
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(channelsBucket).ForEach(func(_, v []byte) error {
			var ch Channel
			if err := json.Unmarshal(v, &ch); err != nil {
				return err
			}
			channels = append(channels, &ch)
			return nil
		})
	})
	sort.Slice(channels, func(i, j int) bool {
		return strings.ToLower(channelLabel(channels[i])) < strings.ToLower(channelLabel(channels[j]))
	})
	return channels, err
}

func channelLabel(ch *Channel) string {
	if ch.Title != "" {
		return ch.Title
	}
	return ch.FeedURL
}

// SaveMessages upserts messages and reports how many were new.
func (s *Store) SaveMessages(messages []*Message) (int, error) {
	added := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)
		for _, m := range messages {
			if m.ID == "" {
				m.ID = MessageKey(m.ChannelID, m.MessageID)
			}
			if b.Get([]byte(m.ID)) == nil {
				added++
			}
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(m.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *Store) GetMessage(id string) (*Message, error) {
	var m Message
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(messagesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMessages loads messages in the order of ids, skipping unknown ids.
func (s *Store) GetMessages(ids []string) ([]*Message, error) {
	out := make([]*Message, 0, len(ids))
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(messagesBucket)
		for _, id := range ids {
			data := b.Get([]byte(id))
			if data == nil {
				continue
			}
			var m Message
			if err := json.Unmarshal(data, &m); err != nil {
				return fmt.Errorf("decoding message %s: %w", id, err)
			}
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}

// Messages lists messages of one channel (all channels for ""), newest first.
func (s *Store) Messages(channelID string, limit int) ([]*Message, error) {
	var messages []*Message
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(messagesBucket).ForEach(func(_, v []byte) error {
			var m Message
			if err := json.Unmarshal(v, &m); err != nil {
				return nil
			}
			if channelID == "" || m.ChannelID == channelID {
				messages = append(messages, &m)
			}
			return nil
		})
	})
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Date.After(messages[j].Date)
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, err
}

// DeleteChannel removes a channel and its messages.
func (s *Store) DeleteChannel(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(channelsBucket).Delete([]byte(id)); err != nil {
			return err
		}

		c := tx.Bucket(messagesBucket).Cursor()
		prefix := []byte(id + "/")
		for k, _ := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, _ = c.Seek(prefix) {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// MessageCount reports how many messages are archived.
func (s *Store) MessageCount() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(messagesBucket).Stats().KeyN
		return nil
	})
	return n, err
}
