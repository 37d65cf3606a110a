/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package bolt stores model Documents in a BoltDB file.
//
// Each Document is kept as JSON under its name in a single bucket.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/quill/model"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket is the name of the bucket that holds Documents.
	Bucket = []byte("models")

	// OpenTimeout is how long Open waits for the file lock.
	OpenTimeout = time.Second

	ErrNotFound = errors.New("model not found")
	ErrNotOpen  = errors.New("store not open")
)

type Store struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStore(filename string) *Store {
	return &Store{
		filename: filename,
	}
}

func (s *Store) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: OpenTimeout,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	if err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return err
	}); err != nil {
		db.Close()
		return err
	}
	s.db = db
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("model Store."+format, args...)
	}
}

// Put compiles doc (to make sure it's usable) and stores it under
// name.
func (s *Store) Put(ctx context.Context, name string, doc *model.Document) error {
	s.logf("Put %s", name)
	if s.db == nil {
		return ErrNotOpen
	}
	if _, err := doc.Compile(); err != nil {
		return err
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(Bucket).Put([]byte(name), js)
	})
}

// Document returns the stored Document.
func (s *Store) Document(ctx context.Context, name string) (*model.Document, error) {
	s.logf("Document %s", name)
	if s.db == nil {
		return nil, ErrNotOpen
	}
	var doc *model.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(Bucket).Get([]byte(name))
		if bs == nil {
			return ErrNotFound
		}
		doc = &model.Document{}
		return json.Unmarshal(bs, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Model returns the compiled Model stored under name.
func (s *Store) Model(ctx context.Context, name string) (*model.Model, error) {
	doc, err := s.Document(ctx, name)
	if err != nil {
		return nil, err
	}
	return doc.Compile()
}

// List returns the stored names in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}
	names := make([]string, 0, 16)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(Bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	s.logf("List found %d models", len(names))
	return names, err
}

func (s *Store) Delete(ctx context.Context, name string) error {
	s.logf("Delete %s", name)
	if s.db == nil {
		return ErrNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(Bucket).Delete([]byte(name))
	})
}
