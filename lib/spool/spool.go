package spool

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/majestrate/bdsq/lib/lock"
)

// stored record cannot be decoded
var ErrCorrupt = errors.New("spool entry corrupt")

// no entry with that id in the spool
var ErrMissing = errors.New("spool entry missing")

// Spool is the on disk queue of pending messages, one json record file per
// message, named by an opaque unique id. shared by every instance of the
// tool on the host, all mutation goes through the spool lock.
type Spool struct {
	dir string
	lk  *lock.Locker
}

func New(dir string, lk *lock.Locker) *Spool {
	return &Spool{
		dir: dir,
		lk:  lk,
	}
}

// ensure the spool directory exists
func (s *Spool) Ensure() (err error) {
	_, err = os.Stat(s.dir)
	if os.IsNotExist(err) {
		err = os.MkdirAll(s.dir, 0700)
	}
	return
}

func (s *Spool) Dir() string {
	return s.dir
}

// the locker guarding this spool, for callers that span several operations
// in one critical section
func (s *Spool) Lock() *lock.Locker {
	return s.lk
}

// persist a new message under the spool lock and hand back its id.
// the record becomes visible to other processes only once fully written,
// it is staged under a tmp name and renamed into place.
func (s *Spool) Enqueue(args []string, body string) (id string, err error) {
	err = s.lk.With(func() error {
		ids, e := s.List()
		if e != nil {
			return e
		}
		taken := make(map[string]bool)
		for _, n := range ids {
			taken[n] = true
		}
		id = uuid.NewString()
		for taken[id] {
			id = uuid.NewString()
		}
		return s.write(id, Message{Args: args, Body: body})
	})
	if err == nil {
		log.Infof("enqueued %s", id)
	} else {
		id = ""
	}
	return
}

func (s *Spool) write(id string, msg Message) (err error) {
	var data []byte
	data, err = json.Marshal(msg)
	if err == nil {
		tmp := filepath.Join(s.dir, id+".tmp")
		err = os.WriteFile(tmp, data, 0600)
		if err == nil {
			err = os.Rename(tmp, filepath.Join(s.dir, id))
			if err != nil {
				os.Remove(tmp)
			}
		}
	}
	if err != nil {
		err = fmt.Errorf("spool write %s: %w", id, err)
	}
	return
}

// read back the record for id. caller holds the spool lock.
func (s *Spool) Read(id string) (msg Message, err error) {
	var data []byte
	data, err = os.ReadFile(filepath.Join(s.dir, id))
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: %s", ErrMissing, id)
		}
		return
	}
	if uerr := json.Unmarshal(data, &msg); uerr != nil {
		err = fmt.Errorf("%w: %s: %v", ErrCorrupt, id, uerr)
	}
	return
}

// delete the entry for id. caller holds the spool lock.
func (s *Spool) Remove(id string) (err error) {
	err = os.Remove(filepath.Join(s.dir, id))
	if os.IsNotExist(err) {
		err = fmt.Errorf("%w: %s", ErrMissing, id)
	}
	return
}

// ids of every pending message, sorted by name. the sort makes a drain
// deterministic but it is NOT enqueue order, ids are random and carry no
// ordering. tmp stage files and the lock marker are skipped.
func (s *Spool) List() (ids []string, err error) {
	var ents []os.DirEntry
	ents, err = os.ReadDir(s.dir)
	if err == nil {
		for _, ent := range ents {
			name := ent.Name()
			if ent.IsDir() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".tmp") {
				continue
			}
			ids = append(ids, name)
		}
		sort.Strings(ids)
	}
	return
}
