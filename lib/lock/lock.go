package lock

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// lock could not be acquired within the retry budget
var ErrUnavailable = errors.New("spool lock unavailable")

// default retry budget
const DefaultAttempts = 5

// default wait between attempts
const DefaultInterval = time.Second

// Locker guards the spool directory with a create-exclusive marker file.
// mutual exclusion works across independent processes on the same host, the
// filesystem is the only coordinator. not reentrant: a holder that acquires
// again will spin out its retry budget and fail. a marker left by a dead
// holder is never expired automatically, see Stale.
type Locker struct {
	path     string
	attempts int
	interval time.Duration
}

// Lock is ownership of an acquired marker
type Lock struct {
	path string
}

func New(path string, attempts int, interval time.Duration) *Locker {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Locker{
		path:     path,
		attempts: attempts,
		interval: interval,
	}
}

// try to acquire the marker, retrying up to the configured attempt budget.
// on success the marker holds our pid and the acquire time.
func (l *Locker) Acquire() (lk *Lock, err error) {
	for i := 0; i < l.attempts; i++ {
		if i > 0 {
			time.Sleep(l.interval)
		}
		var f *os.File
		f, err = os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			fmt.Fprintf(f, "%d %d\n", os.Getpid(), time.Now().Unix())
			err = f.Close()
			lk = &Lock{path: l.path}
			return
		}
		if !os.IsExist(err) {
			// not contention, something else is wrong with the path
			return
		}
	}
	log.Warnf("failed to acquire %s after %d attempts", l.path, l.attempts)
	err = ErrUnavailable
	return
}

// run f while holding the lock, always releasing it
func (l *Locker) With(f func() error) (err error) {
	var lk *Lock
	lk, err = l.Acquire()
	if err == nil {
		defer lk.Release()
		err = f()
	}
	return
}

// inspect an existing marker, reporting owner pid and marker age.
// manual staleness check only, nothing removes the marker for you.
func (l *Locker) Stale() (pid int, age time.Duration, err error) {
	var data []byte
	data, err = os.ReadFile(l.path)
	if err == nil {
		parts := strings.Fields(string(data))
		if len(parts) == 2 {
			pid, err = strconv.Atoi(parts[0])
			if err == nil {
				var t int64
				t, err = strconv.ParseInt(parts[1], 10, 64)
				if err == nil {
					age = time.Since(time.Unix(t, 0))
				}
			}
		} else {
			err = fmt.Errorf("malformed lock marker %s", l.path)
		}
	}
	return
}

// remove the marker, call exactly once per successful Acquire
func (lk *Lock) Release() (err error) {
	err = os.Remove(lk.path)
	if err != nil {
		log.Errorf("failed to release %s: %s", lk.path, err.Error())
	}
	return
}
