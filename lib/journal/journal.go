package journal

import (
	"time"

	"github.com/go-xorm/xorm"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// lifecycle events recorded per message
const (
	EvEnqueued   = "enqueued"
	EvSent       = "sent"
	EvSendFailed = "send-failed"
	EvDrainStart = "drain-start"
	EvDrainStop  = "drain-stop"
)

// one journal row
type Entry struct {
	Id        int64  `xorm:"pk autoincr"`
	MessageId string `xorm:"index"`
	Event     string
	Detail    string
	Posted    int64
}

func (e Entry) Time() time.Time {
	return time.Unix(e.Posted, 0)
}

// Journal keeps a delivery history in sqlite, one row per lifecycle event.
// purely advisory, a nil journal is a valid no-op recorder and journal
// failures never abort queue operations.
type Journal struct {
	engine *xorm.Engine
}

// open the journal database, empty path disables journaling
func Open(path string) (j *Journal, err error) {
	if path == "" {
		return
	}
	var eng *xorm.Engine
	eng, err = xorm.NewEngine("sqlite3", path)
	if err == nil {
		j = &Journal{engine: eng}
		err = j.Ensure()
		if err != nil {
			j = nil
		}
	}
	return
}

// ensure schema migrations are done
func (j *Journal) Ensure() (err error) {
	if j != nil {
		err = j.engine.Sync(new(Entry))
	}
	return
}

// append one event row. best effort, errors are logged and swallowed.
func (j *Journal) Record(msgid, event, detail string) {
	if j == nil {
		return
	}
	_, err := j.engine.Insert(&Entry{
		MessageId: msgid,
		Event:     event,
		Detail:    detail,
		Posted:    time.Now().Unix(),
	})
	if err != nil {
		log.Errorf("journal insert failed: %s", err.Error())
	}
}

// most recent n entries, newest first
func (j *Journal) Tail(n int) (ents []Entry, err error) {
	if j != nil {
		err = j.engine.Desc("id").Limit(n).Find(&ents)
	}
	return
}

func (j *Journal) Close() (err error) {
	if j != nil {
		err = j.engine.Close()
	}
	return
}
