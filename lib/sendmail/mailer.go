package sendmail

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/majestrate/bdsq/lib/journal"
	"github.com/majestrate/bdsq/lib/spool"
)

// the mail transfer program said no
type SendError struct {
	Id string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send failed for %s", e.Id)
}

// Mailer drains the spool through the mail transfer program
type Mailer struct {
	// path to the mail transfer program
	Program string
	// spool to drain
	Spool *spool.Spool
	// optional delivery journal, nil disables it
	Journal *journal.Journal
}

func NewMailer(program string, sp *spool.Spool, j *journal.Journal) *Mailer {
	return &Mailer{
		Program: program,
		Spool:   sp,
		Journal: j,
	}
}

// attempt delivery of one queued message. the whole transaction, read the
// record, run the mail transfer program, delete on success, is one spool
// lock critical section, so a slow send blocks all other spool access for
// its duration. on failure the entry stays queued.
func (m *Mailer) SendOne(id string) (err error) {
	err = m.Spool.Lock().With(func() error {
		msg, e := m.Spool.Read(id)
		if e != nil {
			return e
		}
		job := NewExecDelivery(m.Program, msg.Args, msg.Body)
		go job.Run()
		if !job.Wait() {
			return &SendError{Id: id}
		}
		return m.Spool.Remove(id)
	})
	if err == nil {
		log.Infof("sent %s", id)
		m.Journal.Record(id, journal.EvSent, "")
	} else {
		log.Errorf("send %s: %s", id, err.Error())
		m.Journal.Record(id, journal.EvSendFailed, err.Error())
	}
	return
}

// attempt delivery of every currently queued message, in spool listing
// order, stopping the whole batch on the first failure. entries after the
// failing one stay queued, as does anything enqueued mid drain.
func (m *Mailer) SendAll() (err error) {
	var ids []string
	ids, err = m.Spool.List()
	if err != nil {
		log.Errorf("drain: cannot list spool: %s", err.Error())
		return
	}
	log.Infof("drain started, %d queued", len(ids))
	m.Journal.Record("", journal.EvDrainStart, fmt.Sprintf("%d queued", len(ids)))
	for _, id := range ids {
		err = m.SendOne(id)
		if err != nil {
			log.Warnf("drain stopped early at %s", id)
			m.Journal.Record(id, journal.EvDrainStop, "stopped early")
			return
		}
	}
	log.Infof("drain finished")
	m.Journal.Record("", journal.EvDrainStop, "finished")
	return
}
