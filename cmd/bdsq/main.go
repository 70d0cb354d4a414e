package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/majestrate/bdsq/lib/config"
	"github.com/majestrate/bdsq/lib/journal"
	"github.com/majestrate/bdsq/lib/lock"
	"github.com/majestrate/bdsq/lib/sendmail"
	"github.com/majestrate/bdsq/lib/spool"
)

type app struct {
	cfg    *config.Config
	spool  *spool.Spool
	mailer *sendmail.Mailer
	jrnl   *journal.Journal
}

// management command table, populated at process init.
// an unrecognized command falls back to help.
var commands map[string]func(*app)

func init() {
	commands = map[string]func(*app){
		"h": cmdHelp,
		"s": cmdSendAll,
		"l": cmdList,
	}
}

func cmdHelp(a *app) {
	fmt.Println(Version())
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  bdsq [mailer args...] < message   queue a message for delivery")
	fmt.Println("  bdsq --manage <command>           run a management command")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  h   print this help")
	fmt.Println("  s   send all queued mail now")
	fmt.Println("  l   list queued mail and recent delivery history")
}

func cmdSendAll(a *app) {
	// per message failures are logged only, a drain never fails the caller
	a.mailer.SendAll()
}

func cmdList(a *app) {
	ids, err := a.spool.List()
	if err != nil {
		log.Errorf("cannot list spool: %s", err.Error())
		return
	}
	fmt.Printf("%d queued\n", len(ids))
	for _, id := range ids {
		fmt.Println(" ", id)
	}
	ents, err := a.jrnl.Tail(20)
	if err != nil {
		log.Errorf("cannot read journal: %s", err.Error())
		return
	}
	if len(ents) > 0 {
		fmt.Println("history:")
		for _, ent := range ents {
			fmt.Printf("  %s %-12s %s %s\n", ent.Time().Format("2006-01-02 15:04:05"), ent.Event, ent.MessageId, ent.Detail)
		}
	}
}

// queue the message then hand delivery to a detached child process so the
// caller gets "accepted for delivery" semantics immediately. the child's
// outcome is observable only in the log.
func (a *app) submit(args []string) {
	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Errorf("failed to read message body: %s", err.Error())
		return
	}
	id, err := a.spool.Enqueue(args, string(body))
	if err != nil {
		log.Errorf("enqueue failed: %s", err.Error())
		return
	}
	a.jrnl.Record(id, journal.EvEnqueued, strings.Join(args, " "))
	exe, err := os.Executable()
	if err == nil {
		err = exec.Command(exe, "--manage", "s").Start()
	}
	if err != nil {
		log.Errorf("failed to spawn drain: %s", err.Error())
	}
}

func main() {
	log.SetLevel(log.InfoLevel)
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Errorf("bad config %s: %s", config.Path(), err.Error())
		cfg = config.Default()
	}
	os.MkdirAll(filepath.Dir(cfg.LogFile), 0700)
	if f, lerr := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); lerr == nil {
		defer f.Close()
		log.SetOutput(f)
	}

	lk := lock.New(cfg.LockFile, cfg.LockAttempts, cfg.Interval())
	sp := spool.New(cfg.SpoolDir, lk)
	if err = sp.Ensure(); err != nil {
		log.Errorf("cannot create spool %s: %s", cfg.SpoolDir, err.Error())
		return
	}
	if cfg.JournalDB != "" {
		os.MkdirAll(filepath.Dir(cfg.JournalDB), 0700)
	}
	jrnl, err := journal.Open(cfg.JournalDB)
	if err != nil {
		log.Errorf("cannot open journal %s: %s", cfg.JournalDB, err.Error())
	}
	defer jrnl.Close()

	a := &app{
		cfg:    cfg,
		spool:  sp,
		mailer: sendmail.NewMailer(cfg.Mailer, sp, jrnl),
		jrnl:   jrnl,
	}

	// exit status is 0 in every mode, failures live in the log
	args := os.Args[1:]
	if len(args) > 0 && args[0] == "--manage" {
		name := "h"
		if len(args) > 1 {
			name = args[1]
		}
		cmd, ok := commands[name]
		if !ok {
			cmd = cmdHelp
		}
		cmd(a)
	} else {
		a.submit(args)
	}
}
