package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/majestrate/bdsq/lib/lock"
)

// environment override for the config file location
const EnvConfig = "BDSQ_CONFIG"

// Config is fixed at deployment, it is read from a toml file and never
// from the command line, the command line belongs to the mail transfer
// program's arguments.
type Config struct {
	// path to the mail transfer program
	Mailer string `toml:"mailer"`
	// directory holding queued messages and the lock marker
	SpoolDir string `toml:"spool_dir"`
	// append only diagnostic log
	LogFile string `toml:"log_file"`
	// lock marker path
	LockFile string `toml:"lock_file"`
	// delivery journal database, empty disables journaling
	JournalDB string `toml:"journal_db"`
	// lock acquire retry budget
	LockAttempts int `toml:"lock_attempts"`
	// wait between lock acquire attempts, duration string
	LockInterval string `toml:"lock_interval"`
}

// config file location, $BDSQ_CONFIG or ~/.bdsq/bdsq.toml
func Path() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".bdsq", "bdsq.toml")
}

func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".bdsq")
	return &Config{
		Mailer:       "/usr/bin/msmtp",
		SpoolDir:     filepath.Join(base, "spool"),
		LogFile:      filepath.Join(base, "bdsq.log"),
		LockFile:     filepath.Join(base, "spool", ".lock"),
		JournalDB:    filepath.Join(base, "journal.db"),
		LockAttempts: lock.DefaultAttempts,
		LockInterval: "1s",
	}
}

// load config from fname, a missing file yields the defaults so the tool
// works with no deployment step. unset options fall back per option, an
// unset lock file follows the spool dir rather than the stock default.
func Load(fname string) (c *Config, err error) {
	if _, serr := os.Stat(fname); os.IsNotExist(serr) {
		c = Default()
		return
	}
	c = new(Config)
	var md toml.MetaData
	md, err = toml.DecodeFile(fname, c)
	if err == nil {
		if c.JournalDB == "" && !md.IsDefined("journal_db") {
			// absent means default journal, explicit empty disables it
			c.JournalDB = Default().JournalDB
		}
		c.fixup()
	}
	return
}

func (c *Config) fixup() {
	d := Default()
	if c.Mailer == "" {
		c.Mailer = d.Mailer
	}
	if c.SpoolDir == "" {
		c.SpoolDir = d.SpoolDir
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
	if c.LockFile == "" {
		c.LockFile = filepath.Join(c.SpoolDir, ".lock")
	}
	if c.LockAttempts <= 0 {
		c.LockAttempts = lock.DefaultAttempts
	}
	if c.LockInterval == "" {
		c.LockInterval = "1s"
	}
}

// parsed lock retry interval
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.LockInterval)
	if err != nil || d <= 0 {
		d = lock.DefaultInterval
	}
	return d
}
