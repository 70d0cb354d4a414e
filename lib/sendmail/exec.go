package sendmail

import (
	"bytes"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// delivery by handing the message to the mail transfer program as a
// subprocess, body on stdin, zero exit means delivered
type ExecDeliverJob struct {
	program string
	args    []string
	body    string
	result  chan bool
}

func NewExecDelivery(program string, args []string, body string) DeliverJob {
	return &ExecDeliverJob{
		program: program,
		args:    args,
		body:    body,
		result:  make(chan bool),
	}
}

// exec delivery is not cancelable, there is no timeout on the subprocess
// so a hung mailer holds whatever lock the caller is in until it exits
func (e *ExecDeliverJob) Cancel() {
}

// wait for completion
func (e *ExecDeliverJob) Wait() bool {
	return <-e.result
}

// run the mail transfer program
func (e *ExecDeliverJob) Run() {
	var stderr bytes.Buffer
	cmd := exec.Command(e.program, e.args...)
	cmd.Stdin = strings.NewReader(e.body)
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		log.Warnf("%s %s failed: %s", e.program, strings.Join(e.args, " "), err.Error())
		if stderr.Len() > 0 {
			log.Warnf("mailer said: %s", strings.TrimSpace(stderr.String()))
		}
	}
	e.result <- err == nil
}
