package ingress

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/hakim/examkit/internal/failure"
	"github.com/hakim/examkit/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Tracker persists the PIDs of launched servers
type Tracker interface {
	SaveIngress(rec models.IngressRecord) error
	ListIngress() ([]models.IngressRecord, error)
	DeleteIngress(pid int) error
}

// ErrPortInUse means something already listens on the ingress port, usually a server
// left running by an earlier deployment
var ErrPortInUse = errors.New("ingress port already in use")

// Launcher starts detached ingress servers by re-executing the current binary and
// stops them again during cleanup.
type Launcher struct {
	tracker    Tracker
	exe        string
	bind       string
	configPath string
	log        logrus.FieldLogger

	// overridable in tests
	procfs   afero.Fs
	signal   func(pid int, sig syscall.Signal) error
	spawn    func(cmd *exec.Cmd) (int, error)
	portFree func(addr string) error
	ready    func(addr string) error
	self     int
}

// NewLauncher builds a launcher that runs exe with the hidden "ingress serve" subcommand.
// configPath, when set, is handed to the child with --config.
func NewLauncher(tracker Tracker, exe, bind, configPath string, log logrus.FieldLogger) *Launcher {
	return &Launcher{
		tracker:    tracker,
		exe:        exe,
		bind:       bind,
		configPath: configPath,
		log:        log,
		procfs:     afero.NewOsFs(),
		signal:     syscall.Kill,
		spawn:      spawnDetached,
		portFree:   checkPortFree,
		ready:      waitListening,
		self:       os.Getpid(),
	}
}

func spawnDetached(cmd *exec.Cmd) (int, error) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	return pid, cmd.Process.Release()
}

func checkPortFree(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPortInUse, addr, err)
	}
	return ln.Close()
}

const (
	readyTimeout = 2 * time.Second
	readyPoll    = 100 * time.Millisecond
)

// waitListening dials addr until the child accepts connections or readyTimeout passes
func waitListening(addr string) error {
	deadline := time.Now().Add(readyTimeout)
	for {
		conn, err := net.DialTimeout("tcp", dialAddr(addr), readyPoll)
		if err == nil {
			return conn.Close()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("ingress server not listening on %s: %w", addr, err)
		}
		time.Sleep(readyPoll)
	}
}

// dialAddr maps a wildcard bind address to loopback
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

// Start launches a server for dir on port and records its PID. It fails with
// ErrPortInUse when the port is taken, and untracks and stops a child that never
// starts listening.
func (l *Launcher) Start(dir string, port int) (int, error) {
	addr := net.JoinHostPort(l.bind, strconv.Itoa(port))
	if err := l.portFree(addr); err != nil {
		return 0, failure.E(failure.ProcessSignal, "start ingress", err)
	}

	args := []string{"ingress", "serve", "--dir", dir, "--addr", addr}
	if l.configPath != "" {
		args = append(args, "--config", l.configPath)
	}
	cmd := exec.Command(l.exe, args...)

	pid, err := l.spawn(cmd)
	if err != nil {
		return 0, failure.E(failure.ProcessSignal, "start ingress", err)
	}

	if err := l.ready(addr); err != nil {
		if serr := l.signal(pid, syscall.SIGTERM); serr != nil && !errors.Is(serr, syscall.ESRCH) {
			l.log.WithError(serr).WithField("pid", pid).Warn("could not stop unresponsive ingress")
		}
		return 0, failure.E(failure.ProcessSignal, "start ingress", err)
	}

	rec := models.IngressRecord{PID: pid, Port: port, Dir: dir, StartedAt: time.Now().UTC()}
	if err := l.tracker.SaveIngress(rec); err != nil {
		l.log.WithError(err).WithField("pid", pid).Warn("ingress started but not tracked")
	}
	l.log.WithFields(logrus.Fields{"pid": pid, "addr": addr, "dir": dir}).Info("ingress launched")
	return pid, nil
}

// StopReport lists what StopAll signalled
type StopReport struct {
	Stopped []int
	Failed  map[int]error
}

// Err joins every signalling failure
func (r *StopReport) Err() error {
	var errs []error
	for pid, err := range r.Failed {
		errs = append(errs, fmt.Errorf("pid %d: %w", pid, err))
	}
	return errors.Join(errs...)
}

// StopAll terminates tracked servers, then any untracked process whose command line
// carries the ingress signature. Finding nothing to stop is not an error.
func (l *Launcher) StopAll() (*StopReport, error) {
	report := &StopReport{Failed: map[int]error{}}
	seen := map[int]bool{}

	tracked, err := l.tracker.ListIngress()
	if err != nil {
		return report, fmt.Errorf("listing tracked ingress servers: %w", err)
	}
	for _, rec := range tracked {
		seen[rec.PID] = true
		if l.isIngress(rec.PID) {
			l.terminate(rec.PID, report)
		} else {
			l.log.WithField("pid", rec.PID).Debug("tracked pid is no longer an ingress server")
		}
		if err := l.tracker.DeleteIngress(rec.PID); err != nil {
			l.log.WithError(err).WithField("pid", rec.PID).Warn("could not forget ingress record")
		}
	}

	stray, err := l.scan()
	if err != nil {
		l.log.WithError(err).Debug("process table scan failed")
	}
	for _, pid := range stray {
		if !seen[pid] {
			l.terminate(pid, report)
		}
	}

	if len(report.Stopped) == 0 && len(report.Failed) == 0 {
		l.log.Info("no ingress server found")
	}
	return report, nil
}

func (l *Launcher) terminate(pid int, report *StopReport) {
	err := l.signal(pid, syscall.SIGTERM)
	switch {
	case err == nil:
		report.Stopped = append(report.Stopped, pid)
		l.log.WithField("pid", pid).Info("ingress stopped")
	case errors.Is(err, syscall.ESRCH):
		l.log.WithField("pid", pid).Debug("ingress already gone")
	default:
		report.Failed[pid] = failure.E(failure.ProcessSignal, "stop ingress", err)
	}
}
