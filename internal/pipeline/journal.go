package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mgiraud/dockhand/internal/constants"
	"github.com/mgiraud/dockhand/internal/executor"
	"github.com/mgiraud/dockhand/internal/security"
)

// Journal receives the ordered stage record. Every record is logged with
// structured fields, appended to a local log file, and kept in memory so the
// whole run can be appended to the host's log after the pipeline finishes.
// Nothing that enters the journal may contain credentials; stages scrub
// before reporting.
type Journal struct {
	log   *logrus.Logger
	file  *os.File
	lines []string
}

// NewJournal creates a journal logging to stderr and appending to path.
// An empty path disables the local file.
func NewJournal(path string, verbose bool) (*Journal, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	j := &Journal{log: log}

	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		j.file = f
	}

	return j, nil
}

// Record logs a stage outcome and appends it to the audit trail.
func (j *Journal) Record(rec Record) {
	entry := j.log.WithFields(logrus.Fields{
		"stage":   rec.Stage,
		"status":  rec.Outcome.Status,
		"elapsed": rec.Elapsed.Round(time.Millisecond),
	})

	switch rec.Outcome.Status {
	case StatusFailed:
		entry.WithField("reason", rec.Outcome.Reason).Error("stage failed")
	case StatusSkipped:
		entry.WithField("reason", rec.Outcome.Reason).Info("stage skipped")
	default:
		entry.Info("stage succeeded")
	}

	for _, w := range rec.Outcome.Warnings {
		j.log.WithField("stage", rec.Stage).Warn(w)
	}

	j.append(formatRecord(rec))
}

// Debugf logs a verbose-only progress message.
func (j *Journal) Debugf(format string, args ...interface{}) {
	j.log.Debugf(format, args...)
}

func formatRecord(rec Record) string {
	line := fmt.Sprintf("%s stage=%s status=%s elapsed=%s",
		rec.StartedAt.UTC().Format(time.RFC3339),
		rec.Stage, rec.Outcome.Status, rec.Elapsed.Round(time.Millisecond))
	if rec.Outcome.Reason != "" {
		line += " reason=" + quoteIfSpaced(rec.Outcome.Reason)
	}
	for _, w := range rec.Outcome.Warnings {
		line += " warning=" + quoteIfSpaced(w)
	}
	return security.SanitizeURLForLog(line)
}

func quoteIfSpaced(s string) string {
	if strings.ContainsAny(s, " \t") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

func (j *Journal) append(line string) {
	j.lines = append(j.lines, line)
	if j.file != nil {
		fmt.Fprintln(j.file, line)
	}
}

// AppendRemote appends the accumulated record to the host's append-only log
// file. Best-effort: a host that cannot take the append never affects the
// pipeline result, so the caller ignores the returned error except to log it.
func (j *Journal) AppendRemote(ctx context.Context, runner executor.Runner) error {
	if len(j.lines) == 0 {
		return nil
	}
	body := strings.Join(j.lines, "\n") + "\n"
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	cmd := fmt.Sprintf("echo '%s' | base64 -d | sudo tee -a %s > /dev/null",
		encoded, security.ShellEscape(constants.RemoteLogFile))
	result, err := runner.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("remote log append failed (exit %d)", result.ExitCode)
	}
	return nil
}

// Close closes the local log file.
func (j *Journal) Close() error {
	if j.file != nil {
		return j.file.Close()
	}
	return nil
}
