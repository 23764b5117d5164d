// Package logs configures the process logger. The terminal belongs to the UI,
// so log output goes to a file under the log directory when file logging is
// enabled and nowhere at all otherwise.
package logs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup builds the application logger. With fileLogging enabled it writes to
// logs/<timestamp>_chat.log under dir and gzips log files left over from
// earlier runs; otherwise it returns a no-op logger. The returned func flushes
// and closes the sink.
func Setup(dir string, fileLogging, verbose bool) (*zap.Logger, func(), string, error) {
	if !fileLogging {
		return zap.NewNop(), func() {}, "", nil
	}
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, "", fmt.Errorf("create log dir: %w", err)
	}
	compressOldLogs(dir)

	path := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05")+"_chat.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, "", fmt.Errorf("open log file: %w", err)
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(f), level)
	logger := zap.New(core)

	closeFn := func() {
		_ = logger.Sync()
		_ = f.Close()
	}
	return logger, closeFn, path, nil
}

// Scope logs entry into a named section and returns a func that logs the exit
// with elapsed time. Meant for defer:
//
//	defer logs.Scope(logger, "start")()
func Scope(logger *zap.Logger, name string) func() {
	logger.Debug("enter " + name)
	start := time.Now()
	return func() {
		logger.Debug("exit "+name, zap.Duration("took", time.Since(start)))
	}
}

// compressOldLogs gzips plain .log files from previous runs so the directory
// does not grow without bound. Failures are ignored; housekeeping must never
// block startup.
func compressOldLogs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		if err := gzipFile(src); err == nil {
			_ = os.Remove(src)
		}
	}
}

func gzipFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
