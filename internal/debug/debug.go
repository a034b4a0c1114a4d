package debug

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultLogFile = "/tmp/shopchat-debug.log"

var (
	mu      sync.Mutex
	logger  *logrus.Logger
	logPath = defaultLogFile
	logFile *os.File
)

// SetLogFile changes the file used by the logger, redirecting it if it already exists.
func SetLogFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	if path == "" || path == logPath {
		return
	}
	logPath = path
	if logger != nil {
		redirect()
	}
}

// redirect points the logger at logPath and closes the file it wrote to before.
// Callers hold mu.
func redirect() {
	previous := logFile
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		logFile = nil
		logger.SetOutput(io.Discard)
	} else {
		logFile = f
		logger.SetOutput(f)
	}
	if previous != nil {
		previous.Close()
	}
}

// GetLogger returns a singleton logrus logger instance.
// Output goes to a file so that it never corrupts the terminal UI.
func GetLogger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.SetLevel(logrus.DebugLevel)
		redirect()
	}
	return logger
}
