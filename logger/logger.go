package logger

import (
	"io"
	"log"
	"os"
)

// New returns the board logger. An empty path logs to stdout, anything
// else is opened in append mode.
func New(path string) *log.Logger {
	if len(path) == 0 {
		return log.New(os.Stdout, "ALTOS ", log.Ldate|log.Ltime|log.Lshortfile)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		log.Fatal(err)
	}
	l := log.New(f, "ALTOS ", log.Ldate|log.Ltime|log.Lshortfile)
	l.Printf("Initializing %s", path)
	return l
}

// Discard returns a logger that drops everything. Used by tests and by the
// gui front end when no log file is given, so log lines don't tear the screen.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
