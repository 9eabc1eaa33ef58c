// Package log wraps the standard logger with a debug level and an optional
// rotating log file.
package log

import (
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var debug bool

// SetDebug enables or disables Debugf output.
func SetDebug(enabled bool) {
	debug = enabled
}

// SetOutputFile sends all further output to a size-rotated log file.
// The returned closer must be closed before the process exits.
func SetOutputFile(path string) io.Closer {
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 2,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(lj)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	return lj
}

// Println calls the standard log.Println()
func Println(v ...interface{}) {
	log.Output(2, fmt.Sprintln(v...))
}

// Debugf calls the standard log.Printf() with a [DEBUG] prefix
func Debugf(format string, v ...interface{}) {
	if !debug {
		return
	}
	log.Output(2, "[DEBUG] "+fmt.Sprintf(format, v...))
}

// Fatal calls the standard log.Fatal()
func Fatal(v ...interface{}) {
	log.Output(2, fmt.Sprint(v...))
	os.Exit(1)
}
