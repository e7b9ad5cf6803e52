// Package alog is a thin leveled wrapper over the standard library's log
// package, matching the plain log.Println/log.Fatal style used throughout
// cmd/atlasd and the atlas service packages.
package alog

import "log"

// Info logs an informational line.
func Info(v...any) {
	log.Println(append([]any{"INFO:"}, v...)...)
}

// Infof logs a formatted informational line.
func Infof(format string, v...any) {
	log.Printf("INFO: "+format, v...)
}

// Warn logs a warning line.
func Warn(v...any) {
	log.Println(append([]any{"WARN:"}, v...)...)
}

// Warnf logs a formatted warning line.
func Warnf(format string, v...any) {
	log.Printf("WARN: "+format, v...)
}

// Error logs an error line.
func Error(v...any) {
	log.Println(append([]any{"ERROR:"}, v...)...)
}

// Errorf logs a formatted error line.
func Errorf(format string, v...any) {
	log.Printf("ERROR: "+format, v...)
}
