package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/telebrief/telebrief/pkg/interfaces"
)

type ColorLogger struct {
	mu       sync.Mutex
	filePath string
}

// NewLogger returns a console logger. If filePath is non-empty every line is
// also appended there, uncolored.
func NewLogger(filePath string) interfaces.Logger {
	return &ColorLogger{filePath: filePath}
}

func (l *ColorLogger) log(level, message string, colorFunc func(...interface{}) string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Printf("%s %s %s\n", timestamp, colorFunc(level), message)

	if l.filePath == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s %s %s\n", timestamp, level, message)
}

func (l *ColorLogger) Info(message string) {
	l.log("INFO", message, color.New(color.FgGreen).SprintFunc())
}

func (l *ColorLogger) Error(message string) {
	l.log("ERROR", message, color.New(color.FgRed).SprintFunc())
}

func (l *ColorLogger) Warn(message string) {
	l.log("WARN", message, color.New(color.FgYellow).SprintFunc())
}

func (l *ColorLogger) Debug(message string) {
	l.log("DEBUG", message, color.New(color.FgCyan).SprintFunc())
}
