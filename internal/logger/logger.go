package logger

import "os"

// Logger is the logging contract shared by the pipeline, batch and
// transport layers. Fields carry free-form structured context.
type Logger interface {
	Debug(component, message string, fields map[string]interface{})
	Info(component, message string, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
}

// LevelFromEnv resolves the log level name from LOG_LEVEL, with
// DEBUG=1 as a shortcut for debug output.
func LevelFromEnv() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	if os.Getenv("DEBUG") == "1" {
		return "debug"
	}
	return "info"
}

// Nop discards all output. Used in tests.
type Nop struct{}

func NewNop() *Nop { return &Nop{} }

func (*Nop) Debug(string, string, map[string]interface{})   {}
func (*Nop) Info(string, string, map[string]interface{})    {}
func (*Nop) Warning(string, string, map[string]interface{}) {}
func (*Nop) Error(string, error, map[string]interface{})    {}
