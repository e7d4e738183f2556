package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts.
const (
	VerbosityUser  = 0 // No flags: diagnostics and written files only
	VerbosityInfo  = 1 // -v: + per-run progress and regeneration triggers
	VerbosityDebug = 2 // -vv: + per-directive completion and portrait lookups
)

// VerbosityToLevel maps -v counts to zap levels. Warnings always show;
// everything past -vv is debug.
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityUser:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// LevelName names a verbosity for log output
func LevelName(verbosity int) string {
	switch {
	case verbosity <= VerbosityUser:
		return "user"
	case verbosity == VerbosityInfo:
		return "info (-v)"
	default:
		return "debug (-vv)"
	}
}
