package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named, sugared zap logger.
type Logger struct {
	*zap.SugaredLogger
}

var (
	root *Logger
	once sync.Once
)

// Init configures the process-wide logger. The first call wins; later calls
// are no-ops so that libraries may call GetLogger before main configures
// anything.
func Init(level, env string) {
	once.Do(func() {
		root = build(level, env)
	})
}

func build(level, env string) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var enc zapcore.Encoder
	if env == "production" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	lvl := zapcore.InfoLevel
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		lvl = parsed
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(lvl))
	return &Logger{zap.New(core, zap.AddCaller()).Sugar()}
}

// GetLogger returns a logger named after the calling component, e.g.
// "simulation.engine". Initializes the root logger with defaults if Init has
// not run yet.
func GetLogger(name string) *Logger {
	if root == nil {
		Init("info", "development")
	}
	return &Logger{root.Named(name)}
}

// With returns a logger with additional structured context.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{l.SugaredLogger.With(args...)}
}
