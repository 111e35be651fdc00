package log

import (
	"os"

	"github.com/rs/zerolog"
)

// ZerologFactory creates Logger instances backed by a shared
// github.com/rs/zerolog logger writing to the given destination.
type ZerologFactory struct {
	base zerolog.Logger
}

var _ Factory = (*ZerologFactory)(nil)

// NewZerologFactory builds a ZerologFactory writing JSON lines to w, or to
// stderr if w is nil.
func NewZerologFactory(w *os.File) *ZerologFactory {
	if w == nil {
		w = os.Stderr
	}
	return &ZerologFactory{base: zerolog.New(w).With().Timestamp().Logger()}
}

// New implements Factory.
func (f *ZerologFactory) New() Logger {
	evt := f.base.With().Logger()
	return &zerologLogger{logger: evt}
}

type zerologLogger struct {
	logger zerolog.Logger
	ctx    zerolog.Context
	hasCtx bool
}

var _ Logger = (*zerologLogger)(nil)

func (z *zerologLogger) clone() *zerologLogger {
	return &zerologLogger{logger: z.logger, ctx: z.ctx, hasCtx: z.hasCtx}
}

func (z *zerologLogger) Level(lvl LoggerLevel) Logger {
	n := z.clone()
	n.logger = n.logger.Level(toZerologLevel(lvl))
	return n
}

func (z *zerologLogger) Field(k string, v any) Logger {
	n := z.clone()
	n.logger = n.logger.With().Interface(k, v).Logger()
	return n
}

func (z *zerologLogger) Fields(data map[string]any) Logger {
	n := z.clone()
	n.logger = n.logger.With().Fields(data).Logger()
	return n
}

func (z *zerologLogger) Error(err error) Logger {
	n := z.clone()
	n.logger = n.logger.With().Err(err).Logger()
	return n
}

func (z *zerologLogger) Message(msg string) {
	z.logger.Log().Msg(msg)
}

func (z *zerologLogger) Messagef(format string, v ...any) {
	z.logger.Log().Msgf(format, v...)
}

func toZerologLevel(lvl LoggerLevel) zerolog.Level {
	switch lvl {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.NoLevel
	}
}
