package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger = zap.NewNop()

type Options struct {
	Filename string
	Level    string
	// Stdout also writes every entry to standard output.
	Stdout bool
}

func InitLogger(opts Options) error {
	level, err := zapcore.ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var syncers []zapcore.WriteSyncer
	if opts.Filename != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}))
	}
	if opts.Stdout || len(syncers) == 0 {
		syncers = append(syncers, zapcore.Lock(os.Stdout))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)

	Logger = zap.New(core, zap.AddCaller())
	return nil
}
