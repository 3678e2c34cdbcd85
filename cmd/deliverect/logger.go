package main

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
	"go.uber.org/zap"
)

var _ glog.Logger = (*zapLogger)(nil)

// zapLogger adapts a zap sugared logger to glog.Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newLogger(verbose bool) (*zapLogger, func(), error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return &zapLogger{sugar: base.Sugar()}, func() { _ = base.Sync() }, nil
}

func (l *zapLogger) Trace(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *zapLogger) Fatal(msg string, args ...any) { l.sugar.Fatalw(msg, args...) }

func (l *zapLogger) WithContext(context.Context) glog.Logger {
	return l
}
