package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// NewLogger builds the process logger from the log section.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// newGormLogger writes gorm's warnings, errors and slow queries to logger at warn level.
func newGormLogger(logger *zap.Logger) gormlogger.Interface {
	writer, err := zap.NewStdLogAt(logger.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		writer = zap.NewStdLog(logger.Named("gorm"))
	}
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}
