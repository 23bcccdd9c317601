package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "tutoring"

// NewLogger builds JSON logs for production and colored console logs otherwise.
func NewLogger(env string) *zap.Logger {
	logger, err := buildLogger(env)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}

func buildLogger(env string) (*zap.Logger, error) {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "ts"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.OutputPaths = []string{"stdout"}
	config.InitialFields = map[string]any{
		"service": serviceName,
		"env":     env,
	}

	return config.Build()
}
