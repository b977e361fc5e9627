// Package logging construye el logger zap segun el entorno.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New devuelve un logger JSON en produccion y uno de consola en el resto de entornos.
// Un nivel invalido cae en info.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level.SetLevel(lvl)

	return cfg.Build()
}
