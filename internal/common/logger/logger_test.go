package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestZapAdapter_FieldsAndChildren(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := log.WithFields(map[string]interface{}{"component": "store"})
	child.Info("partner added", map[string]interface{}{"partnerId": "p-1"})
	child.WithError(errors.New("boom")).Error("analysis failed", nil)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		first := entries[0].ContextMap()
		assert.Equal(t, "store", first["component"])
		assert.Equal(t, "p-1", first["partnerId"])

		second := entries[1].ContextMap()
		assert.Equal(t, "boom", second["error"])
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	}
}

func TestToZapFields_ErrorValues(t *testing.T) {
	fields := toZapFields(map[string]interface{}{"cause": errors.New("timeout")})
	if assert.Len(t, fields, 1) {
		assert.Equal(t, "cause", fields[0].Key)
		assert.Equal(t, zapcore.ErrorType, fields[0].Type)
	}
	assert.Nil(t, toZapFields(nil))
}

func TestNewStructured_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		l := NewStructured("debug", "json", "stderr")
		l.Debug("hello", nil)
		NewNoOpLogger().Warn("ignored", map[string]interface{}{"k": 1})
	})
}
