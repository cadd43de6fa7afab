package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRole is the structured log field key for the agent role.
	FieldRole = "ai_role"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldDocument names the source document being processed.
	FieldDocument = "document"
	// FieldDocumentHash is the content fingerprint of the source document.
	FieldDocumentHash = "document_hash"
	// FieldRunID identifies a single batch invocation.
	FieldRunID = "run_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to the logger, falling back to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// AgentFields returns the fields describing an agent. Empty values are skipped.
func AgentFields(role, provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRole, Value: role},
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithAgentFields attaches the agent fields to the provided logger.
func WithAgentFields(logger *zap.Logger, role, provider, model string) *zap.Logger {
	return WithFields(logger, AgentFields(role, provider, model)...)
}

// WithDocument tags log entries with the document being processed.
func WithDocument(logger *zap.Logger, path, hash string) *zap.Logger {
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return WithFields(logger, StringFields(
		StringField{Key: FieldDocument, Value: path},
		StringField{Key: FieldDocumentHash, Value: hash},
	)...)
}
