package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger is an immutable set of fields over a shared logrus logger. Every
// With* call returns a new Logger.
type Logger struct {
	base   *logrus.Logger
	fields logrus.Fields
}

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
	FatalLevel LogLevel = "fatal"
)

type Config struct {
	Level      LogLevel `json:"level"`
	Format     string   `json:"format"` // json, text
	Output     string   `json:"output"` // stdout, stderr, file path
	TimeFormat string   `json:"time_format"`
	Caller     bool     `json:"caller"`
	Colors     bool     `json:"colors"`
	AppName    string   `json:"app_name"`
	Version    string   `json:"version"`
}

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
)

func NewLogger(config *Config) (*Logger, error) {
	output, err := openOutput(config.Output)
	if err != nil {
		return nil, err
	}

	base := logrus.New()
	base.SetOutput(output)
	base.SetLevel(parseLevel(config.Level))
	base.SetReportCaller(config.Caller)

	switch config.Format {
	case "json":
		base.SetFormatter(&CustomJSONFormatter{
			TimestampFormat: config.TimeFormat,
			AppName:         config.AppName,
			Version:         config.Version,
		})
	default:
		base.SetFormatter(&CustomTextFormatter{
			TimestampFormat: config.TimeFormat,
			ForceColors:     config.Colors,
			DisableColors:   !config.Colors,
			AppName:         config.AppName,
		})
	}

	return &Logger{base: base, fields: logrus.Fields{}}, nil
}

// Nop discards everything.
func Nop() *Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Logger{base: base, fields: logrus.Fields{}}
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	return os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func parseLevel(level LogLevel) logrus.Level {
	parsed, err := logrus.ParseLevel(string(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

func (l *Logger) with(extra logrus.Fields) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &Logger{base: l.base, fields: merged}
}

func (l *Logger) entry() *logrus.Entry {
	return l.base.WithFields(l.fields)
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(logrus.Fields{key: value})
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(fields)
}

// WithContext adds the request and user ids stored by ContextWithRequestID and
// ContextWithUserID.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := logrus.Fields{}
	if userID, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		fields["user_id"] = userID.String()
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields["request_id"] = requestID
	}
	return l.with(fields)
}

func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err.Error())
}

func (l *Logger) WithUserID(userID uuid.UUID) *Logger {
	return l.WithField("user_id", userID.String())
}

func (l *Logger) WithRideID(rideID uuid.UUID) *Logger {
	return l.WithField("ride_id", rideID.String())
}

func (l *Logger) Debug(msg string) { l.entry().Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry().Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry().Warn(msg) }
func (l *Logger) Error(msg string) { l.entry().Error(msg) }
func (l *Logger) Fatal(msg string) { l.entry().Fatal(msg) }

func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

// LogRideEvent records a committed ride event.
func (l *Logger) LogRideEvent(rideID uuid.UUID, eventType string, details map[string]interface{}) {
	l.WithRideID(rideID).WithFields(details).with(logrus.Fields{
		"event_type": eventType,
		"type":       "ride_event",
	}).Info("Ride event committed")
}

func (l *Logger) LogAPIRequest(method, endpoint string, statusCode int, duration time.Duration, userID *uuid.UUID) {
	fields := logrus.Fields{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
		"type":        "api_request",
	}
	if userID != nil {
		fields["user_id"] = userID.String()
	}

	entry := l.with(fields)
	switch {
	case statusCode >= 500:
		entry.Error("API request failed")
	case statusCode >= 400:
		entry.Warn("API request rejected")
	default:
		entry.Info("API request processed")
	}
}

// LogSecurityEvent logs at error for high and critical severity, warn otherwise.
func (l *Logger) LogSecurityEvent(eventType string, severity string, details map[string]interface{}) {
	entry := l.WithFields(details).with(logrus.Fields{
		"event_type": eventType,
		"severity":   severity,
		"type":       "security_event",
	})

	if severity == "high" || severity == "critical" {
		entry.Error("Security event detected")
		return
	}
	entry.Warn("Security event detected")
}

func (l *Logger) SetOutput(output io.Writer) {
	l.base.SetOutput(output)
}

func (l *Logger) SetLevel(level LogLevel) {
	l.base.SetLevel(parseLevel(level))
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func ContextWithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
