package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Logger wraps slog.Logger with the helpers the back office logs through.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout.  LOG_LEVEL picks the level; the
// "dev" environment gets the text handler, everything else JSON.
func New(env string) *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(env, "dev") || strings.EqualFold(env, "development") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// Discard returns a logger that drops everything.  Tests use it.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds the request ID to the logger context.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("request_id", requestID))}
}

// WithError adds err to the logger context.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// LogHTTPRequest logs one served request.
func (l *Logger) LogHTTPRequest(c echo.Context, duration time.Duration) {
	req := c.Request()
	l.Logger.InfoContext(req.Context(),
		"HTTP Request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", c.Response().Status),
		slog.Duration("duration", duration),
		slog.String("ip", c.RealIP()),
		slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
}

// LogBookingCreated records an allocated booking number.
func (l *Logger) LogBookingCreated(ctx context.Context, bookingID, number, passType string, attempts int) {
	l.Logger.InfoContext(ctx,
		"Booking Created",
		slog.String("booking_id", bookingID),
		slog.String("booking_number", number),
		slog.String("pass_type", passType),
		slog.Int("attempts", attempts),
	)
}

// LogAllocationRetry is emitted when a booking number was taken between
// allocation and insert.
func (l *Logger) LogAllocationRetry(ctx context.Context, number string, attempt int) {
	l.Logger.WarnContext(ctx,
		"Booking number collision, retrying",
		slog.String("booking_number", number),
		slog.Int("attempt", attempt),
	)
}

// LogCheckIn records an accepted gate entry.
func (l *Logger) LogCheckIn(ctx context.Context, bookingID string, people, entered, total int, scannedBy string) {
	l.Logger.InfoContext(ctx,
		"Gate Check-in",
		slog.String("booking_id", bookingID),
		slog.Int("people", people),
		slog.Int("people_entered", entered),
		slog.Int("total_people", total),
		slog.String("scanned_by", scannedBy),
	)
}

// LogDispatch records a pass handed to the notification broker.
func (l *Logger) LogDispatch(ctx context.Context, bookingID, channel, recipient string, err error) {
	if err != nil {
		l.Logger.ErrorContext(ctx,
			"Pass Dispatch Failed",
			slog.String("booking_id", bookingID),
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Logger.InfoContext(ctx,
		"Pass Dispatched",
		slog.String("booking_id", bookingID),
		slog.String("channel", channel),
		slog.String("recipient", recipient),
	)
}
