package logger

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLogLevel = zerolog.InfoLevel

// defaultHexDumpLimit bounds the number of PDU bytes included in hex dumps
// until SetHexDumpLimit is called.
const defaultHexDumpLimit = 128

type Logger struct {
	logger   *zerolog.Logger
	hexLimit int
}

func InitLogger(level string, fields map[string]string) *Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: true,
		FormatLevel: func(i any) string {
			level := strings.ToUpper(fmt.Sprintf("%s", i))
			switch level {
			case "DEBUG":
				return "\033[36m" + level + "\033[0m" // Cyan
			case "INFO":
				return "\033[32m" + level + "\033[0m" // Green
			case "WARN":
				return "\033[33m" + level + "\033[0m" // Yellow
			case "ERROR":
				return "\033[31m" + level + "\033[0m" // Red
			case "FATAL":
				return "\033[35m" + level + "\033[0m" // Magenta
			default:
				return level
			}
		},
	}
	entry := zerolog.New(consoleWriter).With().Timestamp().Logger()
	logger := &Logger{logger: &entry, hexLimit: defaultHexDumpLimit}

	if fields == nil {
		return logger
	}

	withFields := entry.With().Fields(fields).Logger()
	logger.logger = &withFields
	return logger
}

func ParseLogLevel(level string) {
	var logLevel zerolog.Level
	var err error

	if len(level) > 0 {
		if logLevel, err = zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			log.Error().Err(err).Msg("Failed to parse log level -> set InfoLevel")
			zerolog.SetGlobalLevel(DefaultLogLevel)
		} else {
			zerolog.SetGlobalLevel(logLevel)
		}
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.logger.Info().Msgf(fmt.Sprintf("%-50s\t", format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.logger.Warn().Msgf(fmt.Sprintf("%-50s\t", format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.logger.Error().Msgf(fmt.Sprintf("%-50s\t", format), args...)
}

func (l *Logger) Fatal(format string, args ...any) {
	l.logger.Fatal().Msgf(fmt.Sprintf("%-50s\t", format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.logger.Debug().Msgf(fmt.Sprintf("%-50s\t", format), args...)
}

// SetHexDumpLimit bounds the number of PDU bytes included in this logger's
// hex dumps. A negative limit disables truncation.
func (l *Logger) SetHexDumpLimit(limit int) {
	l.hexLimit = limit
}

func (l *Logger) truncatePdu(pdu []byte) []byte {
	if l.hexLimit >= 0 && len(pdu) > l.hexLimit {
		return pdu[:l.hexLimit]
	}
	return pdu
}

// Hex logs at debug level with a bounded hex dump of the PDU attached.
func (l *Logger) Hex(pdu []byte, format string, args ...any) {
	l.logger.Debug().
		Str("pdu", hex.EncodeToString(l.truncatePdu(pdu))).
		Msgf(fmt.Sprintf("%-50s\t", format), args...)
}
