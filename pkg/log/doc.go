/*
Package log provides structured logging for vordr using zerolog.

A single package-level Logger is configured once by Init and shared by every
package. Until Init runs the logger discards everything, which keeps library
use and tests quiet.

# Configuration

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: false,
		Output:     os.Stderr,
	})

Level filters messages below the threshold (debug, info, warn, error; warn
when unset or unknown). JSONOutput selects one JSON object per line instead of
the human-readable console writer. Output defaults to stderr because stdout
carries command results.

# Context Loggers

	logger := log.WithComponent("volume")
	logger.Info().Str("mountpoint", path).Msg("Volume created")

	vlog := log.WithVolume("postgres-data")
	vlog.Warn().Str("field", "labels").Msg("Stored labels are not valid JSON")

# Levels in Practice

  - Debug: each validation step of a lifecycle operation
  - Info: volume created or removed
  - Warn: lenient read paths that fell back to defaults
  - Error: partial failures left on disk or in the store
*/
package log
