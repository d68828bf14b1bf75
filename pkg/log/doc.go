/*
Package log provides structured logging for graphstore using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Usage

Initializing the logger:

	import "github.com/cuemby/graphstore/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component loggers:

	barrierLog := log.WithComponent("barrier")
	barrierLog.Debug().Int("nodes", 3).Msg("barrier repaired state")

	syncLog := log.WithWorkspace(path).With().
		Uint64("bucket", bucket).Logger()
	syncLog.Info().Msg("workspace opened")

Context helpers:

  - WithComponent: tag logs with a subsystem name (barrier, sync, kv)
  - WithBucket: tag logs with the local replica's bucket id
  - WithWorkspace: tag logs with the backing store path
  - WithPeer: tag logs with the remote bucket id during a sync exchange

# Log levels

Debug is for barrier/sync internals (cascading deletions, action
counts); Info for lifecycle events (workspace opened/closed); Warn/Error
for recoverable and unrecoverable backing-store failures; Fatal is
reserved for the CLI's own startup path.

Never log atom or edge values directly — they are opaque caller payloads
that may carry sensitive data. Log ids, labels, and counts instead.
*/
package log
