// Package lifecycle holds shared start/stop constants.
package lifecycle

import "time"

// DefaultTimeout bounds a single OnStart/OnStop hook step.
const DefaultTimeout = 10 * time.Second
