// File: utils/constants.go
package utils

import "time"

// HealthCheckInterval is how often StartHealthMonitor probes dependencies.
const HealthCheckInterval = 60 * time.Second

// MaxUploadBytes caps document and audio uploads.
const MaxUploadBytes = 32 << 20

// HistoryDisplayTurns is how many past messages go into an answer prompt.
const HistoryDisplayTurns = 6
