package model

import "encoding/json"

// Message types exchanged on the parent<->child control channel.
// The channel carries newline-delimited JSON, one message per line.
// Unknown types must be ignored by both sides (forward compatibility).
const (
	MsgGetResults = "getResults"
	MsgResults    = "results"
	MsgReady      = "ready"
)

// EnvFlag marks the child as running in profiling mode. Application code may
// check it to skip real side effects during a profiled boot.
const EnvFlag = "BOOT_PROFILE"

// EnvCommandFD and EnvResultFD name the inherited file descriptors carrying
// the control channel in the child process: commands flow parent->child on
// the first, replies child->parent on the second.
const (
	EnvCommandFD = "BOOT_PROFILE_CMD_FD"
	EnvResultFD  = "BOOT_PROFILE_RESULT_FD"
)

// Message is the envelope for every control-channel message. Data is left
// raw so unknown payloads pass through undecoded.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`

	// BootTime accompanies the framework-originated ready message as a
	// [seconds, nanoseconds] pair.
	BootTime *[2]int64 `json:"bootTime,omitempty"`
}

// ResultsPayload is the data field of a results message: the raw maps
// collected by the in-process aggregator, before any graph or category
// processing happens in the parent.
type ResultsPayload struct {
	LoadTimes      map[string]float64            `json:"loadTimes"`
	Parents        map[string]string             `json:"parents"`
	ProviderPhases map[string]map[string]float64 `json:"providerPhases"`
}
