package ir

// Version constants.
const (
	// SchemaVersion is the event log schema version.
	SchemaVersion = "1"

	// EngineVersion is the nodelog engine version.
	EngineVersion = "0.1.0"
)
