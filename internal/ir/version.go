package ir

// EngineVersion is the decstore engine version.
const EngineVersion = "0.1.0"
