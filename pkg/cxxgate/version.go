package cxxgate

var (
	Version = "v0.0.0-in-progress"
)

// EngineVersion returns the semantic version populated at build time via
// ldflags. In development it defaults to v0.0.0-in-progress.
func EngineVersion() string {
	return Version
}
