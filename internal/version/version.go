package version

// Version is the version of the argo-lab binary and of the config format it reads.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-strategy-lab/internal/version.Version=1.2.3"
// The value "main" indicates a development build.
var Version = "v0.4.0"

// GetVersion returns the current version.
func GetVersion() string {
	return Version
}
