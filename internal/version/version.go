package version

// Version is the build version string. Overridden at build time via
// -ldflags "-X github.com/muizather/pokemon/internal/version.Version=...".
var Version = "dev"
