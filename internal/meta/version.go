package meta

// VersionSHA is a build-time injected variable describing the Git commit SHA at which timeexec was
// built. It identifies the release in error reports and in the --version output.
var VersionSHA string

// Version returns VersionSHA, or "dev" for builds without an injected SHA.
func Version() string {
	if VersionSHA == "" {
		return "dev"
	}

	return VersionSHA
}
