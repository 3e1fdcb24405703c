// Package build provides build-time metadata for the taskgen binary.
package build

// These values are injected at build time with -ldflags.
var (
	// Version is the release version of the binary (e.g. "v1.2.0").
	Version = "dev"

	// Commit is the git commit hash the binary was built from.
	Commit = ""

	// Date is the UTC timestamp of the build.
	Date = ""

	// ProjectName is the canonical name used in logs and telemetry.
	ProjectName = "taskgen"
)

// MinimumSupportedDatastoreSchemaRevision is the minimum schema revision
// the SQL datastores must be migrated to before this build will report
// itself ready.
const MinimumSupportedDatastoreSchemaRevision int64 = 2
