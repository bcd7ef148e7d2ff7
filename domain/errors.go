package domain

import "errors"

// Sentinel errors for the per-repository pipeline. The orchestrator matches
// them with errors.Is to decide between skipped and failed outcomes; none of
// them ever aborts the overall run.
var (
	// ErrVersionNotDetected means the build descriptor carries no recognizable
	// sourceCompatibility declaration. The repository is skipped.
	ErrVersionNotDetected = errors.New("java version not detected")

	// ErrUnsupportedVersion means the declared Java version predates the
	// oldest supported build image. The repository is skipped.
	ErrUnsupportedVersion = errors.New("unsupported java version")

	// ErrRewriteTargetMissing means the existing CI config has no image
	// reference to rewrite. The repository is reported as failed because the
	// file is malformed, not merely out of date.
	ErrRewriteTargetMissing = errors.New("ci config has no image reference")

	// ErrSyncAuthFailed means the remote rejected our credentials. Reported
	// separately from transport failures so the operator is pointed at the
	// token rather than the network.
	ErrSyncAuthFailed = errors.New("authentication against remote failed")

	// ErrSyncUnavailable means the remote could not be reached or the
	// transfer failed for non-auth reasons.
	ErrSyncUnavailable = errors.New("remote unavailable")

	// ErrPublishConflict means the remote branch advanced while we were
	// publishing and the push was rejected. The tool never force-pushes.
	ErrPublishConflict = errors.New("push rejected, remote branch advanced")
)
