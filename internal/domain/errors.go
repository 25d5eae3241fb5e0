package domain

import "errors"

var (
	// ErrLookup marks a per-user profile lookup failure. It is absorbed by
	// the enricher and degrades the profile to unresolved.
	ErrLookup = errors.New("user lookup failed")

	// ErrIntegrity marks an event referencing a user id missing from the
	// enriched mapping. Fatal: the enricher contract was violated.
	ErrIntegrity = errors.New("event references unresolved user id")

	// ErrArtifactBuild marks a failure while rendering or validating the
	// report artifact. Fatal: the run is incomplete without a valid artifact.
	ErrArtifactBuild = errors.New("artifact build failed")

	// ErrPublish marks a transport, auth, or quota failure at the publish
	// boundary. The computed artifact survives for retry.
	ErrPublish = errors.New("publish failed")
)
