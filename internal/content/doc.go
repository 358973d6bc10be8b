// Package content defines the canonical view models, snapshot aggregate, typed
// errors and collaborator interfaces shared by the fetcher, normalizer, sync
// orchestrator and cache store of the cityhall content service.
package content
