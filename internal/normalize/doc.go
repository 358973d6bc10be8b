// Package normalize maps raw CMS entity payloads onto the canonical records
// defined in package content.
//
// A single-page payload carries its content type either as an entity
// reference (type.0.target_id) or as a flat string (type). Page dispatches on
// that discriminator to one of six parsers; anything else is an error value
// the cache store keeps for the URI.
package normalize
