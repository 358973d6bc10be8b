// Package cmd defines the CLI commands for the cityhall executable.
//
// Architecture overview:
//   - Sync: internal/syncer fans out over every CMS feed (homepage, landing
//     pages, redirects, kiosk, global elements, menus and the seven listing
//     collections), joins the results and publishes one snapshot into
//     internal/store. A failed sync publishes nothing.
//   - Pages: single-page lookups go through internal/store, which fetches,
//     normalizes (internal/normalize) and caches the record or its error.
//     Staging source mode refetches on every request.
//   - HTTP: internal/api exposes the snapshot, filtered listings, the
//     calendar grid and the news feed as JSON for the rendering layer.
//
// Quick checklist:
//   - Configure CC_API_URL (required), CC_API_SOURCE or CC_CONTENT_SOURCE,
//     CC_SYNC_INTERVAL_MINUTES or CC_API_SYNC_INTERVAL, CC_RSS_URL or CC_RSS,
//     CC_TWITTER_BEARER_TOKEN, and PORT.
//   - Run locally: go run . serve --config config.yaml
//   - One-shot check of the CMS: go run . sync
package cmd
