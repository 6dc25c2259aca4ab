// Package urls centralizes documentation URLs referenced in user-facing
// output.
//
// Keeping the URLs in one place means troubleshooting hints across the
// CLI and the dashboard stay consistent when documentation pages move.
package urls
