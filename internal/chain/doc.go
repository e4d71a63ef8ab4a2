// Package chain builds reply chains: ordered records where every record after
// the first carries a reply link to the first record (root) and to the one
// immediately before it (parent).
//
// Building is strictly sequential. Record i+1 embeds the content identifier
// of record i, so identifiers are computed locally, from the same canonical
// bytes a verifier will hash, before anything is persisted.
//
// Each Build owns its own key cursor. A failed or cancelled build returns no
// partial chain; keys it consumed are simply skipped.
package chain
