// Package prune removes target records from an Xcode project manifest.
//
// The package has three parts:
//
//   - Matchers (IdentifierMatcher, KeywordMatcher, AnyMatcher) select the
//     lines that belong to a target. Classify turns a match into a Verdict:
//     StartsBlock, StandaloneReference or Unrelated.
//   - Remove performs one forward scan with a nesting counter. Prune adds the
//     reference sweep: identifiers of removed records are removed from every
//     retained reference list, repeating until nothing new is removed.
//   - Verify scans a document for residual keywords (exact and case-folded)
//     and identifiers.
//
// # Matching Trade-offs
//
// Keyword matching is a substring test and over-matches: with keyword
// "Watch" a record named WatchlistView is removed too. Identifier matching is
// exact but misses any record whose identifier was not listed. ModeBoth
// combines them.
//
// # Failure Modes
//
// A matched block that never closes, or a matched line that closes a block
// it did not open, is a StructuralError. Nothing is truncated silently, and
// callers must not write output when Prune fails.
package prune
