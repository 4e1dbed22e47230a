// Package journal records prune runs in a SQLite database.
//
// Each run stores the digests of the manifest before and after removal,
// the removed spans, the verification outcome, and the original content
// compressed with xz so a run can be restored later.
//
// Digests are BLAKE3 with domain separation: BLAKE3(domain + 0x00 + data),
// hex encoded. The domain carries a version suffix so the scheme can change
// without ambiguity.
package journal
