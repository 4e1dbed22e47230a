// Package pbxproj tokenizes and parses Xcode project manifests
// (project.pbxproj), the OpenStep property-list dialect Xcode writes.
//
// Two entry points serve different callers:
//
//   - ScanLine tokenizes a single line and reports its net delimiter delta
//     and, when the line opens an object definition, the object identifier.
//     Delimiters inside quoted strings and comments are ignored.
//   - Parse reads a whole manifest into a Project: the objects section as an
//     ordered index of identifier, isa, line span and referenced identifiers.
//
// The package never rewrites a manifest. Callers edit the original lines and
// use Parse only to inspect or validate them, which keeps untouched lines
// byte-identical.
package pbxproj
