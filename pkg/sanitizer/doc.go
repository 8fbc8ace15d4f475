// Package sanitizer provides input normalization for untrusted form data.
//
// All functions are idempotent - applying them multiple times produces the
// same result. They never fail: invalid input collapses to an empty string
// or an empty slice, and validation decides what that means.
//
// Normalization includes:
//   - Strings: strip NUL bytes, trim leading/trailing whitespace
//   - Slices: normalize each item, drop empty values and duplicates
package sanitizer
