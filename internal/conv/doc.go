// Package conv collects tiny helper functions that are not part of the public API
// but aid internal conversions.
//
// It coerces decoded JSON values (float64, json.Number, numeric strings) into plain
// Go numbers.
package conv
