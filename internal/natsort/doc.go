// Package natsort implements the natural (alphanumeric aware) ordering used everywhere node and group names are sorted.
//
// A name is split into alternating runs of text and decimal digits, "ab123cd" -> ["ab", 123, "cd"]. Digit runs compare by
// numeric value and text runs compare as strings, lower-cased unless case sensitivity is requested. Every segment is tagged
// with its kind, so a number is never compared against a string directly.
package natsort
