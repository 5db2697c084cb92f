// Package hashcodec converts between URL hash fragments and the path, raw
// query and state triple the router works with.
//
// The wire format is
//
//	#<path>?<form-encoded-state>
//
// where <path> always has a single leading slash and no duplicate or
// trailing slashes. By default the state is written in a readable form that
// only escapes the characters that would break parsing (%, &, =, #, +) and
// control characters; Encode with uriEncode set produces fully escaped
// form encoding instead. Decode accepts both.
//
// Decoding never fails. Anything that is not a hash degrades to the root
// route "#/".
package hashcodec
