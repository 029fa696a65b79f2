// Package fingerprint hashes the interactive shape of a page.
//
// A fingerprint covers only the kind and selector of each element. Text,
// attribute values other than those baked into selectors, and element order
// do not affect it, so two pages rendering the same controls with different
// content collapse to one fingerprint.
package fingerprint
