// Package qualityprofile copies the built-in quality profiles into new organizations.
//
// Built-in profiles are declared in a Registry, usually loaded from YAML with
// LoadRegistry, and backed by a built-in rules profile row. Cloning creates one
// organization profile per built-in and one default per language.
package qualityprofile
