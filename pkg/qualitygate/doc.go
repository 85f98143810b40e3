// Package qualitygate links the built-in quality gate to organizations.
package qualitygate
