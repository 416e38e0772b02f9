// Package idgen produces the string identifiers used for stored records
// and uploaded objects.
package idgen

// Generator returns a new unique identifier.
type Generator interface {
	Generate() (string, error)
}
