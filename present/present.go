// Package present defines a presenter for formatting values the application produces
// (schemas, default values, import listings) for displaying them.
package present

// Presenter formats a value for displaying it.
type Presenter interface {
	// Format receives a value v and returns the formatted output as string.
	Format(v interface{}) (string, error)
}
