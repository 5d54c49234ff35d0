// Package types declares the printer fleet domain vocabulary: entities,
// closed enumerations and the errors raised when untrusted values do not fit
// them. Consumers import these through the model package rather than
// directly.
package types
