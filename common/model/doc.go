// Package model is the printer fleet domain model registry.
//
// Every entity and enumeration is reachable from this one import path, so
// adapters, storage and HTTP handlers never depend on where the underlying
// declarations live. The package also owns the boundary operations on that
// vocabulary: parsing untrusted enum strings, checking cross-field
// invariants, and converting wiki toner records into the canonical shape.
//
// Everything here is pure and safe for concurrent use.
package model
