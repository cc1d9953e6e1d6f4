// Package registry provides a generic thread-safe registry with a
// setup-then-freeze lifecycle.
//
// The coordinator keeps its product engines here: engines are registered
// during initialisation, the registry is frozen on the first coordinated
// advance, and from then on any number of goroutines read it.
//
//	engines := registry.New[string, Engine]()
//	_ = engines.Register("patientsim", clinical)
//	engines.Freeze()
//
//	err := engines.Register("membersim", claims) // ErrFrozen
//
// Keys and Range visit entries in ascending key order so callers that
// iterate get a reproducible sequence.
package registry
