// Package guard implements the per-engine input safety predicate.
//
// Every element of a compute request's inputs map is checked against the
// target engine's Rules before any code generation happens. A value is
// rejected when it is empty, exceeds the engine's length limit, contains a
// null byte (or, for script-generating engines, an embedded newline or
// statement separator), or matches the engine's dangerous-construct
// vocabulary: host command execution, process spawning, file I/O,
// environment access, dynamic evaluation, reflective access and import
// machinery.
//
// The guard runs before generation by construction, which is what makes
// invariant "no subprocess is spawned for a blocked input" cheap to uphold.
package guard
