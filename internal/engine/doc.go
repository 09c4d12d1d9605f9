// Package engine defines the uniform contract every CAS back-end satisfies:
// the Engine interface, the capability set, validate/compute request and
// result shapes, the Template descriptor, and the compute pre-amble shared
// by all implementations (availability, template lookup, required inputs,
// input guard, timeout clamp).
//
// Capability polymorphism is flat: each engine declares its concrete
// capability set, the dispatcher selects by set membership, and the
// embeddable Base supplies NOT_IMPLEMENTED fall-throughs for operations an
// engine does not support.
package engine
