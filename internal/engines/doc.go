// Package engines contains the concrete CAS back-ends: SymPy, Maxima,
// MATLAB, GAP, SageMath and the remote WolframAlpha oracle. Each engine
// converts preprocessed LaTeX to its native syntax, shells out through the
// subprocess executor (or HTTP for WolframAlpha), and maps tagged output
// back to the uniform result types in internal/engine.
package engines
