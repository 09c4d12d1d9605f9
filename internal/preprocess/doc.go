// Package preprocess converts raw LaTeX from academic papers into a
// canonical, engine-agnostic form that the CAS engines can parse.
//
// The pipeline has four ordered phases, and the order is load-bearing:
//
//  1. Strip math environment wrappers (equation, align, gather, multline,
//     eqnarray, \[ \], $$ and $ delimiters).
//  2. Strip typographical commands (\left, \right, sizing, spacing) and
//     extract the contents of font commands like \mathbf{...}.
//  3. Normalize synonym commands to canonical spellings (\dfrac to \frac,
//     \ge to \geq, \cdot and \times to *).
//  4. Collapse whitespace runs and remove redundant balanced outer braces.
//
// Preprocess is a pure function: it never fails, and applying it twice
// yields the same string as applying it once.
package preprocess
