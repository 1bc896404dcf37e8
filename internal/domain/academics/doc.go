// Package academics implements the academic metrics engine: attendance
// percentages and safe-zone classification, attendance projections,
// grade-point and letter conversion, credit-weighted GPA/CGPA aggregation,
// and what-if/target solving.
//
// Every function in this package is pure: callers supply in-memory
// collections and get plain values back. There is no data access, no
// clock, and no configuration beyond explicit arguments. Degenerate
// inputs (zero denominators, unresolvable subjects) produce the
// conventional zero/neutral value instead of an error; the two
// simulation loops are the only place where a guard (SimulationCap)
// replaces that policy, because they could otherwise diverge.
package academics
