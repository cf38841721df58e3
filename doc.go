// Package dmd identifies linear transition models for batches of
// density-matrix trajectories using dynamic mode decomposition.
//
// Given time-ordered trajectories ρ_0, ρ_1, ... the package fits the
// operator that best satisfies vec(ρ_{t+1}) ≈ T·vec(ρ_t) in the Frobenius
// norm over a delay-embedded representation of the data, and reports T
// through its dominant eigenvalues and biorthogonal left/right eigenvector
// pairs. Background on the method: https://arxiv.org/pdf/1312.0041.pdf.
package dmd
