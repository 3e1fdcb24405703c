// Package iped generates Individual Parameter Estimation Design (IPED)
// task matrices: for each respondent in a study, an ordered sequence of
// tasks, each showing a subset of the study's elements.
//
// Generation runs in four stages. A candidate pool enumerates, or for
// large combination spaces samples, every admissible on/off vector for
// the configured active-count range. A balance scheduler draws one
// sequence per respondent, greedily keeping per-element exposure counts
// close to their mean both study-wide and within each respondent. An
// assembler attaches stable task identifiers, and a validator re-checks
// the finished matrix, allowing one automatic regeneration over an
// enlarged pool. The sequential default is deterministic: the same
// parameters and seed yield a byte-identical matrix.
package iped
