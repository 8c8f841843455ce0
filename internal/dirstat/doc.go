// Package dirstat collects statistics for an object tree.
//
// It walks directory trees using fastwalk for parallel traversal and
// aggregates the number of regular files, their cumulative size and the
// modification timestamp of every file. Symbolic links are never followed
// and never counted.
package dirstat
