// Package sip builds Submission Information Packages from source
// directories.
//
// A package is created under <destination>/SIPs/<basename> in five ordered
// steps: directory structure, bulk copy into objects/, fixity (a bag or a
// flat checksum manifest), permission normalization and format
// characterization. A failing step aborts the remaining steps of that
// package only.
package sip
