// Package describe turns finished packages into archival description
// records: extent and date statements computed from the object tree, and a
// scope note built from the package's format frequency report.
package describe
