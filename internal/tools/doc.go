// Package tools runs the external programs folderprocessor delegates to:
// rsync for bulk copy, bagit.py and md5deep for fixity, and brunnhilde.py
// for format characterization and PII scanning.
//
// Every invocation is an explicit argument list executed without a shell.
// Paths are passed as opaque arguments and are never interpolated into a
// command string.
package tools
