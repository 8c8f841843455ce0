package sip

import "path/filepath"

// Directory and file names of a package.
const (
	SIPsDir                 = "SIPs"
	ObjectsDir              = "objects"
	MetadataDir             = "metadata"
	SubmissionDocumentation = "submissionDocumentation"
	BagDataDir              = "data"
	ChecksumFile            = "checksum.md5"
	ReportSuffix            = "_brunnhilde"
	FormatReportDir         = "csv_reports"
	FormatReportFile        = "formats.csv"
)

// Layout resolves the paths of one package. In bag mode the objects and
// metadata directories end up nested under data/.
type Layout struct {
	// Root is the package root, <destination>/SIPs/<Name>.
	Root string
	// Name is the package name, the basename of its source directory.
	Name string
	// Bag reports whether the package is bagged.
	Bag bool
}

// NewLayout returns the layout of package name inside sipsDir.
func NewLayout(sipsDir, name string, bag bool) Layout {
	return Layout{Root: filepath.Join(sipsDir, name), Name: name, Bag: bag}
}

// content returns the directory holding objects/ and metadata/ once the
// package is complete.
func (l Layout) content() string {
	if l.Bag {
		return filepath.Join(l.Root, BagDataDir)
	}

	return l.Root
}

// StagingObjects is where content is copied before fixity is applied.
func (l Layout) StagingObjects() string {
	return filepath.Join(l.Root, ObjectsDir)
}

// StagingMetadata is the metadata directory before fixity is applied.
func (l Layout) StagingMetadata() string {
	return filepath.Join(l.Root, MetadataDir)
}

// Objects is the final location of the object tree.
func (l Layout) Objects() string {
	return filepath.Join(l.content(), ObjectsDir)
}

// Metadata is the final location of the metadata directory.
func (l Layout) Metadata() string {
	return filepath.Join(l.content(), MetadataDir)
}

// Checksums is the flat manifest written in manifest mode.
func (l Layout) Checksums() string {
	return filepath.Join(l.StagingMetadata(), ChecksumFile)
}

// SubmissionDocumentation receives the characterization report.
func (l Layout) SubmissionDocumentation() string {
	return filepath.Join(l.Metadata(), SubmissionDocumentation)
}

// ReportName is the name given to the characterization report.
func (l Layout) ReportName() string {
	return l.Name + ReportSuffix
}

// FormatReport is the format frequency report produced by characterization.
func (l Layout) FormatReport() string {
	return filepath.Join(l.SubmissionDocumentation(), l.ReportName(), FormatReportDir, FormatReportFile)
}
