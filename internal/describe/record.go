package describe

// LevelFile is the level of description of every package.
const LevelFile = "File"

// Header is the fixed column set of the description spreadsheet.
//
//nolint:gochecknoglobals // Schema constant
var Header = [...]string{
	"Parent ID",
	"Identifier",
	"Title",
	"Archive Creator",
	"Date expression",
	"Date start",
	"Date end",
	"Level of description",
	"Extent and medium",
	"Scope and content",
	"Arrangement (optional)",
	"Accession number",
	"Appraisal, destruction, and scheduling information (optional)",
	"Name access points (optional)",
	"Geographic access points (optional)",
	"Conditions governing access (optional)",
	"Conditions governing reproduction (optional)",
	"Language of material (optional)",
	"Physical characteristics & technical requirements affecting use (optional)",
	"Finding aids (optional)",
	"Related units of description (optional)",
	"Archival history (optional)",
	"Immediate source of acquisition or transfer (optional)",
	"Archivists' note (optional)",
	"General note (optional)",
	"Description status",
}

// Column positions of the populated fields.
const (
	colIdentifier = 1
	colDateExpr   = 4
	colDateStart  = 5
	colDateEnd    = 6
	colLevel      = 7
	colExtent     = 8
	colScope      = 9
)

// Record is one row of the description spreadsheet. Fields not held here
// are always emitted empty.
type Record struct {
	Identifier string    `json:"identifier" yaml:"identifier"`
	Dates      DateRange `json:"dates"      yaml:"dates"`
	Extent     string    `json:"extent"     yaml:"extent"`
	Scope      string    `json:"scope"      yaml:"scope"`
}

// Row renders the record in Header order.
func (r Record) Row() [len(Header)]string {
	var row [len(Header)]string

	row[colIdentifier] = r.Identifier
	row[colDateExpr] = r.Dates.Statement
	row[colDateStart] = r.Dates.Earliest
	row[colDateEnd] = r.Dates.Latest
	row[colLevel] = LevelFile
	row[colExtent] = r.Extent
	row[colScope] = r.Scope

	return row
}
