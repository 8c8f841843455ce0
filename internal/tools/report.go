package tools

import "context"

// Brunnhilde characterizes a tree with brunnhilde.py, optionally running a
// bulk_extractor PII scan.
type Brunnhilde struct {
	Runner Runner
	Binary string
}

// Report characterizes objects and writes the report named name under outDir.
func (b Brunnhilde) Report(ctx context.Context, objects, outDir, name string, piiScan bool) error {
	flags := "-zw"
	if piiScan {
		flags = "-zbw"
	}

	return b.Runner.Run(ctx, Command{
		Name: b.Binary,
		Args: []string{flags, objects, outDir, name},
	})
}
