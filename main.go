// Command folderprocessor builds archival packages from directories of
// digital files and describes them in a spreadsheet.
package main

import (
	"context"
	"os"

	"github.com/idelchi/folderprocessor/internal/cli"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := cli.New(version).Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
