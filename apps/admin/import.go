package main

import (
	"context"
	"fmt"
	"os"

	rostersvc "github.com/trezcool/alama/services/roster"
)

// importStudents creates the students of a workbook. Rows that fail are listed, the others are kept.
func (cli *commandLine) importStudents(path string) error {
	ctx := context.Background()
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	scope, err := cli.scope(ctx)
	if err != nil {
		return err
	}
	report, err := rostersvc.Import(ctx, scope, f)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "%d created, %d failed\n", len(report.Created), len(report.Failed))
	for _, rowErr := range report.Failed {
		fmt.Fprintf(cli.out, "  line %d: %s\n", rowErr.Line, rowErr.Error)
		for _, fld := range rowErr.Fields {
			fmt.Fprintf(cli.out, "    %s: %s\n", fld.Field, fld.Error)
		}
	}
	return nil
}
