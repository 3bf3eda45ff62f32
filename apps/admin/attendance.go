package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/records"
)

// takeAttendance records the whole roster for date: everyone present unless listed in absent.
func (cli *commandLine) takeAttendance(date string, absent []string, allAbsent bool) error {
	ctx := context.Background()
	if date == "" {
		date = core.FormatDate(records.NowFunc().UTC())
	}

	scope, err := cli.scope(ctx)
	if err != nil {
		return err
	}
	board := records.NewBoard(scope)
	if _, err = board.Select(ctx, date); err != nil {
		return err
	}
	if allAbsent {
		board.MarkAll(false)
	}
	for _, id := range absent {
		if !board.Set(id, false) {
			return errors.Wrapf(records.ErrStudentNotFound, "marking %q absent", id)
		}
	}

	if _, err = board.Submit(ctx); err != nil {
		return err
	}
	present, absentCount := board.Sheet().Counts()
	fmt.Fprintf(cli.out, "%s: %d present, %d absent\n", date, present, absentCount)
	return nil
}
