package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/identity"
	"github.com/trezcool/alama/core/records"
	sessionsvc "github.com/trezcool/alama/services/session"
)

var (
	errHelp = errors.New("help provided")

	// errLocalCache refuses writes that a running API could not see: its in-memory cache
	// would keep serving the records read before the write.
	errLocalCache = errors.New("record writes need the cache the API reads: set <ENV>_CACHE_BACKEND=redis")

	// cliIdentity acts for the CLI when no CLI token is configured.
	cliIdentity = identity.Identity{UserID: "admin-cli", Role: identity.RoleTeacher, DisplayName: "Admin CLI"}
)

type commandLine struct {
	conf   *core.Config
	db     *sqlx.DB
	gw     *records.Gateway
	issuer *sessionsvc.Issuer
	out    io.Writer

	sharedCache bool // whether the API reads the cache gw invalidates
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) against the database")
	fmt.Fprintln(cli.out, "  token -user ID -role teacher|student [-name NAME] - issue an API token")
	fmt.Fprintln(cli.out, "  import -file PATH - create students from the first sheet of an .xlsx workbook")
	fmt.Fprintln(cli.out, "  attendance [-date YYYY-MM-DD] [-absent ID,ID] [-all-absent] - record a class attendance sheet")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenUser := tokenCmd.String("user", "", "The user id. For students, their student record id.")
	tokenRole := tokenCmd.String("role", "", "teacher or student.")
	tokenName := tokenCmd.String("name", "", "The display name.")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "Path to the .xlsx roster.")

	attendanceCmd := flag.NewFlagSet("attendance", flag.ExitOnError)
	attendanceDate := attendanceCmd.String("date", "", "The date, today by default.")
	attendanceAbsent := attendanceCmd.String("absent", "", "Comma separated ids of the absent students.")
	attendanceAllAbsent := attendanceCmd.Bool("all-absent", false, "Mark every student absent before applying -absent.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUser == "" || *tokenRole == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.issueToken(*tokenUser, *tokenRole, *tokenName)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		if !cli.sharedCache {
			return errLocalCache
		}
		return cli.importStudents(*importFile)
	case "attendance":
		if err := attendanceCmd.Parse(args[2:]); err != nil {
			return err
		}
		if !cli.sharedCache {
			return errLocalCache
		}
		return cli.takeAttendance(*attendanceDate, splitIDs(*attendanceAbsent), *attendanceAllAbsent)
	default:
		cli.printUsage()
		return errHelp
	}
}

// scope acts as the CLI token's owner, or as cliIdentity when none is configured.
func (cli *commandLine) scope(ctx context.Context) (*records.Scope, error) {
	token := cli.conf.CLIToken
	if token == "" {
		var err error
		if token, err = cli.issuer.Issue(cliIdentity); err != nil {
			return nil, err
		}
	}
	r, err := cli.issuer.NewResolver(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "resolving CLI identity")
	}
	return cli.gw.Scope(r, records.SameIDLinker), nil
}

func splitIDs(s string) []string {
	ids := make([]string, 0)
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
