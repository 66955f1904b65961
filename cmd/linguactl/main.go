// Command linguactl operates on a linguastore file from the shell.
//
// Usage:
//
//	linguactl [-db file] [-codec name] [-log-level level] <command> [args]
//
// Results are written to stdout as JSON. Missing records exit with status 2.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/hupe1980/linguastore"
	"github.com/hupe1980/linguastore/codec"
	"github.com/hupe1980/linguastore/internal/region"
)

const (
	exitOK       = 0
	exitError    = 1
	exitNotFound = 2
	exitUsage    = 64
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	dbPath string
	opts   []linguastore.Option
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	usage string
	// store is false for commands that never open the store file.
	store bool
	run   func(ctx context.Context, c *cli, st *linguastore.Store, args []string) (any, error)
}

var commands = map[string]command{
	"add-content":    {"-text t [-image u] [-sound u] [-scent s]", true, addContent},
	"get-content":    {"<id>", true, getContent},
	"update-content": {"<id> -text t [-image u] [-sound u] [-scent s]", true, updateContent},
	"delete-content": {"<id>", true, deleteContent},
	"list-content":   {"", true, listContent},
	"search-text":    {"<keyword>", true, searchText},
	"filter-scent":   {"<keyword>", true, filterScent},
	"sort-created":   {"", true, sortCreated},
	"create-group":   {"-name n [-members a,b]", true, createGroup},
	"get-group":      {"<id>", true, getGroup},
	"update-group":   {"<id> -name n [-members a,b]", true, updateGroup},
	"delete-group":   {"<id>", true, deleteGroup},
	"list-groups":    {"", true, listGroups},
	"stats":          {"", true, stats},
	"backup":         {"<target> <name>", true, backup},
	"restore":        {"<target> <name>", false, restore},
	"list-backups":   {"<target>", false, listBackups},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("linguactl", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() { usage(fset, stderr) }

	dbPath := fset.String("db", "linguastore.db", "store file")
	codecName := fset.String("codec", codec.Default.Name(), "record codec of a new store")
	logLevel := fset.String("log-level", "", "log to stderr at this level (debug, info, warn, error)")
	noSync := fset.Bool("no-sync", false, "do not flush the file after every write")
	rateLimit := fset.Int64("backup-rate", 0, "backup and restore rate limit in bytes per second")
	bucketPages := fset.Uint("bucket-pages", uint(region.DefaultBucketPages), "bucket size of a new store in 64 KiB pages")

	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fset.NArg() == 0 {
		fset.Usage()
		return exitUsage
	}

	if *bucketPages == 0 || *bucketPages > math.MaxUint16 {
		fmt.Fprintf(stderr, "linguactl: -bucket-pages must be between 1 and %d\n", math.MaxUint16)
		return exitUsage
	}

	c, ok := codec.ByName(*codecName)
	if !ok {
		fmt.Fprintf(stderr, "linguactl: unknown codec %q\n", *codecName)
		fset.Usage()
		return exitUsage
	}

	cl := &cli{
		dbPath: *dbPath,
		stdout: stdout,
		stderr: stderr,
		opts: []linguastore.Option{
			linguastore.WithCodec(c),
			linguastore.WithSyncWrites(!*noSync),
			linguastore.WithBackupRateLimit(*rateLimit),
			linguastore.WithBucketPages(uint16(*bucketPages)),
		},
	}

	if *logLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
			fmt.Fprintf(stderr, "linguactl: %v\n", err)
			return exitUsage
		}
		handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
		cl.opts = append(cl.opts, linguastore.WithLogger(linguastore.NewLogger(handler)))
	}

	name, rest := fset.Arg(0), fset.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "linguactl: unknown command %q\n", name)
		fset.Usage()
		return exitUsage
	}

	result, err := cl.exec(ctx, cmd, rest)
	if err != nil {
		if errors.Is(err, errUsage) {
			if err != errUsage {
				fmt.Fprintf(stderr, "linguactl: %s: %v\n", name, err)
			}
			fmt.Fprintf(stderr, "usage: linguactl %s %s\n", name, cmd.usage)
			return exitUsage
		}
		fmt.Fprintf(stderr, "linguactl: %s: %v\n", name, err)
		if errors.Is(err, linguastore.ErrNotFound) {
			return exitNotFound
		}
		return exitError
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "linguactl: %v\n", err)
		return exitError
	}
	return exitOK
}

func (c *cli) exec(ctx context.Context, cmd command, args []string) (result any, err error) {
	if !cmd.store {
		return cmd.run(ctx, c, nil, args)
	}

	st, err := linguastore.Open(ctx, c.dbPath, c.opts...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return cmd.run(ctx, c, st, args)
}

func usage(fset *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "usage: linguactl [flags] <command> [args]")
	fmt.Fprintln(w, "\nflags:")
	fset.PrintDefaults()
	fmt.Fprintln(w, "\ncommands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].usage)
	}
	fmt.Fprintln(w, "\nbackup targets: file:///dir, s3://bucket/prefix, minio://host:port/bucket/prefix")
}

func parseID(args []string) (uint64, []string, error) {
	if len(args) == 0 {
		return 0, nil, errUsage
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: invalid id %q", errUsage, args[0])
	}
	return id, args[1:], nil
}

func exactArgs(args []string, n int) error {
	if len(args) != n {
		return errUsage
	}
	return nil
}

func contentFlags(args []string) (linguastore.ContentPayload, error) {
	var p linguastore.ContentPayload
	fset := flag.NewFlagSet("content", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.StringVar(&p.Text, "text", "", "text")
	fset.StringVar(&p.ImageURL, "image", "", "image URL")
	fset.StringVar(&p.SoundURL, "sound", "", "sound URL")
	fset.StringVar(&p.ScentDescription, "scent", "", "scent description")
	if err := fset.Parse(args); err != nil || fset.NArg() != 0 {
		return p, errUsage
	}
	return p, nil
}

func groupFlags(args []string) (linguastore.StudyGroupPayload, error) {
	var (
		p       linguastore.StudyGroupPayload
		members string
	)
	fset := flag.NewFlagSet("group", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.StringVar(&p.Name, "name", "", "group name")
	fset.StringVar(&members, "members", "", "comma separated member names")
	if err := fset.Parse(args); err != nil || fset.NArg() != 0 {
		return p, errUsage
	}

	p.Members = []string{}
	for m := range strings.SplitSeq(members, ",") {
		if m = strings.TrimSpace(m); m != "" {
			p.Members = append(p.Members, m)
		}
	}
	return p, nil
}

func addContent(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	p, err := contentFlags(args)
	if err != nil {
		return nil, err
	}
	return st.AddContent(ctx, p)
}

func getContent(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	id, rest, err := parseID(args)
	if err != nil {
		return nil, err
	}
	if err := exactArgs(rest, 0); err != nil {
		return nil, err
	}
	return st.GetContent(ctx, id)
}

func updateContent(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	id, rest, err := parseID(args)
	if err != nil {
		return nil, err
	}
	p, err := contentFlags(rest)
	if err != nil {
		return nil, err
	}
	return st.UpdateContent(ctx, id, p)
}

func deleteContent(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	id, rest, err := parseID(args)
	if err != nil {
		return nil, err
	}
	if err := exactArgs(rest, 0); err != nil {
		return nil, err
	}
	return st.DeleteContent(ctx, id)
}

func listContent(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 0); err != nil {
		return nil, err
	}
	return st.ListContent(ctx)
}

func searchText(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 1); err != nil {
		return nil, err
	}
	return st.SearchContentByText(ctx, args[0])
}

func filterScent(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 1); err != nil {
		return nil, err
	}
	return st.FilterContentByScent(ctx, args[0])
}

func sortCreated(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 0); err != nil {
		return nil, err
	}
	return st.SortContentByCreationDate(ctx)
}

func createGroup(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	p, err := groupFlags(args)
	if err != nil {
		return nil, err
	}
	return st.CreateStudyGroup(ctx, p)
}

func getGroup(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	id, rest, err := parseID(args)
	if err != nil {
		return nil, err
	}
	if err := exactArgs(rest, 0); err != nil {
		return nil, err
	}
	return st.GetStudyGroup(ctx, id)
}

func updateGroup(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	id, rest, err := parseID(args)
	if err != nil {
		return nil, err
	}
	p, err := groupFlags(rest)
	if err != nil {
		return nil, err
	}
	return st.UpdateStudyGroup(ctx, id, p)
}

func deleteGroup(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	id, rest, err := parseID(args)
	if err != nil {
		return nil, err
	}
	if err := exactArgs(rest, 0); err != nil {
		return nil, err
	}
	return st.DeleteStudyGroup(ctx, id)
}

func listGroups(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 0); err != nil {
		return nil, err
	}
	return st.ListStudyGroups(ctx)
}

func stats(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 0); err != nil {
		return nil, err
	}
	return st.Stats(ctx)
}

func backup(ctx context.Context, _ *cli, st *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 2); err != nil {
		return nil, err
	}
	bs, err := openTarget(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return st.Backup(ctx, bs, args[1])
}

func restore(ctx context.Context, c *cli, _ *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 2); err != nil {
		return nil, err
	}
	bs, err := openTarget(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return linguastore.Restore(ctx, bs, args[1], c.dbPath, c.opts...)
}

func listBackups(ctx context.Context, _ *cli, _ *linguastore.Store, args []string) (any, error) {
	if err := exactArgs(args, 1); err != nil {
		return nil, err
	}
	bs, err := openTarget(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return linguastore.ListBackups(ctx, bs)
}
