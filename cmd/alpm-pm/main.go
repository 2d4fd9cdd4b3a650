// Command alpm-pm is the reference CLI surface over the toolkit: validate,
// format, and create text-format metadata documents, and drive database
// directories through the same core packages a real package manager would.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/archlinux/alpm-go/alpmtypes"
	"github.com/archlinux/alpm-go/internal/config"
	"github.com/archlinux/alpm-go/internal/events"
	"github.com/archlinux/alpm-go/metafmt"
	"github.com/archlinux/alpm-go/mtree"
	"github.com/archlinux/alpm-go/pkgdb"
	"github.com/archlinux/alpm-go/pkginput"
	"github.com/archlinux/alpm-go/solve"
	"github.com/archlinux/alpm-go/srcinfo"
)

// kvFlags collects repeated KEY=VALUE flags into a map, matching the
// teacher's flag.Value helper.
type kvFlags map[string]string

func (f *kvFlags) String() string {
	var parts []string
	for k, v := range *f {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ", ")
}
func (f *kvFlags) Set(v string) error {
	k, val, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("invalid format, expected KEY=VALUE")
	}
	(*f)[k] = val
	return nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "format":
		err = runFormat(os.Args[2:])
	case "create":
		err = runCreate(os.Args[2:])
	case "db":
		err = runDB(os.Args[2:])
	case "batch":
		err = runBatch(os.Args[2:])
	case "srcinfo":
		err = runSrcinfo(os.Args[2:])
	case "mtree":
		err = runMtree(os.Args[2:])
	case "assemble":
		err = runAssemble(os.Args[2:])
	case "solve":
		err = runSolve(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "alpm-pm:", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: alpm-pm <command> [flags]")
	fmt.Println("\nCommands:")
	fmt.Println("  validate   Parse a metadata document and report errors")
	fmt.Println("  format     Parse then re-emit a metadata document canonically")
	fmt.Println("  create     Build a PKGINFO/BUILDINFO document from flags or env vars")
	fmt.Println("  db         Check or create a database directory")
	fmt.Println("  batch      Drive check/create across many database directories from a config file")
	fmt.Println("  srcinfo    Parse a .SRCINFO file and report its lints/errors")
	fmt.Println("  mtree      Validate a directory tree against an .MTREE manifest")
	fmt.Println("  assemble   Assemble and validate a package input directory")
	fmt.Println("  solve      Compute an upgrade or downgrade plan from desc-file directories")
}

// docFlags are the flags shared by validate/format/create.
type docFlags struct {
	style  string
	format string
	pretty bool
	input  string
	output string
}

func bindDocFlags(fs *flag.FlagSet) *docFlags {
	d := &docFlags{}
	fs.StringVar(&d.style, "style", "pkginfo", "document style: pkginfo|buildinfo|db|repo")
	fs.StringVar(&d.format, "format", "v2", "schema: v1|v2")
	fs.BoolVar(&d.pretty, "pretty", false, "pretty-print JSON output")
	fs.StringVar(&d.input, "input-file", "", "input file path (defaults to stdin)")
	fs.StringVar(&d.output, "output", "", "output file path (defaults to stdout)")
	return d
}

func (d *docFlags) readInput() (string, error) {
	if d.input == "" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(d.input)
	return string(b), err
}

func (d *docFlags) writeOutput(text string) error {
	if d.output == "" {
		_, err := fmt.Fprint(os.Stdout, text)
		return err
	}
	return os.WriteFile(d.output, []byte(text), 0644)
}

// parseDocument dispatches to the right metafmt parser for style/format.
func parseDocument(style, schema, text string) (interface{}, error) {
	switch style {
	case "pkginfo":
		s := metafmt.PackageInfoV2
		if schema == "v1" {
			s = metafmt.PackageInfoV1
		}
		return metafmt.ParsePackageInfo(text, s)
	case "buildinfo":
		s := metafmt.BuildInfoV2
		if schema == "v1" {
			s = metafmt.BuildInfoV1
		}
		return metafmt.ParseBuildInfo(text, s)
	case "db":
		return metafmt.ParseDbEntryDesc(text)
	case "repo":
		s := metafmt.RepoDescV2
		if schema == "v1" {
			s = metafmt.RepoDescV1
		}
		return metafmt.ParseRepoDesc(text, s)
	default:
		return nil, fmt.Errorf("unknown --style %q", style)
	}
}

type displayer interface {
	Display() string
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	d := bindDocFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	text, err := d.readInput()
	if err != nil {
		return err
	}
	doc, err := parseDocument(d.style, d.format, text)
	if err != nil {
		return err
	}
	if d.pretty {
		b, _ := json.MarshalIndent(doc, "", "  ")
		return d.writeOutput(string(b) + "\n")
	}
	return d.writeOutput("ok\n")
}

func runFormat(args []string) error {
	fs := flag.NewFlagSet("format", flag.ExitOnError)
	d := bindDocFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	text, err := d.readInput()
	if err != nil {
		return err
	}
	doc, err := parseDocument(d.style, d.format, text)
	if err != nil {
		return err
	}
	disp, ok := doc.(displayer)
	if !ok {
		return fmt.Errorf("--style %q has no canonical text display", d.style)
	}
	return d.writeOutput(disp.Display())
}

// runCreate builds a PackageInfo/BuildInfo document from PKGINFO_/
// BUILDINFO_ environment variables (keys lower-cased), with any
// --field KEY=VALUE flag overriding the variable of the same key.
// List-valued fields are space-separated, except OPTDEPEND which is
// comma-separated.
func runCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	d := bindDocFlags(fs)
	fields := make(kvFlags)
	fs.Var(&fields, "field", "Set a field explicitly (KEY=VALUE), overrides env vars")
	if err := fs.Parse(args); err != nil {
		return err
	}

	prefix := "PKGINFO_"
	if d.style == "buildinfo" {
		prefix = "BUILDINFO_"
	}
	values := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		values[strings.ToLower(strings.TrimPrefix(k, prefix))] = v
	}
	for k, v := range fields {
		values[strings.ToLower(k)] = v
	}

	pairs := buildKeyValuePairs(d.style, values)
	return d.writeOutput(metafmt.FormatKeyValue(pairs))
}

func buildKeyValuePairs(style string, values map[string]string) []metafmt.KVPair {
	var pairs []metafmt.KVPair
	for key, raw := range values {
		if key == "optdepend" {
			for _, v := range strings.Split(raw, ",") {
				v = strings.TrimSpace(v)
				if v != "" {
					pairs = append(pairs, metafmt.KVPair{Key: key, Value: v})
				}
			}
			continue
		}
		if isListField(style, key) {
			for _, v := range strings.Fields(raw) {
				pairs = append(pairs, metafmt.KVPair{Key: key, Value: v})
			}
			continue
		}
		pairs = append(pairs, metafmt.KVPair{Key: key, Value: raw})
	}
	return pairs
}

func isListField(style, key string) bool {
	listKeys := map[string]bool{
		"license": true, "group": true, "replaces": true, "conflict": true,
		"provides": true, "depend": true, "makedepend": true, "checkdepend": true,
		"backup": true, "xdata": true, "buildenv": true, "options": true, "installed": true,
	}
	return listKeys[key]
}

// runDB drives a database directory through pkgdb, either checking it
// (open, list entries) or creating it, emitting structured events as it goes.
func runDB(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: alpm-pm db <check|create> <dir> [flags]")
	}
	sub := args[0]
	if len(args) < 2 {
		return fmt.Errorf("usage: alpm-pm db %s <dir>", sub)
	}
	dir := args[1]
	fs := flag.NewFlagSet("db-"+sub, flag.ExitOnError)
	var schemaVersion int
	fs.IntVar(&schemaVersion, "schema-version", 9, "schema version for create")
	if err := fs.Parse(args[2:]); err != nil {
		return err
	}

	l := logListener()
	switch sub {
	case "check":
		db, err := pkgdb.Open(dir)
		if err != nil {
			return err
		}
		defer db.Close()
		entries, err := db.Entries()
		if err != nil {
			return err
		}
		events.Emit(l, events.DatabaseOpened{Dir: dir, Entries: len(entries)})
		fmt.Println(strconv.Itoa(len(entries)), "entries ok")
		return nil
	case "create":
		db, err := pkgdb.Create(dir, schemaVersion)
		if err != nil {
			return err
		}
		db.Close()
		events.Emit(l, events.DatabaseOpened{Dir: dir})
		return nil
	default:
		return fmt.Errorf("unknown db subcommand %q", sub)
	}
}

// logListener prints every event as a JSON line to stderr, the simplest
// Listener a CLI can offer without pulling in a logging library.
func logListener() events.Listener {
	return func(e fmt.Stringer) {
		fmt.Fprintln(os.Stderr, e.String())
	}
}

// runBatch drives check/create/remove across many database directories in
// one invocation, reading the job list from a JSON or YAML config file.
func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	var configPath string
	fs.StringVar(&configPath, "config", "", "path to a batch job file (.json/.yaml/.yml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if configPath == "" {
		return fmt.Errorf("usage: alpm-pm batch -config <file>")
	}
	batch, err := config.Load(configPath)
	if err != nil {
		return err
	}

	l := logListener()
	for _, job := range batch.Jobs {
		if err := runBatchJob(l, job); err != nil {
			return fmt.Errorf("job %s: %w", job.Dir, err)
		}
	}
	return nil
}

func runBatchJob(l events.Listener, job config.BatchJob) error {
	var db *pkgdb.Database
	var err error
	if _, statErr := os.Stat(job.Dir); statErr == nil {
		db, err = pkgdb.Open(job.Dir)
	} else {
		db, err = pkgdb.Create(job.Dir, job.SchemaVersion)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.Entries()
	if err != nil {
		return err
	}
	events.Emit(l, events.DatabaseOpened{Dir: job.Dir, Entries: len(entries)})

	for _, descPath := range job.EntryDescFiles {
		text, err := os.ReadFile(descPath)
		if err != nil {
			return err
		}
		desc, err := metafmt.ParseDbEntryDesc(string(text))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", descPath, err)
		}
		name := pkgdb.EntryName{Name: desc.Name, Version: desc.Version}
		entry := &pkgdb.Entry{Name: name, Desc: string(text)}
		_, exists, err := db.Entry(name.String())
		if err != nil {
			return err
		}
		if exists {
			err = db.UpdateEntry(entry)
		} else {
			err = db.CreateEntry(entry)
		}
		if err != nil {
			return fmt.Errorf("writing entry from %s: %w", descPath, err)
		}
		events.Emit(l, events.DatabaseEntryWritten{Name: name.String(), Updated: exists})
	}

	for _, name := range job.RemoveEntries {
		if err := db.DeleteEntry(name); err != nil {
			return fmt.Errorf("removing %s: %w", name, err)
		}
		events.Emit(l, events.DatabaseEntryDeleted{Name: name})
	}
	return nil
}

// runSrcinfo parses a .SRCINFO file and reports its package count, lint
// count, and unrecoverable error count.
func runSrcinfo(args []string) error {
	fs := flag.NewFlagSet("srcinfo", flag.ExitOnError)
	var input string
	fs.StringVar(&input, "input-file", "", "path to a .SRCINFO file (defaults to stdin)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	text, err := readPathOrStdin(input)
	if err != nil {
		return err
	}
	si, err := srcinfo.Parse(text)
	if err != nil {
		return err
	}

	packageBase := ""
	if si.Base != nil {
		packageBase = si.Base.Name.String()
	}
	events.Emit(logListener(), events.SourceInfoParsed{
		PackageBase: packageBase,
		Packages:    len(si.Packages),
		Lints:       len(si.Lints),
		Errors:      len(si.Errors),
	})
	fmt.Printf("%s: %d packages, %d lints, %d errors\n", packageBase, len(si.Packages), len(si.Lints), len(si.Errors))
	if len(si.Errors) > 0 {
		return fmt.Errorf("%d unrecoverable error(s)", len(si.Errors))
	}
	return nil
}

// runMtree parses an .MTREE manifest and validates it against a directory
// tree, reporting every mismatch found.
func runMtree(args []string) error {
	fs := flag.NewFlagSet("mtree", flag.ExitOnError)
	var manifestPath, baseDir string
	fs.StringVar(&manifestPath, "manifest", "", "path to the .MTREE manifest")
	fs.StringVar(&baseDir, "dir", "", "directory tree to validate against the manifest")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if manifestPath == "" || baseDir == "" {
		return fmt.Errorf("usage: alpm-pm mtree -manifest <file> -dir <dir>")
	}
	text, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	m, err := mtree.Parse(string(text))
	if err != nil {
		return err
	}
	relPaths, err := walkRelativePaths(baseDir)
	if err != nil {
		return err
	}
	report := m.ValidatePaths(baseDir, relPaths)
	events.Emit(logListener(), events.MtreeValidated{Path: baseDir, Issues: len(report.Errors)})
	if !report.OK() {
		return report
	}
	fmt.Println("ok")
	return nil
}

func walkRelativePaths(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == ".MTREE" {
			return nil
		}
		if d.IsDir() {
			rel += "/"
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

// runAssemble assembles and validates a package input directory, reporting
// the result and the package name/version it found.
func runAssemble(args []string) error {
	fs := flag.NewFlagSet("assemble", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: alpm-pm assemble <dir>")
	}
	dir := fs.Arg(0)
	input, err := pkginput.Assemble(dir)
	if err != nil {
		return err
	}
	events.Emit(logListener(), events.PackageAssembled{
		Dir:     dir,
		Name:    input.PackageInfo.PkgName.String(),
		Version: input.PackageInfo.Version.String(),
	})
	fmt.Println(input.PackageInfo.PkgName.String() + "-" + input.PackageInfo.Version.String())
	return nil
}

// runSolve computes an upgrade or downgrade plan given an installed set and
// a repository, both read as directories of RepoDesc-formatted files.
func runSolve(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: alpm-pm solve <upgrade|downgrade> -installed <dir> -repo <dir>")
	}
	sub := args[0]
	fs := flag.NewFlagSet("solve-"+sub, flag.ExitOnError)
	var installedDir, repoDir string
	var enforceFull bool
	fs.StringVar(&installedDir, "installed", "", "directory of installed-package desc files")
	fs.StringVar(&repoDir, "repo", "", "directory of repository desc files")
	fs.BoolVar(&enforceFull, "full", false, "enforce a full upgrade (solve.Upgrade only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if installedDir == "" || repoDir == "" {
		return fmt.Errorf("usage: alpm-pm solve %s -installed <dir> -repo <dir>", sub)
	}

	installed, err := loadSolvePackages(installedDir)
	if err != nil {
		return err
	}
	candidates, err := loadSolvePackages(repoDir)
	if err != nil {
		return err
	}
	in := solve.Input{
		Installed:    installed,
		Repositories: []solve.Repository{{Name: filepath.Base(repoDir), Priority: 0, Packages: candidates}},
	}

	var plan *solve.Plan
	switch sub {
	case "upgrade":
		plan, err = solve.Upgrade(in, nil, enforceFull)
	case "downgrade":
		var names []alpmtypes.Name
		for _, p := range installed {
			names = append(names, p.Name)
		}
		plan, err = solve.Downgrade(in, names)
	default:
		return fmt.Errorf("unknown solve subcommand %q", sub)
	}
	if err != nil {
		return err
	}
	events.Emit(logListener(), events.SolverPlanned{Kind: sub, Actions: len(plan.Actions)})
	for _, a := range plan.Actions {
		target := "(removed)"
		if a.To != nil {
			target = a.To.String()
		}
		fmt.Println(a.Kind, target)
	}
	return nil
}

// loadSolvePackages reads every *.desc file in dir as a RepoDesc and
// converts it to a solve.Package.
func loadSolvePackages(dir string) ([]solve.Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []solve.Package
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".desc") {
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		desc, err := metafmt.ParseRepoDesc(string(text), metafmt.RepoDescV2)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		pkg, err := toSolvePackage(desc)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", e.Name(), err)
		}
		out = append(out, pkg)
	}
	return out, nil
}

func toSolvePackage(desc *metafmt.RepoDesc) (solve.Package, error) {
	depends, err := parsePackageRelations(desc.Depends)
	if err != nil {
		return solve.Package{}, err
	}
	conflicts, err := parsePackageRelations(desc.Conflicts)
	if err != nil {
		return solve.Package{}, err
	}
	provides, err := parseRelationOrSonames(desc.Provides)
	if err != nil {
		return solve.Package{}, err
	}
	return solve.Package{
		Name:      desc.Name,
		Version:   desc.Version,
		Provides:  provides,
		Depends:   depends,
		Conflicts: conflicts,
	}, nil
}

func parsePackageRelations(raw []string) ([]alpmtypes.PackageRelation, error) {
	var out []alpmtypes.PackageRelation
	for _, s := range raw {
		rel, err := alpmtypes.ParsePackageRelation(s)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}

func parseRelationOrSonames(raw []string) ([]alpmtypes.RelationOrSoname, error) {
	var out []alpmtypes.RelationOrSoname
	for _, s := range raw {
		rel, err := alpmtypes.ParsePackageRelation(s)
		if err != nil {
			return nil, err
		}
		out = append(out, alpmtypes.RelationOrSoname{Kind: alpmtypes.RelationKindPackage, Package: rel})
	}
	return out, nil
}

// readPathOrStdin reads path if non-empty, else all of stdin.
func readPathOrStdin(path string) (string, error) {
	if path == "" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}
