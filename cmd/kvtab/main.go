// kvtab is an interactive shell for kvtab databases.
//
// Usage:
//
//	kvtab --schema <file> [opts]
//
// Options:
//
//	-s, --schema   Schema file (JSON, comments allowed)
//	-p, --prefix   Key prefix for all records (default: kvtab)
//	-b, --bolt     Store records in a Bolt file at this path
//	-r, --redis    Store records in Redis at this address
//	-v, --verbose  Log every database operation
//
// Without --bolt or --redis the shell runs on a transient in-memory
// store, which is handy for trying out a schema.
//
// Commands (in REPL):
//
//	tables                          List tables and their attributes
//	create <table> k=v ...          Create a record, prints its id
//	find <table> <id>               Show a record
//	set <table> <id> k=v ...        Update attributes of a record
//	del <table> <id>                Remove a record
//	search <table> [or] k=v ...     Search (k=v, k^=prefix, k~=regex)
//	count <table>                   Count records
//	truncate <table>                Remove all records and reset ids
//	keys <pattern>                  List raw store keys
//	help                            Show this help
//	exit / quit / q                 Exit
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
	"github.com/redis/go-redis/v9"
	"github.com/tailscale/hujson"

	"github.com/mlutovac/kvtab"
)

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("kvtab", flag.ExitOnError)
	schemaPath := fs.StringP("schema", "s", "", "schema file (JSON, comments allowed)")
	prefix := fs.StringP("prefix", "p", "kvtab", "key prefix")
	boltPath := fs.StringP("bolt", "b", "", "bolt file path")
	redisAddr := fs.StringP("redis", "r", "", "redis address (host:port)")
	verbose := fs.BoolP("verbose", "v", false, "log every database operation")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kvtab --schema <file> [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	if *schemaPath == "" {
		fs.Usage()
		return errors.New("missing --schema")
	}
	if *boltPath != "" && *redisAddr != "" {
		return errors.New("--bolt and --redis are mutually exclusive")
	}

	scm, err := loadSchema(*schemaPath)
	if err != nil {
		return err
	}

	var store kvtab.Store
	var backend string
	switch {
	case *boltPath != "":
		store, err = kvtab.OpenBoltStore(*boltPath, kvtab.BoltOptions{})
		if err != nil {
			return err
		}
		backend = "bolt " + *boltPath
	case *redisAddr != "":
		store = kvtab.NewRedisStore(redis.NewClient(&redis.Options{Addr: *redisAddr}))
		backend = "redis " + *redisAddr
	default:
		store = kvtab.NewMemStore()
		backend = "memory (transient)"
	}

	db := kvtab.New(store, scm, kvtab.Options{
		Prefix:  *prefix,
		Verbose: *verbose,
	})
	defer db.Close()

	repl := &REPL{db: db}
	fmt.Printf("kvtab shell, backend: %s, prefix: %s\n", backend, *prefix)
	fmt.Println("Type 'help' for available commands.")
	return repl.Run()
}

// Schema files declare tables as a map from table name to attribute
// list:
//
//	{
//	    "Users": [
//	        {"name": "email", "indexed": true},
//	        {"name": "age", "optional": true},
//	        {"name": "profile", "complex": true},
//	        {"name": "slug", "indexed": true, "pattern": "^[a-z0-9-]+$"}
//	    ]
//	}
type schemaFile map[string][]attrDecl

type attrDecl struct {
	Name     string `json:"name"`
	Indexed  bool   `json:"indexed"`
	Complex  bool   `json:"complex"`
	Optional bool   `json:"optional"`
	Pattern  string `json:"pattern"`
}

func loadSchema(path string) (scm *kvtab.Schema, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}
	var file schemaFile
	if err := json.Unmarshal(standardized, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// AddTable panics on bad declarations; report them as file errors.
	defer func() {
		if p := recover(); p != nil {
			scm, err = nil, fmt.Errorf("%s: %v", path, p)
		}
	}()

	scm = kvtab.NewSchema()
	for name, decls := range file {
		attrs := make([]kvtab.Attr, 0, len(decls))
		for _, d := range decls {
			a := kvtab.Attr{
				Name:     d.Name,
				Indexed:  d.Indexed,
				Complex:  d.Complex,
				Optional: d.Optional,
			}
			if d.Pattern != "" {
				re, err := regexp.Compile(d.Pattern)
				if err != nil {
					return nil, fmt.Errorf("%s: %s/%s: %w", path, name, d.Name, err)
				}
				a.Pattern = re
			}
			attrs = append(attrs, a)
		}
		kvtab.AddTable(scm, name, attrs)
	}
	return scm, nil
}

type REPL struct {
	db    *kvtab.DB
	liner *liner.State
}

var replCommands = []string{
	"tables", "create", "find", "set", "del", "search",
	"count", "truncate", "keys", "help", "exit", "quit",
}

func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	for {
		line, err := r.liner.Prompt("kvtab> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println()
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "tables":
			r.cmdTables()
		case "create":
			r.cmdCreate(args)
		case "find", "get":
			r.cmdFind(args)
		case "set", "update":
			r.cmdSet(args)
		case "del", "delete", "rm":
			r.cmdDel(args)
		case "search":
			r.cmdSearch(args)
		case "count":
			r.cmdCount(args)
		case "truncate":
			r.cmdTruncate(args)
		case "keys":
			r.cmdKeys(args)
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) completer(line string) []string {
	var out []string
	for _, c := range replCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kvtab_history"
	}
	return filepath.Join(home, ".kvtab_history")
}

func (r *REPL) saveHistory() {
	if f, err := os.Create(historyFile()); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}

func (r *REPL) printHelp() {
	fmt.Print(`Commands:
  tables                          List tables and their attributes
  create <table> k=v ...          Create a record, prints its id
  find <table> <id>               Show a record
  set <table> <id> k=v ...        Update attributes of a record
  del <table> <id>                Remove a record
  search <table> [or] k=v ...     Search (k=v, k^=prefix, k~=regex)
  count <table>                   Count records
  truncate <table>                Remove all records and reset ids
  keys <pattern>                  List raw store keys
  exit / quit / q                 Exit
`)
}

func (r *REPL) cmdTables() {
	for _, tbl := range r.db.Schema().Tables() {
		var decls []string
		for _, a := range tbl.Attributes() {
			switch {
			case tbl.IsIndexed(a):
				decls = append(decls, a+" (indexed)")
			case tbl.IsComplex(a):
				decls = append(decls, a+" (complex)")
			default:
				decls = append(decls, a)
			}
		}
		fmt.Printf("%s: %s\n", tbl.Name(), strings.Join(decls, ", "))
	}
}

func (r *REPL) cmdCreate(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: create <table> k=v ...")
		return
	}
	fields, err := parseFields(args[1:])
	if err != nil {
		fmt.Println(err)
		return
	}
	rec, err := r.db.Create(args[0], fields)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("created %s/%d\n", rec.Table().Name(), rec.ID())
}

func (r *REPL) cmdFind(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: find <table> <id>")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("bad id %q\n", args[1])
		return
	}
	rec, err := r.db.Find(args[0], id)
	if err != nil {
		fmt.Println(err)
		return
	}
	if rec == nil {
		fmt.Println("not found")
		return
	}
	printRecord(rec)
}

func (r *REPL) cmdSet(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: set <table> <id> k=v ...")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("bad id %q\n", args[1])
		return
	}
	rec, err := r.db.Find(args[0], id)
	if err != nil {
		fmt.Println(err)
		return
	}
	if rec == nil {
		fmt.Println("not found")
		return
	}
	fields, err := parseFields(args[2:])
	if err != nil {
		fmt.Println(err)
		return
	}
	rec, err = r.db.Update(rec, fields)
	if err != nil {
		fmt.Println(err)
		return
	}
	printRecord(rec)
}

func (r *REPL) cmdDel(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: del <table> <id>")
		return
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("bad id %q\n", args[1])
		return
	}
	rec, err := r.db.Find(args[0], id)
	if err != nil {
		fmt.Println(err)
		return
	}
	if rec == nil {
		fmt.Println("not found")
		return
	}
	if err := r.db.Remove(rec); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("removed")
}

func (r *REPL) cmdSearch(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: search <table> [or] k=v ...")
		return
	}
	table := args[0]
	args = args[1:]

	var opt kvtab.SearchOptions
	if len(args) > 0 && strings.EqualFold(args[0], "or") {
		opt.Or = true
		args = args[1:]
	}

	filter := kvtab.Filter{}
	for _, arg := range args {
		attr, cond, err := parseCond(arg)
		if err != nil {
			fmt.Println(err)
			return
		}
		filter[attr] = cond
	}

	c, err := r.db.Search(table, filter, opt)
	if err != nil {
		fmt.Println(err)
		return
	}
	n := 0
	for rec, err := range c.Records() {
		if err != nil {
			fmt.Println(err)
			return
		}
		printRecord(rec)
		n++
	}
	fmt.Printf("%d record(s)\n", n)
}

func (r *REPL) cmdCount(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: count <table>")
		return
	}
	n, err := r.db.Count(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(n)
}

func (r *REPL) cmdTruncate(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: truncate <table>")
		return
	}
	answer, err := r.liner.Prompt(fmt.Sprintf("Remove all records of %s? (yes/no): ", args[0]))
	if err != nil || strings.ToLower(strings.TrimSpace(answer)) != "yes" {
		fmt.Println("cancelled")
		return
	}
	if err := r.db.Truncate(args[0]); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("truncated")
}

func (r *REPL) cmdKeys(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: keys <pattern>")
		return
	}
	keys, err := r.db.Store().Keys(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	fmt.Printf("%d key(s)\n", len(keys))
}

func printRecord(rec *kvtab.Record) {
	fmt.Printf("%s/%d\n", rec.Table().Name(), rec.ID())
	values := rec.Values()
	for _, a := range rec.Table().Attributes() {
		if v, ok := values[a]; ok {
			fmt.Printf("  %s = %v\n", a, v)
		}
	}
}

func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("bad field %q, want k=v", arg)
		}
		// Values starting with { or [ are parsed as JSON so complex
		// attributes can be set from the shell.
		if strings.HasPrefix(v, "{") || strings.HasPrefix(v, "[") {
			var parsed any
			if err := json.Unmarshal([]byte(v), &parsed); err != nil {
				return nil, fmt.Errorf("bad value for %s: %w", k, err)
			}
			fields[k] = parsed
			continue
		}
		fields[k] = v
	}
	return fields, nil
}

func parseCond(arg string) (string, kvtab.Cond, error) {
	if attr, v, ok := strings.Cut(arg, "^="); ok {
		return attr, kvtab.HasPrefix(v), nil
	}
	if attr, v, ok := strings.Cut(arg, "~="); ok {
		re, err := regexp.Compile(v)
		if err != nil {
			return "", nil, fmt.Errorf("bad regex for %s: %w", attr, err)
		}
		return attr, kvtab.Matches(re), nil
	}
	if attr, v, ok := strings.Cut(arg, "="); ok {
		return attr, kvtab.Eq(v), nil
	}
	return "", nil, fmt.Errorf("bad condition %q, want k=v, k^=prefix or k~=regex", arg)
}
