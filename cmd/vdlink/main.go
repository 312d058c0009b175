// Command vdlink links noisy bibliographic citations to canonical
// VD16/VD17/VD18 registry records through a local full-text index and
// an optional LLM disambiguation gateway.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hurttlocker/vdlink/internal/config"
	"github.com/hurttlocker/vdlink/internal/disambig"
	"github.com/hurttlocker/vdlink/internal/eval"
	"github.com/hurttlocker/vdlink/internal/index"
	"github.com/hurttlocker/vdlink/internal/ingest"
	"github.com/hurttlocker/vdlink/internal/link"
	"github.com/hurttlocker/vdlink/internal/llm"
	"github.com/hurttlocker/vdlink/internal/mcp"
)

const version = "0.1.0-dev"

func main() {
	// Local .env is a convenience for API keys; absence is fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	var err error
	switch os.Args[1] {
	case "index":
		err = runIndex(os.Args[2:])
	case "link":
		err = runLink(os.Args[2:])
	case "eval":
		err = runEval(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "mcp":
		err = runMCP(os.Args[2:])
	case "version", "--version", "-v":
		fmt.Printf("vdlink %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are the flags every subcommand shares.
type commonFlags struct {
	db      string
	llmFlag string
	testSet string
	noLLM   bool
	jsonOut bool
	rest    []string
}

func parseCommon(args []string) (commonFlags, error) {
	var f commonFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value", arg)
			}
			return args[i], nil
		}
		var err error
		switch {
		case arg == "--db":
			f.db, err = next()
		case arg == "--llm":
			f.llmFlag, err = next()
		case arg == "--test-set":
			f.testSet, err = next()
		case arg == "--no-llm":
			f.noLLM = true
		case arg == "--json":
			f.jsonOut = true
		case strings.HasPrefix(arg, "--"):
			return f, fmt.Errorf("unknown flag: %s", arg)
		default:
			f.rest = append(f.rest, arg)
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

func resolve(f commonFlags) (config.ResolvedConfig, error) {
	return config.ResolveConfig(config.ResolveOptions{
		CLILLM:     f.llmFlag,
		CLIDBPath:  f.db,
		CLITestSet: f.testSet,
	})
}

func dbPath(cfg config.ResolvedConfig) string {
	if cfg.DBPath.Value != "" {
		return cfg.DBPath.Value
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vdlink", "vd_works.db")
}

// gateway builds the LLM disambiguator, or nil when disabled or not
// configured. Missing credentials downgrade to local-only linking with
// a notice instead of failing the command.
func gateway(cfg config.ResolvedConfig, noLLM bool) link.Disambiguator {
	if noLLM {
		return nil
	}
	pcfg, err := llm.ParseLLMFlag(cfg.LLMProvider.Value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Note: %v; running without disambiguation\n", err)
		return nil
	}
	pcfg.APIKey = cfg.APIKeyForProvider(pcfg.Provider).Value
	provider, err := llm.NewProvider(pcfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Note: %v; running without disambiguation\n", err)
		return nil
	}
	return disambig.New(provider)
}

func runIndex(args []string) error {
	f, err := parseCommon(args)
	if err != nil {
		return err
	}
	if len(f.rest) != 1 {
		return fmt.Errorf("usage: vdlink index <works.jsonl> [--db path]")
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	path := dbPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	ix, err := index.Create(path)
	if err != nil {
		return err
	}
	defer ix.Close()

	ctx := context.Background()
	fmt.Printf("Indexing %s into %s...\n", f.rest[0], path)
	res, err := ingest.Load(ctx, f.rest[0], ix, ingest.Options{
		ProgressFn: func(lines, indexed int) {
			fmt.Printf("  %d lines read, %d records indexed\n", lines, indexed)
		},
	})
	if err != nil {
		return err
	}
	if err := ix.Optimize(ctx); err != nil {
		return fmt.Errorf("optimizing index: %w", err)
	}

	fmt.Printf("Done: %d indexed, %d skipped, %d parse errors\n", res.Indexed, res.Skipped, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "  line %d: %s\n", e.Line, e.Message)
	}
	return nil
}

func runLink(args []string) error {
	var author, place string
	var year int
	filtered := args[:0:0]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--author", "--place", "--year":
			flag := args[i]
			i++
			if i >= len(args) {
				return fmt.Errorf("%s requires a value", flag)
			}
			switch flag {
			case "--author":
				author = args[i]
			case "--place":
				place = args[i]
			case "--year":
				y, err := strconv.Atoi(args[i])
				if err != nil {
					return fmt.Errorf("invalid --year %q", args[i])
				}
				year = y
			}
		default:
			filtered = append(filtered, args[i])
		}
	}

	f, err := parseCommon(filtered)
	if err != nil {
		return err
	}
	if len(f.rest) == 0 {
		return fmt.Errorf("usage: vdlink link <citation text> [--year n] [--author s] [--place s] [--no-llm] [--json]")
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	ix, err := index.Open(dbPath(cfg))
	if err != nil {
		return err
	}
	defer ix.Close()

	linker := link.New(ix, gateway(cfg, f.noLLM), cfg.Pipeline)
	res, err := linker.LinkFields(context.Background(), strings.Join(f.rest, " "), author, place, year)
	if err != nil {
		return err
	}

	if f.jsonOut {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if !res.Matched {
		fmt.Printf("No match (%s)\n", res.Reason)
		return nil
	}
	fmt.Printf("%s  confidence=%.0f band=%s\n", res.RecordID, res.Confidence, res.Band)
	fmt.Printf("  %s\n", res.Reason)
	if len(res.Shortlist) > 1 {
		fmt.Println("  Shortlist:")
		for i, c := range res.Shortlist {
			fmt.Printf("    %d. %s (%.0f) %s\n", i+1, c.Record.RecordID, c.Score, c.Record.CleanTitle)
		}
	}
	return nil
}

func runEval(args []string) error {
	top := eval.DefaultHitDepth
	filtered := args[:0:0]
	for i := 0; i < len(args); i++ {
		if args[i] == "--top" {
			i++
			if i >= len(args) {
				return fmt.Errorf("--top requires a value")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid --top %q", args[i])
			}
			top = n
			continue
		}
		filtered = append(filtered, args[i])
	}

	f, err := parseCommon(filtered)
	if err != nil {
		return err
	}
	if len(f.rest) == 1 {
		f.testSet = f.rest[0]
	} else if len(f.rest) > 1 {
		return fmt.Errorf("usage: vdlink eval <test_set.json> [--top n] [--no-llm]")
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}
	if cfg.TestSet.Value == "" {
		return fmt.Errorf("no test set: pass --test-set or set test_set in %s", cfg.ConfigPath)
	}

	tf, err := os.Open(cfg.TestSet.Value)
	if err != nil {
		return fmt.Errorf("opening test set: %w", err)
	}
	cases, err := eval.ParseTestSet(tf)
	tf.Close()
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("test set %s contains no usable cases", cfg.TestSet.Value)
	}

	ix, err := index.Open(dbPath(cfg))
	if err != nil {
		return err
	}
	defer ix.Close()

	linker := link.New(ix, gateway(cfg, f.noLLM), cfg.Pipeline)
	rep, err := eval.Run(context.Background(), cases, linker, eval.Options{
		HitDepth: top,
		ProgressFn: func(done, total int) {
			fmt.Fprintf(os.Stderr, "  %d/%d\n", done, total)
		},
	})
	if err != nil {
		return err
	}
	return rep.WriteTable(os.Stdout)
}

func runStats(args []string) error {
	f, err := parseCommon(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	ix, err := index.Open(dbPath(cfg))
	if err != nil {
		return err
	}
	defer ix.Close()

	n, err := ix.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Index:   %s\n", ix.Path())
	fmt.Printf("Records: %d\n", n)
	return nil
}

func runMCP(args []string) error {
	f, err := parseCommon(args)
	if err != nil {
		return err
	}
	cfg, err := resolve(f)
	if err != nil {
		return err
	}

	ix, err := index.Open(dbPath(cfg))
	if err != nil {
		return err
	}
	defer ix.Close()

	linker := link.New(ix, gateway(cfg, f.noLLM), cfg.Pipeline)
	srv := mcp.NewServer(mcp.ServerConfig{Resolver: linker, Index: ix, Version: version})
	return mcp.ServeStdio(srv)
}

func printUsage() {
	fmt.Println(`vdlink - link noisy citations to VD16/VD17/VD18 registry records

Usage:
  vdlink index <works.jsonl> [--db path]       Build the registry index
  vdlink link <citation text> [flags]          Resolve one citation
  vdlink eval [test_set.json] [flags]          Run the annotated test set
  vdlink stats [--db path]                     Show index statistics
  vdlink mcp [flags]                           Serve MCP tools on stdio
  vdlink version                               Print version

Flags:
  --db <path>        Registry index database (default ~/.vdlink/vd_works.db)
  --llm <prov/model> Disambiguation model, e.g. google/gemini-2.5-flash
  --no-llm           Disable the disambiguation gateway
  --json             Emit JSON (link)
  --author <s>       Author hint (link)
  --place <s>        Place hint (link)
  --year <n>         Year hint (link)
  --test-set <path>  Annotated test set (eval)
  --top <n>          Shortlist depth counted as a hit (eval, default 5)

Configuration is read from ~/.vdlink/config.yaml, environment
(VDLINK_DB, VDLINK_LLM, GEMINI_API_KEY, ...), then CLI flags.`)
}
