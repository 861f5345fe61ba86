package cli

import (
	"flag"
	"strings"
)

const versionString = "1.0.0"
const defaultConfigPath = "./weave.toml"

type cliOptions struct {
	configPath     string
	out            string
	disasm         string
	stdlib         string
	mangle         bool
	removeDeadCode bool
	enumLookup     bool
	prunePassLimit int
	analyseAst     bool
	analyseSymbols bool
	retain         string
	watch          bool
	metricsAddr    string
	otlpEndpoint   string
	demangle       int64
	buildID        string
	verbose        bool
	version        bool
	args           []string

	// set holds the names of flags given on the command line; only those
	// override the configuration file.
	set map[string]bool
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("weave", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.out, "out", "", "Write the linked program to this path")
	fs.StringVar(&opts.disasm, "disasm", "", "Write a readable listing of the program to this path")
	fs.StringVar(&opts.stdlib, "stdlib", "", "Use this file as the standard library instead of the embedded one")
	fs.BoolVar(&opts.mangle, "mangle", false, "Replace symbol names with dense numeric codes")
	fs.BoolVar(&opts.removeDeadCode, "dce", false, "Remove unread declarations and constant branches")
	fs.BoolVar(&opts.enumLookup, "enum-lookup", true, "Prepend the enum registration table")
	fs.IntVar(&opts.prunePassLimit, "prune-limit", 0, "Maximum number of dead-code passes")
	fs.BoolVar(&opts.analyseAst, "analyse-ast", false, "Log an outline of every syntax tree")
	fs.BoolVar(&opts.analyseSymbols, "analyse-symbols", false, "Log the symbol usage of every namespace")
	fs.StringVar(&opts.retain, "retain", "", "Comma-separated name patterns that keep their names when mangling")
	fs.BoolVar(&opts.watch, "watch", false, "Rebuild whenever a source file changes")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address in watch mode")
	fs.StringVar(&opts.otlpEndpoint, "otlp-endpoint", "", "Export traces to this OTLP gRPC endpoint")
	fs.Int64Var(&opts.demangle, "demangle", -1, "Print the symbol behind a mangled code and exit")
	fs.StringVar(&opts.buildID, "build-id", "", "Build to look codes up in (default: latest)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.args = fs.Args()
	return opts, nil
}

func splitPatterns(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
