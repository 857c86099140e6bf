package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/semsearch/semsearch/internal/criteria"
	"github.com/semsearch/semsearch/internal/search"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Defs   string // offline definition directory
	Config string // server configuration file
	Target string // "solr" | "sparql" | "both"
	Output string // output file path
}

// CompileResult holds the compiled queries for one criteria file.
type CompileResult struct {
	FilterID string `json:"filterId"`
	ForType  string `json:"forType,omitempty"`
	Solr     string `json:"solr,omitempty"`
	SPARQL   string `json:"sparql,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <criteria-file>",
		Short: "Compile a criteria file to Solr and SPARQL queries",
		Long: `Compile a JSON criteria file to a Solr filter query and a SPARQL
WHERE fragment.

The criteria file holds an array of search groups, each with an object
type and its flat criteria rows. Field catalogs, object types and date
ranges come from a CUE definition directory (--defs) or from a live
backend (--config).`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Defs, "defs", "", "CUE definition directory")
	cmd.Flags().StringVar(&opts.Config, "config", "", "server configuration file")
	cmd.Flags().StringVar(&opts.Target, "target", "both", "query target (solr|sparql|both)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, criteriaPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Target != "solr" && opts.Target != "sparql" && opts.Target != "both" {
		return outputCommandError(formatter, ErrCodeGeneric, fmt.Sprintf("invalid target %q: must be solr, sparql or both", opts.Target))
	}

	groups, err := readCriteriaFile(criteriaPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadCriteria, err.Error())
	}
	formatter.VerboseLog("Loaded %d search group(s) from %s", len(groups), criteriaPath)

	cfg, err := buildSessionConfig(opts, formatter)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return outputCommandError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	session := search.NewSession(cfg)
	session.LoadCriteria(groups)

	result := &CompileResult{}

	if built, err := session.BuildCriteria(true); err == nil {
		if id, err := criteria.FilterID(built); err == nil {
			result.FilterID = id
		}
	}

	ctx := cmd.Context()
	forType, err := session.BuildForType(ctx)
	if err != nil {
		formatter.VerboseLog("Type selector unavailable: %v", err)
	} else {
		result.ForType = forType
	}

	if opts.Target == "solr" || opts.Target == "both" {
		q, err := session.BuildSolrQuery(ctx)
		if err != nil {
			return outputBuildError(formatter, err)
		}
		result.Solr = q
	}
	if opts.Target == "sparql" || opts.Target == "both" {
		q, err := session.BuildSPARQLQuery(ctx)
		if err != nil {
			return outputBuildError(formatter, err)
		}
		result.SPARQL = q
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts)
}

// readCriteriaFile reads and decodes a JSON array of search groups.
func readCriteriaFile(path string) ([]criteria.GroupCriteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading criteria file: %w", err)
	}
	var groups []criteria.GroupCriteria
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("parsing criteria file %s: %w", path, err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("criteria file %s holds no search groups", path)
	}
	return groups, nil
}

// buildSessionConfig wires a session config from --defs or --config.
func buildSessionConfig(opts *CompileOptions, formatter *OutputFormatter) (search.Config, error) {
	cfg := search.Config{
		Logf: formatter.VerboseLog,
	}

	switch {
	case opts.Defs != "" && opts.Config != "":
		return cfg, fmt.Errorf("--defs and --config are mutually exclusive")
	case opts.Defs != "":
		loaded, err := LoadDefinition(opts.Defs)
		if err != nil {
			return cfg, err
		}
		formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, opts.Defs)
		def := loaded.Definition
		cfg.Fields = def
		cfg.Types = def
		cfg.Dates = def
	case opts.Config != "":
		cliCfg, err := LoadConfig(opts.Config)
		if err != nil {
			return cfg, err
		}
		client := cliCfg.NewClient()
		cfg.Fields = client
		cfg.Types = client
		cfg.Dates = client
		cfg.CurrentUserURI = cliCfg.CurrentUserURI
	default:
		return cfg, fmt.Errorf("one of --defs or --config is required")
	}

	return cfg, nil
}

// writeResultToFile writes the compile result as indented JSON.
func writeResultToFile(result *CompileResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult, opts *CompileOptions) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Filter ID: %s\n", result.FilterID)
	if result.ForType != "" {
		fmt.Fprintf(&b, "For type: %s\n", result.ForType)
	}
	if result.Solr != "" {
		fmt.Fprintf(&b, "\nSolr:\n%s\n", result.Solr)
	}
	if result.SPARQL != "" {
		fmt.Fprintf(&b, "\nSPARQL:\n%s\n", result.SPARQL)
	}
	if opts.Output != "" {
		fmt.Fprintf(&b, "\nWritten to %s\n", opts.Output)
	}
	_, err := fmt.Fprint(formatter.Writer, b.String())
	return err
}

// outputBuildError reports a compilation failure and returns ExitFailure.
func outputBuildError(formatter *OutputFormatter, err error) error {
	code := ErrCodeCompile
	if criteria.IsBracketError(err) {
		code = ErrCodeBrackets
	}
	if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
		return WrapExitError(ExitCommandError, "writing error output", outErr)
	}
	return NewExitError(ExitFailure, err.Error())
}

// outputCommandError reports a usage or environment failure and returns
// ExitCommandError.
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	if outErr := formatter.Error(code, message, nil); outErr != nil {
		return WrapExitError(ExitCommandError, "writing error output", outErr)
	}
	return NewExitError(ExitCommandError, message)
}
