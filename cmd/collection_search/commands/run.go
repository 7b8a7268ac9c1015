package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-collection-search/config"
	"github.com/gcbaptista/go-collection-search/internal/engine"
	"github.com/gcbaptista/go-collection-search/internal/loader"
	"github.com/gcbaptista/go-collection-search/internal/logging"
	"github.com/gcbaptista/go-collection-search/internal/search"
	"github.com/gcbaptista/go-collection-search/model"
)

// resultBlock is the number of collections fetched per GetResults call.
const resultBlock = 100000

type runFlags struct {
	itemFile       string
	hasHeader      bool
	delimiter      string
	definitionFile string
	saveDefinition string
	name           string

	primary     int
	picks       string
	partitions  []int
	constraints []string
	maxCost     float32

	ctol      float32
	itol      float32
	ntol      int
	resnumb   int
	maxres    int
	smode     int
	mctol     float32
	verbosity int
	output    string
}

func newRunCmd() *cobra.Command {
	var o runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Solve one problem and write its collections",
		Long: `Solve one problem and write its collections.

The problem comes either from a delimited item file (-f) plus the structure
flags, or from a yaml/json definition file (--definition). Item file columns
are id, value, cost, then one column per feature holding the item's 1-based
group, a ':' list of groups, or '-' for none. '#' starts a comment.

Each output line is one collection: its item ids in ascending item order,
then its value.

Constraints (-C, repeatable) take the form t:n:m:
  mingrp:n:m    items from at least m groups of feature n
  maxitem:n:m   at most m items in any one group of feature n

Search modes (--smode):
  1  fewest-to-most combinations, decreasing value
  2  most-to-fewest combinations, decreasing value
  3  fewest-to-most combinations, increasing cost
  4  most-to-fewest combinations, increasing cost

Examples:
  collection_search run -f players.csv -H -P 1 -G 1:2:2:1 --ispart 1 --ispart 2 \
      -C maxitem:2:3 --maxcost 100 -o stdout
  collection_search run --definition week12.yaml -o results.txt -V 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProblem(cmd, o)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.itemFile, "file", "f", "", "delimited item file")
	f.BoolVarP(&o.hasHeader, "header", "H", false, "the item file has a header line")
	f.StringVarP(&o.delimiter, "delimiter", "d", ",", "column delimiter, a single character or 'tab'")
	f.StringVar(&o.definitionFile, "definition", "", "problem definition file (yaml or json) instead of -f")
	f.StringVar(&o.saveDefinition, "save-definition", "", "write the problem definition built from -f to this yaml file")
	f.StringVar(&o.name, "name", "", "problem name, defaults to the input file name")

	f.IntVarP(&o.primary, "primary", "P", 0, "primary feature, 1-based")
	f.StringVarP(&o.picks, "picks", "G", "", "items to pick from each primary group, n1:n2:...")
	f.IntSliceVar(&o.partitions, "ispart", nil, "feature that is a partition, 1-based (repeatable)")
	f.StringArrayVarP(&o.constraints, "constraint", "C", nil, "constraint t:n:m (repeatable)")
	f.Float32Var(&o.maxCost, "maxcost", -1, "maximum total cost of a collection")

	f.Float32Var(&o.ctol, "ctol", config.DefaultCollectionTolerance, "collection tolerance in [0,1]; 0 keeps only the best")
	f.Float32Var(&o.itol, "itol", config.DefaultItemTolerance, "item cull tolerance, >= 0; 0 culls hardest")
	f.IntVar(&o.ntol, "ntol", config.DefaultExtraKeep, "extra better items per group required to cull an item")
	f.IntVar(&o.resnumb, "resnumb", config.DefaultBlockSize, "store block size in collections, >= 10")
	f.IntVar(&o.maxres, "maxres", config.DefaultMaxRetained, "maximum collections kept, 0 for no limit")
	f.IntVar(&o.smode, "smode", config.DefaultSearchMode, "search mode 1..4")
	f.Float32Var(&o.mctol, "mctol", config.DefaultCostRoundingTolerance, "slack allowed over maxcost for rounding")
	f.IntVarP(&o.verbosity, "verbosity", "V", 0, "diagnostic bit mask, 0 for silent")
	f.StringVarP(&o.output, "output", "o", "", "result file, or 'stdout'; omitted means no output")
	return cmd
}

// parameters turns the tuning flags into search parameters.
func (o runFlags) parameters() (config.SearchParameters, error) {
	if o.ctol < 0 || o.ctol > 1 {
		return config.SearchParameters{}, fmt.Errorf("ctol must be in [0,1], got %v", o.ctol)
	}
	if o.resnumb < 10 {
		return config.SearchParameters{}, fmt.Errorf("resnumb must be >= 10, got %d", o.resnumb)
	}
	params := config.SearchParameters{
		CollectionTolerance:   o.ctol,
		ItemTolerance:         o.itol,
		ExtraKeep:             o.ntol,
		BlockSize:             o.resnumb,
		MaxRetained:           o.maxres,
		SearchMode:            o.smode,
		CostRoundingTolerance: o.mctol,
	}
	if errs := params.Validate(); len(errs) > 0 {
		return params, errors.New(strings.Join(errs, "; "))
	}
	return params, nil
}

// definition builds the problem from whichever input was given.
func (o runFlags) definition(cmd *cobra.Command) (model.ProblemDefinition, error) {
	switch {
	case o.itemFile != "" && o.definitionFile != "":
		return model.ProblemDefinition{}, errors.New("use either -f or --definition, not both")
	case o.definitionFile != "":
		def, err := loader.ReadDefinitionFile(o.definitionFile)
		if err != nil {
			return def, err
		}
		if o.name != "" {
			def.Name = o.name
		}
		// Tuning flags given explicitly win over the file.
		if anyChanged(cmd, "ctol", "itol", "ntol", "resnumb", "maxres", "smode", "mctol") || def.Parameters == nil {
			params, err := o.parameters()
			if err != nil {
				return def, err
			}
			def.Parameters = &params
		}
		return def, nil
	case o.itemFile == "":
		return model.ProblemDefinition{}, errors.New("an item file (-f) or a definition file (--definition) is required")
	}

	if o.primary <= 0 {
		return model.ProblemDefinition{}, errors.New("primary feature (-P) must be >= 1")
	}
	if o.picks == "" {
		return model.ProblemDefinition{}, errors.New("picks (-G) are required with -f")
	}
	if o.maxCost < 0 {
		return model.ProblemDefinition{}, errors.New("--maxcost is required with -f")
	}
	picks, err := loader.ParsePicks(o.picks)
	if err != nil {
		return model.ProblemDefinition{}, err
	}
	delim, err := loader.ParseDelimiter(o.delimiter)
	if err != nil {
		return model.ProblemDefinition{}, err
	}
	params, err := o.parameters()
	if err != nil {
		return model.ProblemDefinition{}, err
	}
	opts := loader.RunOptions{
		Primary:    o.primary,
		Picks:      picks,
		Partitions: o.partitions,
		MaxCost:    o.maxCost,
		Parameters: params,
	}
	for _, s := range o.constraints {
		c, err := loader.ParseConstraint(s)
		if err != nil {
			return model.ProblemDefinition{}, err
		}
		opts.Constraints = append(opts.Constraints, c)
	}

	items, err := loader.ReadFile(o.itemFile, loader.FileOptions{Delimiter: delim, HasHeader: o.hasHeader})
	if err != nil {
		return model.ProblemDefinition{}, err
	}
	name := o.name
	if name == "" {
		name = problemNameFromPath(o.itemFile)
	}
	return loader.BuildDefinition(name, items, opts)
}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

// problemNameFromPath derives a valid problem name from a file name.
func problemNameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		}
		return '_'
	}, base)
	if name == "" || !isAlnum(rune(name[0])) {
		name = "p" + name
	}
	return name
}

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func runProblem(cmd *cobra.Command, o runFlags) error {
	verbosity := search.Verbosity(0)
	if o.verbosity > 0 {
		verbosity = search.Verbosity(o.verbosity)
	}
	level := "warn"
	if verbosity != 0 {
		level = "debug"
	}
	logger, err := logging.NewConsole(level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	def, err := o.definition(cmd)
	if err != nil {
		return err
	}
	if o.saveDefinition != "" {
		if err := loader.WriteDefinitionFile(o.saveDefinition, def); err != nil {
			return err
		}
	}
	if len(def.Constraints) == 0 && verbosity != 0 {
		logger.Warn("no constraints specified")
	}
	logger.Info("problem read",
		zap.String("problem", def.Name),
		zap.Int("items", len(def.Items)),
		zap.Int("features", len(def.Features)),
	)

	instance, err := engine.BuildInstance(def, config.DefaultSearchParameters(), logger)
	if err != nil {
		return fmt.Errorf("lock and load failed: %w", err)
	}
	defer instance.Release()

	counters, err := instance.Execute(verbosity)
	if err != nil {
		return fmt.Errorf("execute failed: %w", err)
	}
	logger.Info("search finished", zap.Int64("added", counters.Added), zap.Int64("analyzed", counters.Analyzed))

	if o.output == "" {
		return nil
	}
	if o.output == loader.Stdout {
		return writeBlocks(cmd.OutOrStdout(), instance, def)
	}
	file, err := os.Create(o.output)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	if err := writeBlocks(file, instance, def); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// writeBlocks streams the retained collections through the result cursor,
// one block at a time.
func writeBlocks(w io.Writer, instance *engine.ProblemInstance, def model.ProblemDefinition) error {
	total := instance.PrepareResults()
	width := instance.CollectionLength()

	size := resultBlock
	if size > total {
		size = total
	}
	items := make([][]int, size)
	for i := range items {
		items[i] = make([]int, width)
	}
	values := make([]float32, size)

	for done := 0; done < total; {
		n := instance.GetResults(size, items, values)
		if n <= 0 {
			return fmt.Errorf("error retrieving results after %d of %d", done, total)
		}
		block := make([]model.Collection, n)
		for i := 0; i < n; i++ {
			c := model.Collection{Rank: done + i + 1, Items: items[i], Value: values[i]}
			for _, item := range items[i] {
				c.ItemIDs = append(c.ItemIDs, def.Items[item].ID)
			}
			block[i] = c
		}
		if err := loader.WriteResults(w, block); err != nil {
			return fmt.Errorf("failed to write results: %w", err)
		}
		done += n
	}
	return nil
}
