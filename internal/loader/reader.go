// Package loader reads the delimited item files used by the run command and
// writes result files in the matching line format.
//
// An item file holds one item per line: id, value, cost, then one column per
// feature. A feature cell is a ':' separated list of 1-based group numbers,
// or '-' when the item belongs to no group of that feature. Anything after a
// '#' is ignored, as are blank lines. The first remaining line may be a header.
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-collection-search/store"
)

// MinValue is the exclusive lower bound on item values and costs.
const MinValue = -999998

const (
	commentChar = '#'
	listSep     = ":"
	noGroup     = "-"
)

var (
	// ErrInvalidDelimiter is returned for delimiters the format reserves
	ErrInvalidDelimiter = errors.New("delimiter must be a single character other than ':' and '#'")

	// ErrMalformedFile is returned when the file cannot be parsed
	ErrMalformedFile = errors.New("malformed item file")

	// ErrVerificationFailed is returned when a parsed file breaks a content rule
	ErrVerificationFailed = errors.New("item file failed verification")
)

// FileOptions describes the layout of an item file.
type FileOptions struct {
	Delimiter rune
	HasHeader bool
}

// DefaultFileOptions is comma separated without a header.
func DefaultFileOptions() FileOptions {
	return FileOptions{Delimiter: ','}
}

// ParseDelimiter accepts a single character or the word "tab".
func ParseDelimiter(s string) (rune, error) {
	if s == "tab" {
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 || r[0] == ':' || r[0] == commentChar {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}
	return r[0], nil
}

// ItemFile is the parsed content of an item file. Groups[f][i] lists the
// 1-based groups of item i in feature f.
type ItemFile struct {
	IDs    []string
	Values []float32
	Costs  []float32
	Groups [][][]int
}

// ItemCount returns the number of items read.
func (f *ItemFile) ItemCount() int { return len(f.IDs) }

// FeatureCount returns the number of feature columns.
func (f *ItemFile) FeatureCount() int { return len(f.Groups) }

// MaxGroup returns the largest group number used in feature fn, 0 if none.
func (f *ItemFile) MaxGroup(fn int) int {
	max := 0
	for _, groups := range f.Groups[fn] {
		for _, g := range groups {
			if g > max {
				max = g
			}
		}
	}
	return max
}

// ReadFile opens and parses an item file.
func ReadFile(path string, opts FileOptions) (*ItemFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open item file: %w", err)
	}
	defer file.Close()

	items, err := ReadItems(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// ReadItems parses an item file. The first non-blank line fixes the column
// count; it must have at least three columns and every later line must match it.
func ReadItems(r io.Reader, opts FileOptions) (*ItemFile, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	delim := string(opts.Delimiter)

	out := &ItemFile{}
	columns := 0
	skipHeader := opts.HasHeader
	lineNo := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexRune(line, commentChar); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cells := strings.Split(line, delim)
		if columns == 0 {
			columns = len(cells)
			if columns < 3 {
				return nil, fmt.Errorf("%w: line %d has %d columns, need id, value, cost", ErrMalformedFile, lineNo, columns)
			}
			out.Groups = make([][][]int, columns-3)
		} else if len(cells) != columns {
			return nil, fmt.Errorf("%w: line %d has %d columns, expected %d", ErrMalformedFile, lineNo, len(cells), columns)
		}
		if skipHeader {
			skipHeader = false
			continue
		}

		value, err := parseNumber(cells[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d value: %v", ErrMalformedFile, lineNo, err)
		}
		cost, err := parseNumber(cells[2])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d cost: %v", ErrMalformedFile, lineNo, err)
		}
		out.IDs = append(out.IDs, strings.TrimSpace(cells[0]))
		out.Values = append(out.Values, value)
		out.Costs = append(out.Costs, cost)

		for fn := range out.Groups {
			groups, err := parseGroups(cells[3+fn])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d feature %d: %v", ErrMalformedFile, lineNo, fn+1, err)
			}
			out.Groups[fn] = append(out.Groups[fn], groups)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read item file: %w", err)
	}
	if columns == 0 {
		return nil, fmt.Errorf("%w: no items", ErrMalformedFile)
	}
	return out, nil
}

func parseNumber(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

// parseGroups reads one feature cell. An empty cell is returned as nil so
// that Verify can report it; '-' is an empty, non-nil list.
func parseGroups(cell string) ([]int, error) {
	cell = strings.TrimSpace(cell)
	switch cell {
	case "":
		return nil, nil
	case noGroup:
		return []int{}, nil
	}
	parts := strings.Split(cell, listSep)
	groups := make([]int, 0, len(parts))
	for _, p := range parts {
		g, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad group number %q", p)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// Verify checks the content rules of a parsed file against the primary
// feature (1-based) and the number of primary groups the picks define. Every
// broken rule is reported.
func Verify(f *ItemFile, primary, primaryGroups int) error {
	var problems []string
	n := f.ItemCount()

	if n > store.MaxItemIndex {
		problems = append(problems, fmt.Sprintf("%d items exceeds the limit of %d", n, store.MaxItemIndex))
	}
	if len(f.Values) != n || len(f.Costs) != n {
		problems = append(problems, "columns differ in length")
	}
	if f.FeatureCount() == 0 {
		problems = append(problems, "at least one feature column is required")
	}
	if primary < 1 || primary > f.FeatureCount() {
		problems = append(problems, fmt.Sprintf("primary feature %d is not between 1 and %d", primary, f.FeatureCount()))
	}
	for fn, col := range f.Groups {
		if len(col) != n {
			problems = append(problems, fmt.Sprintf("feature %d column differs in length", fn+1))
		}
	}

	seen := make(map[string]bool, n)
	for i, id := range f.IDs {
		if id == "" {
			problems = append(problems, fmt.Sprintf("item %d has an empty id", i+1))
		} else if seen[id] {
			problems = append(problems, fmt.Sprintf("duplicate item id %q", id))
		}
		seen[id] = true
	}
	for i := range f.IDs {
		if !(f.Values[i] > MinValue) {
			problems = append(problems, fmt.Sprintf("item %q: value must be > %d", f.IDs[i], MinValue))
		}
		if !(f.Costs[i] > MinValue) {
			problems = append(problems, fmt.Sprintf("item %q: cost must be > %d", f.IDs[i], MinValue))
		}
	}

	for fn, col := range f.Groups {
		for i, groups := range col {
			if groups == nil {
				problems = append(problems, fmt.Sprintf("feature %d item %d: blank cell, use '-' for no group", fn+1, i+1))
			}
			for _, g := range groups {
				if g < 1 {
					problems = append(problems, fmt.Sprintf("feature %d item %d: group %d must be >= 1", fn+1, i+1, g))
				}
				if fn == primary-1 && g > primaryGroups {
					problems = append(problems, fmt.Sprintf("primary feature item %d: group %d exceeds the %d pick groups", i+1, g, primaryGroups))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrVerificationFailed, strings.Join(problems, "; "))
	}
	return nil
}
