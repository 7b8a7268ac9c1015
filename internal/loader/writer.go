package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-collection-search/model"
)

// Stdout is the output name that selects standard output.
const Stdout = "stdout"

// WriteResults writes one line per collection: its items in ascending index
// order, then its value, separated by spaces. Items are written by id when
// the collection carries ids.
func WriteResults(w io.Writer, collections []model.Collection) error {
	bw := bufio.NewWriter(w)
	for _, c := range collections {
		if _, err := bw.WriteString(formatCollection(c)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatCollection(c model.Collection) string {
	order := make([]int, len(c.Items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return c.Items[order[a]] < c.Items[order[b]] })

	var sb strings.Builder
	for _, k := range order {
		if len(c.ItemIDs) == len(c.Items) {
			sb.WriteString(c.ItemIDs[k])
		} else {
			sb.WriteString(strconv.Itoa(c.Items[k]))
		}
		sb.WriteByte(' ')
	}
	sb.WriteString(strconv.FormatFloat(float64(c.Value), 'g', -1, 32))
	sb.WriteByte('\n')
	return sb.String()
}

// WriteResultsFile writes collections to path, or to standard output when
// path is Stdout.
func WriteResultsFile(path string, collections []model.Collection) error {
	if path == Stdout {
		return WriteResults(os.Stdout, collections)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	if err := WriteResults(file, collections); err != nil {
		file.Close()
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return file.Close()
}
