package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/session"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
)

// ParseFormat validates an output format name
func ParseFormat(name string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(name)); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary:
		return f, nil
	case "":
		return FormatSummary, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	now    func() time.Time
}

// New creates a new Reporter
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		now:    time.Now,
	}
}

// groupReport is the serialized form of one group
type groupReport struct {
	ID               string                `json:"id" yaml:"id"`
	SizePerFile      int64                 `json:"size_per_file" yaml:"size_per_file"`
	ReclaimableBytes int64                 `json:"reclaimable_bytes" yaml:"reclaimable_bytes"`
	Files            []*scanner.FileRecord `json:"files" yaml:"files"`
}

// report is the serialized form of a finished scan
type report struct {
	Timestamp            string        `json:"timestamp" yaml:"timestamp"`
	Mode                 string        `json:"mode" yaml:"mode"`
	Status               string        `json:"status" yaml:"status"`
	FilesScanned         int           `json:"files_scanned" yaml:"files_scanned"`
	GroupCount           int           `json:"group_count" yaml:"group_count"`
	DuplicateFiles       int           `json:"duplicate_files" yaml:"duplicate_files"`
	ReclaimableBytes     int64         `json:"reclaimable_bytes" yaml:"reclaimable_bytes"`
	ReclaimableFormatted string        `json:"reclaimable_formatted" yaml:"reclaimable_formatted"`
	Groups               []groupReport `json:"groups" yaml:"groups"`
}

func mode(state session.State) string {
	if state.SimilarResults {
		return "similar"
	}
	return "exact"
}

func (r *Reporter) build(state session.State) report {
	rep := report{
		Timestamp:            r.now().Format(time.RFC3339),
		Mode:                 mode(state),
		Status:               string(state.Phase),
		FilesScanned:         state.FilesScanned,
		GroupCount:           len(state.Groups),
		DuplicateFiles:       state.DuplicateFiles,
		ReclaimableBytes:     state.ReclaimableBytes,
		ReclaimableFormatted: utils.FormatBytes(state.ReclaimableBytes),
		Groups:               []groupReport{},
	}
	for _, g := range state.Groups {
		rep.Groups = append(rep.Groups, groupReport{
			ID:               g.ID,
			SizePerFile:      g.SizePerFile,
			ReclaimableBytes: g.ReclaimableBytes(),
			Files:            g.Files,
		})
	}
	return rep
}

// Report generates a report from a session snapshot
func (r *Reporter) Report(state session.State) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(state)
	case FormatJSON:
		return r.reportJSON(state)
	case FormatYAML:
		return r.reportYAML(state)
	case FormatSummary:
		return r.reportSummary(state)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(state session.State) error {
	title := "Duplicate"
	if state.SimilarResults {
		title = "Similar Image"
	}
	fmt.Fprintf(r.writer, "=== %s Summary ===\n", title)
	fmt.Fprintf(r.writer, "Status: %s\n", state.Message)
	fmt.Fprintf(r.writer, "Files Scanned: %d\n", state.FilesScanned)
	fmt.Fprintf(r.writer, "Groups: %d\n", len(state.Groups))
	fmt.Fprintf(r.writer, "Duplicate Files: %d\n", state.DuplicateFiles)
	fmt.Fprintf(r.writer, "Reclaimable: %s\n", utils.FormatBytes(state.ReclaimableBytes))

	if len(state.Groups) > 0 {
		fmt.Fprintf(r.writer, "\nLargest groups:\n")
		for i, g := range largest(state.Groups, 5) {
			fmt.Fprintf(r.writer, "  %d. %d files x %s  (%s)\n",
				i+1, len(g.Files), utils.FormatBytes(g.SizePerFile), keptPath(g))
		}
	}

	return nil
}

// largest returns up to n groups ordered by reclaimable bytes, ties in scan order
func largest(groups []*scanner.DuplicateGroup, n int) []*scanner.DuplicateGroup {
	out := append([]*scanner.DuplicateGroup(nil), groups...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ReclaimableBytes() > out[j-1].ReclaimableBytes(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func keptPath(g *scanner.DuplicateGroup) string {
	if k := g.Kept(); k != nil {
		return "keeping " + k.Path
	}
	return "nothing kept"
}

func truncatePath(path string, width int) string {
	if len(path) > width {
		return "..." + path[len(path)-(width-3):]
	}
	return path
}

// reportTable generates a table report
func (r *Reporter) reportTable(state session.State) error {
	rule := strings.Repeat("-", 110)

	// Print header
	fmt.Fprintf(r.writer, "%-6s | %-60s | %-12s | %s\n", "Action", "Path", "Size", "Modified")
	fmt.Fprintf(r.writer, "%s\n", rule)

	for i, g := range state.Groups {
		fmt.Fprintf(r.writer, "Group %d: %d files, %s reclaimable\n",
			i+1, len(g.Files), utils.FormatBytes(g.ReclaimableBytes()))
		for _, file := range g.Files {
			action := "remove"
			if file.Kept {
				action = "keep"
			}
			fmt.Fprintf(r.writer, "%-6s | %-60s | %-12s | %s\n",
				action,
				truncatePath(file.Path, 60),
				utils.FormatBytes(file.Size),
				file.ModTime.Format("2006-01-02 15:04:05"))
		}
	}

	// Print summary
	fmt.Fprintf(r.writer, "%s\n", rule)
	fmt.Fprintf(r.writer, "Total: %d groups, %d files, %s reclaimable\n",
		len(state.Groups), state.DuplicateFiles, utils.FormatBytes(state.ReclaimableBytes))

	return nil
}

// reportJSON generates a JSON report
func (r *Reporter) reportJSON(state session.State) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.build(state))
}

// reportYAML generates a YAML report
func (r *Reporter) reportYAML(state session.State) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(r.build(state))
}

// ReportRemoval writes a plain-text summary of a removal batch
func (r *Reporter) ReportRemoval(result *cleaner.RemovalResult) {
	fmt.Fprintf(r.writer, "Moved %d files to trash, freed %s\n",
		len(result.Trashed), utils.FormatBytes(result.FreedBytes))
	if len(result.BackedUp) > 0 {
		fmt.Fprintf(r.writer, "Backed up %d files\n", len(result.BackedUp))
	}
	if len(result.Skipped) > 0 {
		fmt.Fprintf(r.writer, "Skipped %d protected files\n", len(result.Skipped))
	}
	if len(result.Errors) > 0 {
		fmt.Fprint(r.writer, cleaner.FormatErrorSummary(result.Errors))
	}
}

// SaveToFile saves the report to a file
func SaveToFile(state session.State, path string, format OutputFormat) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	reporter := New(file, format)
	return reporter.Report(state)
}
