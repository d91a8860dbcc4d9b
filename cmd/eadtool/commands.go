package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/eadtool/internal/compliance"
	"github.com/dgallion1/eadtool/internal/parser"
	"github.com/dgallion1/eadtool/internal/pipeline"
	"github.com/dgallion1/eadtool/internal/report"
	"github.com/dgallion1/eadtool/internal/rewrite"
	"github.com/dgallion1/eadtool/internal/source"
	"github.com/dgallion1/eadtool/internal/structure"
)

func runCompare(ctx context.Context, a *app, args []string) int {
	fs := subcommand(a, "compare", "<file1.xml> <file2.xml>")
	maxDepth := fs.Int("max-depth", a.cfg.MaxDepth, "Deepest level included in the outline")
	lines := fs.Int("lines", a.cfg.CompareLines, "Outline lines shown per file")
	sequential := fs.Bool("sequential", false, "Print the outlines one after the other")
	files, code, ok := a.parseArgs(fs, args, 2)
	if !ok {
		return code
	}

	left, ok := a.read(ctx, files[0])
	if !ok {
		return exitFail
	}
	right, ok := a.read(ctx, files[1])
	if !ok {
		return exitFail
	}

	cmp := structure.Compare(
		structure.Input{Name: source.Name(files[0]), R: bytes.NewReader(left)},
		structure.Input{Name: source.Name(files[1]), R: bytes.NewReader(right)},
		*maxDepth,
	)
	if *sequential {
		a.out.Comparison(cmp, *lines)
	} else {
		a.out.SideBySide(cmp, *lines)
	}

	if cmp.Left.Failed() || cmp.Right.Failed() {
		return exitFail
	}
	return exitOK
}

func runStructure(ctx context.Context, a *app, args []string) int {
	fs := subcommand(a, "structure", "<file.xml>")
	maxDepth := fs.Int("max-depth", a.cfg.MaxDepth, "Deepest level included in the outline")
	files, code, ok := a.parseArgs(fs, args, 1)
	if !ok {
		return code
	}

	data, ok := a.read(ctx, files[0])
	if !ok {
		return exitFail
	}

	name := source.Name(files[0])
	side := structure.Side{
		Name:  name,
		Lines: structure.Lines(structure.Extract(bytes.NewReader(data), name, *maxDepth)),
	}
	a.out.Outline(side.Name, side.Lines)
	if side.Failed() {
		return exitFail
	}
	return exitOK
}

func runSection(ctx context.Context, a *app, args []string) int {
	fs := subcommand(a, "section", "<file.xml> --section <name>")
	section := fs.StringP("section", "s", "", "Element name of the section to print")
	files, code, ok := a.parseArgs(fs, args, 1)
	if !ok {
		return code
	}
	if *section == "" {
		fmt.Fprintln(a.stderr, "error: --section is required")
		fs.Usage()
		return exitUsage
	}

	data, ok := a.read(ctx, files[0])
	if !ok {
		return exitFail
	}

	doc, err := parser.Parse(bytes.NewReader(data), files[0])
	if err != nil {
		fmt.Fprintf(a.stdout, "Error: %v\n", err)
		return exitFail
	}
	out, found := structure.Section(doc, *section)
	if !found {
		fmt.Fprintln(a.stdout, structure.NotFoundMessage(files[0], *section))
		return exitOK
	}
	fmt.Fprintln(a.stdout, out)
	return exitOK
}

func runValidate(ctx context.Context, a *app, args []string) int {
	fs := subcommand(a, "validate", "<file.xml>")
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	files, code, ok := a.parseArgs(fs, args, 1)
	if !ok {
		return code
	}

	data, ok := a.read(ctx, files[0])
	if !ok {
		return exitFail
	}

	v := compliance.Validate(bytes.NewReader(data), files[0])
	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			return exitFail
		}
	} else {
		a.out.Validation(files[0], v)
	}

	if !v.WellFormed {
		return exitFail
	}
	return exitOK
}

// reviewHint is printed after a local rewrite.
func (a *app) reviewHint(in, out string) {
	fmt.Fprintf(a.stdout, "\nOutput written to: %s\n", out)
	if !source.IsS3(out) {
		fmt.Fprintf(a.stdout, "Review the changes, then run: mv %s %s\n", out, in)
	}
}

func runAddUnittitles(ctx context.Context, a *app, args []string) int {
	fs := subcommand(a, "add-unittitles", "<file.xml> [-o output]")
	title := fs.StringP("title", "t", a.cfg.UnittitleText, "Text of the inserted unittitle")
	output := fs.StringP("output", "o", "", "Output location (default <file>.new)")
	files, code, ok := a.parseArgs(fs, args, 1)
	if !ok {
		return code
	}

	data, ok := a.read(ctx, files[0])
	if !ok {
		return exitFail
	}

	out, stats := rewrite.AddUnittitles(data, *title)
	dest := *output
	if dest == "" {
		dest = files[0] + ".new"
	}
	if !a.write(ctx, dest, out) {
		return exitFail
	}

	fmt.Fprintf(a.stdout, "Found %d container elements\n", stats.Containers)
	fmt.Fprintf(a.stdout, "Existing unittitles: %d\n", stats.Existing)
	fmt.Fprintf(a.stdout, "Added %d new unittitle elements\n", stats.Added)
	fmt.Fprintf(a.stdout, "Total unittitles now: %d\n", stats.Total)
	a.reviewHint(files[0], dest)
	return exitOK
}

func runListsToP(ctx context.Context, a *app, args []string) int {
	fs := subcommand(a, "lists-to-p", "<file.xml> [-o output]")
	output := fs.StringP("output", "o", "", "Output location (default <file>.new)")
	files, code, ok := a.parseArgs(fs, args, 1)
	if !ok {
		return code
	}

	data, ok := a.read(ctx, files[0])
	if !ok {
		return exitFail
	}

	out, stats := rewrite.ConvertLists(data)
	dest := *output
	if dest == "" {
		dest = files[0] + ".new"
	}
	if !a.write(ctx, dest, out) {
		return exitFail
	}

	fmt.Fprintf(a.stdout, "Converted %d list elements to p elements\n", stats.Converted)
	fmt.Fprintf(a.stdout, "Remaining list elements: %d\n", stats.Remaining)
	a.reviewHint(files[0], dest)
	return exitOK
}

func runBatch(ctx context.Context, a *app, args []string) int {
	fs := subcommand(a, "batch", "<file.xml>... [--xlsx report.xlsx] [--markdown]")
	xlsxOut := fs.String("xlsx", "", "Write a spreadsheet report to this location")
	markdown := fs.Bool("markdown", false, "Print a Markdown table instead of per-file reports")
	files, code, ok := a.parseArgs(fs, args, anyFiles)
	if !ok {
		return code
	}

	inputs := make([]pipeline.Input, 0, len(files))
	for _, location := range files {
		data, ok := a.read(ctx, location)
		if !ok {
			code = exitFail
			continue
		}
		inputs = append(inputs, pipeline.Input{Name: location, Data: data})
	}

	w := pipeline.NewWorker(a.log, a.cfg.MaxConcurrentFiles)
	results := w.AnalyzeAll(ctx, inputs)

	if *markdown {
		a.stdout.Write(report.BatchMarkdown(results))
	} else {
		for _, r := range results {
			fmt.Fprintf(a.stdout, "\n%s\n", r.Source)
			a.out.Analysis(r.Report)
		}
	}

	if *xlsxOut != "" {
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, results); err != nil {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
			return exitFail
		}
		if !a.write(ctx, *xlsxOut, buf.Bytes()) {
			return exitFail
		}
		fmt.Fprintf(a.stdout, "\nSpreadsheet written to: %s\n", *xlsxOut)
	}

	for _, r := range results {
		if r.Report.Error != "" {
			code = exitFail
		}
	}
	return code
}
