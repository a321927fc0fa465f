package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pyhub-apps/nh3ingest/pkg/extract"
	"github.com/pyhub-apps/nh3ingest/pkg/normalize"
	"github.com/pyhub-apps/nh3ingest/pkg/probe"
)

func main() {
	start := flag.Int("start", probe.DefaultStart, "First page to scan (1-based)")
	encoding := flag.String("encoding", string(extract.DefaultEncoding), "Cell encoding: utf-8 or latin-1")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-start N] [-encoding E] report.pdf [strategy...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	path := flag.Arg(0)
	names := flag.Args()[1:]
	if len(names) == 0 {
		names = []string{extract.StrategyStream, extract.StrategyLattice}
	}

	ctx := context.Background()
	pages := probe.New(*start, log).Probe(ctx, path)
	fmt.Printf("%s: pages %s\n", path, pages)

	// Try every strategy, unlike the pipeline which stops at the first hit
	for _, name := range names {
		s, err := extract.ByName(name, log)
		if err != nil {
			log.Fatal().Err(err).Send()
		}

		fmt.Printf("\nStrategy: %s\n", name)
		frags, err := s.Extract(ctx, path, pages, extract.Encoding(*encoding))
		if err != nil {
			fmt.Printf("  Failed: %v\n", err)
			continue
		}
		if len(frags) == 0 {
			fmt.Println("  No tables found")
			continue
		}

		fmt.Printf("  Found %d table(s)\n", len(frags))
		for j, f := range frags {
			fmt.Printf("\n  Table %d (page %d): %d rows x %d columns, %s schema\n",
				j+1, f.Page, len(f.Rows), f.Columns(), normalize.SchemaFor(f.Columns()).Kind)
			printTable(f.Rows, f.Columns())
		}
	}
}

// printTable prints rows in a formatted way
func printTable(rows [][]string, columns int) {
	if len(rows) == 0 {
		return
	}

	colWidths := make([]int, columns)
	for _, row := range rows {
		for j, cell := range row {
			if j < len(colWidths) {
				colWidths[j] = max(colWidths[j], len([]rune(strings.TrimSpace(cell))))
			}
		}
	}
	for i := range colWidths {
		colWidths[i] = min(max(colWidths[i], 3), 30)
	}

	printSeparator(colWidths)
	for i, row := range rows {
		fmt.Print("    |")
		for j := 0; j < len(colWidths); j++ {
			cell := ""
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
				if r := []rune(cell); len(r) > colWidths[j] {
					cell = string(r[:colWidths[j]-3]) + "..."
				}
			}
			fmt.Printf(" %-*s |", colWidths[j], cell)
		}
		fmt.Println()

		if i == 0 {
			printSeparator(colWidths)
		}
	}
	printSeparator(colWidths)
}

func printSeparator(colWidths []int) {
	fmt.Print("    +")
	for _, width := range colWidths {
		fmt.Print(strings.Repeat("-", width+2) + "+")
	}
	fmt.Println()
}
