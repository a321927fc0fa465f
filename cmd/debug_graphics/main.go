package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pyhub-apps/nh3ingest"
)

func main() {
	words := flag.Bool("words", false, "Also print the words found on each page")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-words] report.pdf [page...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	doc, err := nh3ingest.Open(path)
	if err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	fmt.Printf("Document has %d pages (backend %s)\n", doc.PageCount(), doc.Backend())

	var pages []int
	for _, arg := range flag.Args()[1:] {
		n, err := strconv.Atoi(arg)
		if err != nil {
			log.Fatalf("Invalid page number %q", arg)
		}
		pages = append(pages, n)
	}
	if len(pages) == 0 {
		for i := 1; i <= doc.PageCount(); i++ {
			pages = append(pages, i)
		}
	}

	rulings, err := nh3ingest.ReadRulings(path, pages)
	if err != nil {
		log.Printf("Failed to read rulings: %v", err)
	}

	for _, nr := range pages {
		page, err := doc.GetPage(nr - 1)
		if err != nil {
			log.Printf("Failed to get page %d: %v", nr, err)
			continue
		}

		objects := page.GetObjects()
		fmt.Printf("\n=== Page %d (%.0f x %.0f) ===\n", nr, page.GetWidth(), page.GetHeight())
		fmt.Printf("  Characters: %d\n", len(objects.Chars))
		fmt.Printf("  Lines: %d\n", len(objects.Lines))
		fmt.Printf("  Rectangles: %d\n", len(objects.Rects))
		fmt.Printf("  Content-stream rulings: %d\n", len(rulings[nr]))

		for i, line := range objects.Lines {
			fmt.Printf("  Line %d: (%.2f, %.2f) to (%.2f, %.2f) width=%.2f\n",
				i+1, line.X0, line.Y0, line.X1, line.Y1, line.Width)
		}
		for i, rect := range objects.Rects {
			fmt.Printf("  Rect %d: (%.2f, %.2f) to (%.2f, %.2f)\n",
				i+1, rect.X0, rect.Y0, rect.X1, rect.Y1)
		}
		for i, line := range rulings[nr] {
			fmt.Printf("  Ruling %d: (%.2f, %.2f) to (%.2f, %.2f) width=%.2f\n",
				i+1, line.X0, line.Y0, line.X1, line.Y1, line.Width)
		}

		if *words {
			for _, w := range page.ExtractWords() {
				fmt.Printf("  Word %q at (%.2f, %.2f)\n", w.Text, w.X0, w.Y0)
			}
		}
	}
}
