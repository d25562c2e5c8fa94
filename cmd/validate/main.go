// Command validate checks a crime backend response dump against the record
// normalization rules: every record decodes, and the report lists how many
// records lack an ID, a type, coordinates, or a parseable timestamp. With
// -types it also reports how many records the secondary type filter keeps.
//
// Usage:
//
//	curl -s "$CRIME_API_URL/crimeReports?action=filter&..." > crimes.json
//	go run ./cmd/validate -file crimes.json -types "ASSAULT,ROBBERY" -strict
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
)

type report struct {
	total          int
	missingID      int
	missingType    int
	missingCoords  int
	unparsedTime   int
	matchingFilter int
	typeCounts     map[string]int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "validate:", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "path to a crime backend JSON response")
	types := flag.String("types", "", "comma-separated crime types for the secondary filter")
	strict := flag.Bool("strict", false, "fail when any record lacks an ID or coordinates")
	flag.Parse()

	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	body, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}
	records, err := domain.DecodeRecords(body)
	if err != nil {
		return fmt.Errorf("decode %s: %w", *file, err)
	}

	var selected []string
	if *types != "" {
		selected = strings.Split(*types, ",")
	}
	r := check(records, domain.NewFilterState(selected, domain.TimeRange{}))
	r.print()

	if *strict && (r.missingID > 0 || r.missingCoords > 0) {
		return fmt.Errorf("%d records without ID, %d without coordinates", r.missingID, r.missingCoords)
	}
	return nil
}

func check(records []domain.CrimeRecord, f domain.FilterState) report {
	r := report{total: len(records), typeCounts: make(map[string]int)}
	for _, rec := range records {
		if rec.ID == "" {
			r.missingID++
		}
		if strings.TrimSpace(rec.Type) == "" {
			r.missingType++
		}
		if rec.Coordinates == nil {
			r.missingCoords++
		}
		if rec.ReportedAt.IsZero() {
			r.unparsedTime++
		}
		if domain.MatchesFilter(f, rec) {
			r.matchingFilter++
		}
		for _, tok := range strings.Split(rec.Type, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				r.typeCounts[tok]++
			}
		}
	}
	return r
}

func (r report) print() {
	fmt.Printf("records:            %d\n", r.total)
	fmt.Printf("missing id:         %d\n", r.missingID)
	fmt.Printf("missing type:       %d\n", r.missingType)
	fmt.Printf("missing coords:     %d\n", r.missingCoords)
	fmt.Printf("unparsed timestamp: %d\n", r.unparsedTime)
	fmt.Printf("matching filter:    %d\n", r.matchingFilter)

	names := make([]string, 0, len(r.typeCounts))
	for name := range r.typeCounts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if r.typeCounts[names[i]] != r.typeCounts[names[j]] {
			return r.typeCounts[names[i]] > r.typeCounts[names[j]]
		}
		return names[i] < names[j]
	})
	fmt.Println("types:")
	for _, name := range names {
		fmt.Printf("  %-40s %d\n", name, r.typeCounts[name])
	}
}
