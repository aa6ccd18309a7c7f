// Command import_bikes bulk-loads bike names from a text file (one per line)
// into the configured store and saves the result.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"bike-rental/command"
	"bike-rental/config"
	"bike-rental/rental"
	"bike-rental/storage"
)

func main() {
	configPath := flag.String("config", "bike-rental.yaml", "Path to the YAML config file")
	file := flag.String("file", "bikes.txt", "File with one bike name per line")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", *file, err)
		os.Exit(1)
	}
	defer f.Close()

	backend, err := storage.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	ctx := context.Background()
	mgr, err := storage.LoadManager(ctx, backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading store: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Importing bikes from %s...\n", *file)
	successCount, errorCount, err := importBikes(mgr, f, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *file, err)
		os.Exit(1)
	}

	if err := backend.Save(ctx, mgr.Snapshot(), mgr.Prefs()); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving store: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d bikes\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Println("\nRegistered bikes:")
		fmt.Printf("%-5s %-32s\n", "#", "Name")
		fmt.Println(strings.Repeat("-", 38))
		for i, b := range mgr.Store().Bikes() {
			fmt.Printf("%-5d %-32s\n", i+1, b.Name)
		}
	}
}

// importBikes adds every valid, non-blank, non-comment line of r as a bike.
// Lines that fail validation or duplicate an existing bike are reported to
// out and skipped.
func importBikes(mgr *rental.Manager, r io.Reader, out io.Writer) (ok, failed int, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fmt.Fprintf(out, "Importing: %s... ", line)
		b, err := rental.NewBike(line)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			failed++
			continue
		}
		if _, err := (command.AddBike{Bike: b}).Execute(mgr); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			failed++
			continue
		}
		fmt.Fprintln(out, "SUCCESS")
		ok++
	}
	return ok, failed, sc.Err()
}
