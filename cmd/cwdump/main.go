// cwdump prints captured callback invocations and the signature catalog.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/callwire/callback"
	"github.com/chazu/callwire/capture"
	"github.com/chazu/callwire/config"
	"github.com/chazu/callwire/dispatch"
	"github.com/chazu/callwire/signature"
)

func main() {
	dir := flag.String("C", ".", "Directory to search for callwire.toml")
	catalogPath := flag.String("catalog", "", "Signature catalog (overrides [catalog] path)")
	dbPath := flag.String("db", "", "Capture database (overrides [capture] path)")
	kinds := flag.Bool("kinds", false, "List catalog signatures and exit")
	kind := flag.Int("kind", -1, "Only show invocations of this kind")
	failed := flag.Bool("failed", false, "Only show invocations whose dispatch failed")
	limit := flag.Int("n", 0, "Show at most n invocations")
	decode := flag.Bool("decode", false, "Decode arguments against the catalog")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cwdump [options] [record-id...]\n\n")
		fmt.Fprintf(os.Stderr, "Prints invocations captured by a dispatcher with [capture] enabled.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cwdump -kinds                 # List known callback signatures\n")
		fmt.Fprintf(os.Stderr, "  cwdump -failed -decode        # Show failed invocations with arguments\n")
		fmt.Fprintf(os.Stderr, "  cwdump -kind 3 -n 10          # First ten captured of kind 3\n")
		fmt.Fprintf(os.Stderr, "  cwdump <id>                   # Decode one invocation\n")
	}
	flag.Parse()

	cfg, err := config.FindAndLoad(*dir)
	if err != nil {
		fail(err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ConfigureLogging()

	if *catalogPath == "" {
		*catalogPath = cfg.CatalogPath()
	}
	if *dbPath == "" {
		*dbPath = cfg.CapturePath()
	}

	var cat *signature.Catalog
	if *kinds || *decode || flag.NArg() > 0 {
		cat, err = signature.LoadCatalog(*catalogPath)
		if err != nil {
			fail(err)
		}
	}
	if *kinds {
		for _, sig := range cat.Signatures() {
			fmt.Printf("%4d  %s\n", sig.Kind, sig)
		}
		return
	}

	store, err := capture.Open(*dbPath)
	if err != nil {
		fail(err)
	}
	defer store.Close()

	var recs []*capture.Record
	if flag.NArg() > 0 {
		for _, id := range flag.Args() {
			rec, err := store.Get(id)
			if err != nil {
				fail(fmt.Errorf("%s: %w", id, err))
			}
			recs = append(recs, rec)
		}
		*decode = true
	} else {
		q := capture.Query{Failed: *failed, Limit: *limit}
		if *kind >= 0 {
			k := callback.Kind(*kind)
			q.Kind = &k
		}
		recs, err = store.List(q)
		if err != nil {
			fail(err)
		}
	}

	for _, rec := range recs {
		fmt.Printf("%s  %s\n", rec.Time().Format("2006-01-02 15:04:05.000"), rec)
		if *decode {
			printDecoded(cat, cfg.Wire.PointerSize, rec)
		}
	}
}

// printDecoded shows the arguments of rec. Continuations are printed raw,
// with default caller slots left at zero.
func printDecoded(cat *signature.Catalog, pointerSize int, rec *capture.Record) {
	sig, ok := cat.Lookup(rec.Kind)
	if !ok {
		fmt.Printf("    kind %d is not in the catalog\n", rec.Kind)
		return
	}
	inv, err := dispatch.Describe(sig, &signature.Codec{}, rec.Buffer, pointerSize)
	if err != nil {
		fmt.Printf("    %s: %v\n", sig.Name, err)
		return
	}
	fmt.Printf("    %s resource=%d target=%v\n", sig.Name, inv.ResourceID, inv.Target)
	for i, arg := range inv.Args {
		fmt.Printf("    [%d] %v = %v\n", i, sig.Params[i], arg)
	}
	if extra := len(rec.Buffer) - inv.Consumed; extra > 0 {
		fmt.Printf("    %d trailing bytes\n", extra)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
