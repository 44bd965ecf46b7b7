// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command seeder writes a synthetic document tree laid out the way the path
// classifier expects (sector/subsector/customer/file) and can ingest it.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/docflow"
	"github.com/poiesic/docflow/ai/mock"
	"github.com/poiesic/docflow/config"
	"github.com/poiesic/docflow/ingestion"
	"github.com/poiesic/docflow/routing"
)

var sentences = []string{
	"The quarterly inspection found corrosion on two pressure relief valves.",
	"Operators switched the backup feed at 02:14 without customer impact.",
	"A vendor patch for the SCADA historian was applied during the maintenance window.",
	"Field crews replaced the failed transformer bushing at the north substation.",
	"The incident response team reviewed badge logs for the control room.",
	"Network segmentation between the corporate and plant networks was verified.",
	"Flow readings at the intake exceeded the seasonal baseline by twelve percent.",
	"The tabletop exercise covered a ransomware scenario affecting billing systems.",
	"Two firmware versions on the remote terminal units were found to be outdated.",
	"The compliance audit requested evidence of quarterly access reviews.",
	"Staff completed phishing awareness training ahead of the deadline.",
	"A contractor laptop was quarantined after an endpoint alert.",
	"Redundant fiber links were tested and failed over within two seconds.",
	"The generator load test ran for four hours at eighty percent capacity.",
	"Chlorine dosing was adjusted after the turbidity spike in the east basin.",
	"The emergency operations plan was updated with new contact rosters.",
	"Physical security cameras at the loading dock were repositioned.",
	"A supplier disclosed a vulnerability in its remote access gateway.",
	"Telemetry gaps were traced to a misconfigured cellular modem.",
	"The board approved funding for a second disaster recovery site.",
	"Patient record systems were restored from the overnight backup.",
	"Rail signalling logs showed intermittent faults on the western spur.",
	"Vessel traffic data feeds were delayed during the port outage.",
	"The clearing system processed settlement files two hours late.",
	"Cold storage temperatures stayed within tolerance during the power dip.",
	"Reactor coolant sampling met all regulatory thresholds this month.",
	"The municipal permit portal was offline for scheduled upgrades.",
	"Dam spillway gates were exercised as part of the annual test.",
	"Broadcast transmitters switched to standby power for ninety minutes.",
	"An unusual volume of DNS queries was blocked at the perimeter.",
}

var subsectors = []string{"operations", "security", "compliance", "engineering", "incident_response"}

var customers = []string{"acme", "northwind", "globex", "initech", "umbrella", "stark", "wayne", "tyrell"}

var (
	outDir          = flag.String("out", "./seed_docs", "directory to write documents into")
	seedFileName    = flag.String("src", "", "file of seed sentences, one per line")
	docsPerCustomer = flag.Int("docs", 3, "documents per customer directory")
	sentencesPerDoc = flag.Int("sentences", 6, "sentences per document")
	sectorCount     = flag.Int("sectors", 4, "number of sectors to populate")
	randomSeed      = flag.Uint64("seed", 1, "random seed")
	ingest          = flag.Bool("ingest", false, "ingest the generated tree in batch mode")
	dbPath          = flag.String("db", "./seed_db", "database directory used with -ingest")
	mockAI          = flag.Bool("mock-ai", true, "use offline AI services with -ingest")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over the non-blank lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}, nil
}

// generator lays out documents under root.
type generator struct {
	root      string
	sentences []string
	rng       *rand.Rand
	perDoc    int
}

func (g *generator) paragraph() string {
	var b strings.Builder
	for i := 0; i < g.perDoc; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(g.sentences[g.rng.IntN(len(g.sentences))])
	}
	return b.String()
}

// document renders one file body. The extension picks the format.
func (g *generator) document(title, ext string) string {
	body := g.paragraph()
	switch ext {
	case ".md":
		return fmt.Sprintf("# %s\n\n%s\n\n## Follow-up\n\n%s\n", title, body, g.paragraph())
	case ".html":
		return fmt.Sprintf("<html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>\n",
			title, title, body)
	default:
		return fmt.Sprintf("%s\n\n%s\n", title, body)
	}
}

func (g *generator) write(rel, content string) error {
	path := filepath.Join(g.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// generate writes sector/subsector/customer/report-N files plus a few
// unrouted files at the root, and returns how many it wrote.
func (g *generator) generate(sectors []string, docs int) (int, error) {
	exts := []string{".md", ".txt", ".html"}
	written := 0
	for _, sector := range sectors {
		for _, sub := range pick(g.rng, subsectors, 2) {
			for _, customer := range pick(g.rng, customers, 2) {
				for i := 0; i < docs; i++ {
					ext := exts[g.rng.IntN(len(exts))]
					title := fmt.Sprintf("%s %s report %d", customer, strings.ReplaceAll(sub, "_", " "), i+1)
					rel := filepath.Join(sector, sub, customer, fmt.Sprintf("report-%02d%s", i+1, ext))
					if err := g.write(rel, g.document(title, ext)); err != nil {
						return written, err
					}
					written++
				}
			}
		}
	}
	for i := 0; i < 2; i++ {
		rel := fmt.Sprintf("notes-%02d.txt", i+1)
		if err := g.write(rel, g.document("Unsorted notes", ".txt")); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// pick returns n distinct elements of from in random order.
func pick(rng *rand.Rand, from []string, n int) []string {
	shuffled := slices.Clone(from)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:min(n, len(shuffled))]
}

func ingestTree(ctx context.Context, root string) error {
	cfg := config.DefaultConfig().Apply(
		config.WithWatchDirectories(root),
		config.WithExtensions(".md", ".txt", ".html"),
		config.WithStoragePath(*dbPath),
	)
	if err := cfg.Normalize(); err != nil {
		return err
	}

	var opts []docflow.DatabaseOption
	if *mockAI {
		opts = append(opts, docflow.WithAIProvider(mock.NewMockProvider()))
	}
	db, err := docflow.NewDatabase(cfg, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := db.NewOrchestrator(nil)
	if err != nil {
		return err
	}
	snap, err := orchestrator.Start(ctx, ingestion.ModeBatch, nil)
	if err != nil {
		return err
	}
	slog.Info("ingestion finished",
		"discovered", snap.Discovered,
		"success", snap.Success,
		"failed", snap.Failed,
		"elapsed", snap.Elapsed())
	return nil
}

func main() {
	source := sentences
	if *seedFileName != "" {
		lines, err := linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
		source = slices.Collect(lines)
		if len(source) == 0 {
			panic(fmt.Sprintf("no sentences in %s", *seedFileName))
		}
	}

	rng := rand.New(rand.NewPCG(*randomSeed, *randomSeed))
	names := routing.SectorNames(routing.DefaultSectors)
	sectors := pick(rng, names, *sectorCount)

	g := &generator{
		root:      *outDir,
		sentences: source,
		rng:       rng,
		perDoc:    max(1, *sentencesPerDoc),
	}
	written, err := g.generate(sectors, max(1, *docsPerCustomer))
	if err != nil {
		panic(err)
	}
	slog.Info("generated documents", "count", written, "dir", *outDir, "sectors", strings.Join(sectors, ","))

	if *ingest {
		if err := ingestTree(context.Background(), *outDir); err != nil {
			panic(err)
		}
	}
}
