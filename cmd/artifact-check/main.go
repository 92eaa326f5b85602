// Command artifact-check loads an artifact bundle and verifies that the model,
// feature manifest and scaler agree before the bundle is deployed.
//
//	artifact-check -source file -dir ./artifacts [-version v3] [-json]
//	artifact-check -source fixture -export ./artifacts/fixture-v1
//	artifact-check -source file -dir ./artifacts -publish postgres://...
//
// It exits 1 when the bundle has errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcity/tripduration/internal/config"
	"github.com/smartcity/tripduration/internal/domain"
	"github.com/smartcity/tripduration/internal/regressor"
	"github.com/smartcity/tripduration/internal/repository"
	"github.com/smartcity/tripduration/internal/repository/filesystem"
	"github.com/smartcity/tripduration/internal/repository/postgres"
	"github.com/smartcity/tripduration/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	source := flag.String("source", cfg.ArtifactSource, "artifact source: file, postgres or fixture")
	dir := flag.String("dir", cfg.ArtifactDir, "artifact directory for -source file")
	version := flag.String("version", cfg.ArtifactVersion, "bundle version; empty loads the newest")
	dbURL := flag.String("database-url", cfg.DatabaseURL, "database for -source postgres")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	export := flag.String("export", "", "write the checked bundle to this directory")
	publish := flag.String("publish", "", "store the checked bundle in this database")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, closeRepo, err := openRepository(ctx, *source, *dir, *dbURL, regressor.Options{RemoteURL: cfg.MLServiceURL})
	if err != nil {
		log.Fatalf("Failed to open %s artifacts: %v", *source, err)
	}
	defer closeRepo()
	if err := repo.Health(ctx); err != nil {
		log.Fatalf("Artifact store unavailable: %v", err)
	}

	set, err := repo.LoadArtifacts(ctx, *version)
	if err != nil {
		log.Fatalf("Failed to load artifacts: %v", err)
	}

	report, err := inspect(set)
	if err != nil {
		log.Fatalf("Failed to inspect %q: %v", set.Version, err)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printReport(os.Stdout, report)
	}
	if !report.OK() {
		os.Exit(1)
	}

	if *export == "" && *publish == "" {
		return
	}
	raw, err := repository.Encode(set)
	if err != nil {
		log.Fatalf("Failed to encode %q: %v", set.Version, err)
	}
	if *export != "" {
		if err := filesystem.WriteBundle(*export, raw); err != nil {
			log.Fatalf("Failed to export: %v", err)
		}
		log.Printf("Exported %q to %s", set.Version, *export)
	}
	if *publish != "" {
		if err := publishBundle(ctx, *publish, raw); err != nil {
			log.Fatalf("Failed to publish: %v", err)
		}
		log.Printf("Published %q to PostgreSQL", set.Version)
	}
}

func openRepository(ctx context.Context, source, dir, dbURL string, opts regressor.Options) (domain.ArtifactRepository, func(), error) {
	switch source {
	case config.SourceFile:
		return filesystem.NewRepository(dir, opts), func() {}, nil
	case config.SourceFixture:
		return postgres.NewMockRepository(), func() {}, nil
	case config.SourcePostgres:
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewPostgresRepository(pool, opts), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", source)
}

// inspect runs the offline checks without rejecting the set, so every problem is printed
func inspect(set domain.ArtifactSet) (service.ArtifactReport, error) {
	manifest, err := domain.NewFeatureManifest(set.FeatureNames)
	if err != nil {
		return service.ArtifactReport{}, err
	}
	scaler, err := domain.NewScalerArtifact(set.Scaler)
	if err != nil {
		return service.ArtifactReport{}, err
	}
	return service.InspectArtifacts(set.Version, manifest, scaler, set.Model), nil
}

func printReport(w io.Writer, r service.ArtifactReport) {
	fmt.Fprintf(w, "Bundle %s\n\n", r.Version)

	if r.Features != nil {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tMODEL\tMANIFEST\t")
		for _, p := range r.Features.Positions {
			mark := ""
			if !p.Match {
				mark = "MISMATCH"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.Index, p.ModelName, p.ManifestName, mark)
		}
		tw.Flush()
		fmt.Fprintf(w, "\nmodel features: %d, manifest features: %d\n", r.Features.ModelCount, r.Features.ManifestCount)
	}

	for _, e := range r.Errors() {
		fmt.Fprintf(w, "ERROR   %s\n", e)
	}
	for _, warn := range r.Warnings() {
		fmt.Fprintf(w, "WARNING %s\n", warn)
	}
	if r.OK() {
		fmt.Fprintln(w, "OK")
	}
}

func publishBundle(ctx context.Context, dbURL string, raw repository.RawArtifacts) error {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewPostgresRepository(pool, regressor.Options{})
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	return repo.SaveArtifacts(ctx, raw)
}
