package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"cetpredict/internal/config"
	"cetpredict/internal/connectors"
	gmailconnector "cetpredict/internal/connectors/gmail"
	imapconnector "cetpredict/internal/connectors/imap"
	"cetpredict/internal/download"
	"cetpredict/internal/pipeline"
	"cetpredict/internal/predict"
	"cetpredict/internal/server"
	"cetpredict/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "ingest:file":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		path := fs.String("path", "", "source file (csv|xlsx|pdf|html)")
		course := fs.String("course", "", "course code; derived from the filename when empty")
		headerRows := fs.Int("header-rows", 1, "header depth of the source table")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*path) == "" {
			must(fmt.Errorf("--path is required"))
		}
		ingest := pipeline.NewIngestService(db, cfg)
		res, err := ingest.IngestFile(*path, *course, *headerRows)
		must(err)
		fmt.Printf("ingested %s tables=%d records=%d\n", *path, res.Tables, res.Records)
	case "ingest:dir":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", cfg.CutoffDir, "directory of source files")
		headerRows := fs.Int("header-rows", 1, "header depth of the source tables")
		_ = fs.Parse(os.Args[2:])
		ingest := pipeline.NewIngestService(db, cfg)
		files, records, err := ingest.IngestDir(*dir, *headerRows)
		must(err)
		fmt.Printf("ingested dir %s files=%d records=%d\n", *dir, files, records)
	case "download":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		urls := fs.String("urls", "", "comma-separated cutoff list URLs")
		dest := fs.String("dest", cfg.CutoffDir, "destination directory")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*urls) == "" {
			must(fmt.Errorf("--urls is required"))
		}
		client := download.NewClient(cfg)
		paths, err := client.DownloadAll(context.Background(), splitCommaList(*urls), *dest)
		must(err)
		for _, p := range paths {
			fmt.Printf("downloaded %s\n", p)
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.ListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.ListenerLabel, "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d skipped=%d\n", *provider, result.Fetched, result.Stored, result.Skipped)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.ListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "specific message-id")
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		ingest := pipeline.NewIngestService(db, cfg)
		if strings.TrimSpace(*messageID) != "" {
			records, err := ingest.ProcessCircularByMessageID(*provider, *messageID)
			must(err)
			fmt.Printf("processed circular records=%d\n", records)
			return
		}
		processed, records, err := ingest.ProcessCirculars(*batch, *provider)
		must(err)
		fmt.Printf("processed circulars=%d records=%d\n", processed, records)
	case "branches:load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		path := fs.String("path", cfg.BranchMapPath, "branch map csv (code,full_name)")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*path) == "" {
			must(fmt.Errorf("--path is required"))
		}
		names, err := pipeline.LoadBranchMap(*path)
		must(err)
		must(db.UpsertBranchNames(names))
		fmt.Printf("loaded %d branch names\n", len(names))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		records, err := db.ListCutoffs()
		must(err)
		if len(records) == 0 {
			must(fmt.Errorf("no cutoff records to export"))
		}
		must(pipeline.ExportCutoffsToXLSX(records, *out))
		fmt.Printf("exported %d records to %s\n", len(records), *out)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		records, err := db.ListCutoffs()
		must(err)
		index, err := predict.BuildIndex(records)
		must(err)
		branchNames, err := db.ListBranchNames()
		must(err)
		srv := server.New(index, branchNames)
		fmt.Printf("serving %d records on %s\n", index.Size(), *addr)
		must(http.ListenAndServe(*addr, srv.Handler(cfg.CORSOrigins)))
	default:
		usage()
		os.Exit(1)
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func usage() {
	fmt.Println("usage: cetpredict <command>")
	fmt.Println("commands:")
	fmt.Println("  ingest:file --path=... [--course=ENGG] [--header-rows=1]")
	fmt.Println("  ingest:dir [--dir=...] [--header-rows=1]")
	fmt.Println("  download --urls=url1,url2 [--dest=...]")
	fmt.Println("  mail:fetch [--provider=imap|gmail] [--label=INBOX] [--max=50]")
	fmt.Println("  mail:process [--provider=imap|gmail] [--messageId=...] [--batch=20]")
	fmt.Println("  branches:load --path=branch_map.csv")
	fmt.Println("  export:xlsx --out=./out/cutoffs.xlsx")
	fmt.Println("  serve [--addr=:8080]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
