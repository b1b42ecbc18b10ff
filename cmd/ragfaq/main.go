package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ragfaq/internal/chunker"
	"ragfaq/internal/config"
	"ragfaq/internal/corpus"
	"ragfaq/internal/domain"
	"ragfaq/internal/logging"
	"ragfaq/internal/server"
	"ragfaq/internal/service"
	"ragfaq/internal/summarizer"
	"ragfaq/internal/tui"
)

const disclaimer = "DISCLAIMER: This tool is not affiliated with or endorsed by the documentation provider.\n" +
	"For authoritative information, refer to the official documentation."

type app struct {
	cfgPath string
	cfg     *config.AppConfig
	log     *logrus.Entry
}

func main() {
	_ = godotenv.Load()

	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "ragfaq",
		Short:         "Retrieval-only FAQ assistant over a documentation corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ragfaq/config.yaml if not provided)")

	chunkCmd := &cobra.Command{
		Use:   "chunk",
		Short: "Split raw documents into overlapping chunk files",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.runChunk() },
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed chunk files and save the vector store",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.runIngest() },
	}

	askCmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return a.runAsk(strings.Join(args, " ")) },
	}

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "Ask questions interactively",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.runTUI() },
	}

	var addr string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web interface and JSON API",
		RunE:  func(cmd *cobra.Command, args []string) error { return a.runServe(addr) },
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr, or :$PORT when set)")

	rootCmd.AddCommand(chunkCmd, ingestCmd, askCmd, tuiCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	var err error
	if a.cfgPath == "" {
		a.cfg, _, err = config.LoadDefault()
	} else {
		a.cfg, err = config.Load(a.cfgPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.log = logrus.NewEntry(logging.New(a.cfg.Log))
	return nil
}

func (a *app) assistant() *service.Assistant {
	return service.NewAssistant(service.Config{
		IndexPath:         a.cfg.Store.Path,
		TopK:              a.cfg.Retriever.TopK,
		SummaryTopK:       a.cfg.Retriever.SummaryTopK,
		MinSummaryResults: a.cfg.Retriever.MinSummaryResults,
		ScoreThreshold:    a.cfg.Retriever.ScoreThreshold,
	}, a.log)
}

func (a *app) runChunk() error {
	var ch domain.Chunker
	switch a.cfg.Chunker.Type {
	case "recursive", "":
		ch = chunker.NewRecursiveChunker(a.cfg.Chunker.ChunkSize, a.cfg.Chunker.ChunkOverlap)
	case "sentence":
		ch = chunker.NewSentenceChunker(a.cfg.Chunker.SentencesPerChunk, a.cfg.Chunker.OverlapSentences)
	default:
		return fmt.Errorf("unknown chunker: %s", a.cfg.Chunker.Type)
	}
	_, err := corpus.ChunkDocuments(a.cfg.Corpus.RawDir, a.cfg.Corpus.Pattern, a.cfg.Corpus.ChunkDir, ch, a.log.WithField("component", "chunker"))
	return err
}

func (a *app) runIngest() error {
	_, err := corpus.BuildStore(a.cfg.Corpus.ChunkDir, a.cfg.Store.Path, a.log.WithField("component", "ingest"))
	return err
}

func (a *app) runAsk(question string) error {
	fmt.Println(disclaimer)
	fmt.Printf("\nQuery: %s\n", question)
	ans, err := a.assistant().AnswerQuestion(question)
	if err != nil {
		return err
	}
	fmt.Println(ans.Answer)
	fmt.Println("\nSources:")
	for i, src := range ans.Sources {
		fmt.Printf("  %d. %s\n", i+1, src)
	}
	return nil
}

func (a *app) runTUI() error {
	asst := a.assistant()
	if err := asst.Preload(); err != nil {
		return err
	}
	digest := disclaimer
	if a.cfg.Summarizer.Type == "frequency" {
		if d := summarizer.NewFrequencySummarizer().Digest(asst.Texts(), a.cfg.Summarizer.MaxSentences); d != "" {
			digest = d
		}
	}
	if _, err := tea.NewProgram(tui.New(asst, digest)).Run(); err != nil {
		return err
	}
	fmt.Println("Goodbye!")
	return nil
}

func (a *app) runServe(addr string) error {
	addr = resolveAddr(addr, a.cfg.Server)
	asst := a.assistant()
	if err := asst.Preload(); err != nil {
		return err
	}
	a.log.Info(disclaimer)
	return server.NewServer(asst, a.log).Start(addr)
}

// resolveAddr picks the listen address: the --addr flag, else :$PORT, else server.addr.
func resolveAddr(flag string, cfg config.ServerConfig) string {
	if flag != "" {
		return flag
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return cfg.Addr
}
