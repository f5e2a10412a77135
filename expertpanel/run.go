package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	pkgErrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fpt/go-expert-panel/internal/app"
	"github.com/fpt/go-expert-panel/internal/config"
	"github.com/fpt/go-expert-panel/internal/experts"
	"github.com/fpt/go-expert-panel/internal/infra"
	"github.com/fpt/go-expert-panel/internal/provider"
	"github.com/fpt/go-expert-panel/pkg/client"
	pkgLogger "github.com/fpt/go-expert-panel/pkg/logger"
)

type runOptions struct {
	topic        string
	document     string
	domain       string
	experts      int
	configPath   string
	sample       string
	provider     string
	output       string
	rounds       int
	catalogPaths []string
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a panel discussion (default command)",
	Args:  cobra.NoArgs,
	RunE:  runPanel,
}

func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&runOpts.topic, "topic", "t", "", "Discussion topic")
	f.StringVarP(&runOpts.document, "document", "d", "", "Path of a document for the panel to review")
	f.StringVar(&runOpts.domain, "domain", "", "Expert domain (see 'expertpanel domains')")
	f.IntVarP(&runOpts.experts, "experts", "e", 0, "Number of experts taken from the domain")
	f.StringVarP(&runOpts.configPath, "config", "c", "", "Panel YAML file (see 'expertpanel schema')")
	f.StringVar(&runOpts.sample, "sample", "", "Run a sample configuration (see 'expertpanel samples')")
	f.StringVar(&runOpts.provider, "provider", "", "Primary LLM provider (openai, anthropic, gemini or ollama)")
	f.StringVarP(&runOpts.output, "output", "o", "", "Output directory for session files")
	f.IntVarP(&runOpts.rounds, "rounds", "r", 0, "Maximum number of discussion turns")
	f.StringSliceVar(&runOpts.catalogPaths, "catalog", nil, "Additional expert catalog file or directory (repeatable)")
}

func runPanel(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	panel := &config.Panel{}
	if runOpts.configPath != "" {
		if panel, err = config.LoadPanel(runOpts.configPath); err != nil {
			return err
		}
	}

	// flags win over the panel file, the panel file over settings
	switch {
	case runOpts.provider != "":
		settings.Providers.Primary = runOpts.provider
	case panel.Provider != "":
		settings.Providers.Primary = panel.Provider
	}
	if panel.Verbosity != "" {
		settings.Discussion.Verbosity = panel.Verbosity
	}
	if runOpts.output != "" {
		settings.Output.Dir = runOpts.output
	}
	settings.CatalogPaths = append(settings.CatalogPaths, runOpts.catalogPaths...)

	if err := config.ValidateSettings(settings); err != nil {
		return err
	}

	catalog, err := experts.Load(settings.CatalogPaths...)
	if err != nil {
		return err
	}
	prompts, err := experts.LoadPrompts()
	if err != nil {
		return err
	}

	req := app.SessionRequest{
		Topic:         firstNonEmpty(runOpts.topic, panel.Topic),
		DocumentPath:  firstNonEmpty(runOpts.document, panel.Document),
		Domain:        firstNonEmpty(runOpts.domain, panel.Domain),
		ExpertKeys:    panel.Experts,
		ExpertCount:   runOpts.experts,
		CustomExperts: panel.CustomExperts,
		Sample:        runOpts.sample,
		Rounds:        panel.Rounds,
		MaxTurns:      firstPositive(runOpts.rounds, panel.MaxTurns),
		ProviderID:    settings.Providers.Primary,
	}

	if req.DocumentPath != "" {
		data, err := os.ReadFile(req.DocumentPath)
		if err != nil {
			return pkgErrors.Wrap(err, "failed to read document")
		}
		req.Document = string(data)
	}

	if req.Topic == "" && req.DocumentPath == "" && req.Sample == "" {
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return errors.New("one of --topic, --document or --sample is required")
		}
		if err := promptForPanel(catalog, &req); err != nil {
			return err
		}
	}

	manager, err := provider.NewManager(ctx, settings.ProviderConfigs(), client.NewProvider, provider.Options{
		DefaultProvider: settings.Providers.Primary,
		Metrics:         provider.NewMetrics(nil),
		Logger:          pkgLogger.NewComponentLogger("provider-manager"),
	})
	if err != nil {
		return err
	}

	color := isatty.IsTerminal(os.Stdout.Fd())
	entries, printed := app.CreateTranscriptChannel(os.Stdout, color)

	controller := app.NewSessionController(
		manager,
		catalog,
		prompts,
		settings,
		infra.NewOutputWriter(settings.Output.Dir, settings.Output.WriteMetrics),
		app.WithEntryStream(entries),
	)

	fmt.Printf("🎯 Starting expert panel (%s; available: %s)\n\n",
		settings.Providers.Primary, strings.Join(manager.Providers(), ", "))
	summary, err := controller.Run(ctx, req)
	close(entries)
	<-printed

	if err != nil {
		var sessionErr *app.SessionError
		if errors.As(err, &sessionErr) && sessionErr.Incomplete() {
			fmt.Fprintf(os.Stderr, "⚠️  Discussion stopped after %d entries; no files were written\n", len(sessionErr.Transcript))
		}
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(s *app.Summary) {
	fmt.Println("✅ Discussion complete")
	fmt.Printf("   Session:    %s\n", s.SessionID)
	fmt.Printf("   Topic:      %s\n", s.Topic)
	fmt.Printf("   Provider:   %s\n", s.Provider)
	fmt.Printf("   Total cost: %s\n", s.TotalCost)
	fmt.Printf("   Tokens:     %s\n", s.TotalTokens)
	fmt.Printf("   Duration:   %s\n", s.Duration)
	fmt.Println()
	fmt.Printf("📁 Saved to %s\n", s.Outputs.Dir)
	for _, path := range []string{s.Outputs.Transcript, s.Outputs.TranscriptJSON, s.Outputs.Analytics, s.Outputs.Metadata} {
		fmt.Printf("   %s\n", path)
	}
	if s.Outputs.Metrics != "" {
		fmt.Printf("   %s\n", s.Outputs.Metrics)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
