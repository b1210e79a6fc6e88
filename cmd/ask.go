// cmd/ask.go
package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chirplab/chirp/internal/config"
	"github.com/chirplab/chirp/internal/llm"
	"github.com/chirplab/chirp/internal/pipeline"
	"github.com/chirplab/chirp/internal/xapi"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long:  `Runs the full pipeline once: generate search queries, search X, and write a cited answer.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var askParallel bool

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askParallel, "parallel", false, "Search all queries concurrently")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, creds, askParallel)
	if err != nil {
		return err
	}

	res := p.Run(ctx, question)
	printResult(res)
	return nil
}

// buildPipeline logs in to X and wires the stages together. Login and
// credential problems are fatal here; everything after this degrades
// per stage instead of failing the run.
func buildPipeline(ctx context.Context, cfg *config.Config, creds *config.Credentials, parallel bool) (*pipeline.Pipeline, error) {
	logger := newLogger()
	timeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second

	fmt.Println("→ Logging in to X...")
	session, err := xapi.NewClient(cfg.Search.BaseURL, timeout).Login(ctx, xapi.Credentials{
		Username: creds.XUsername,
		Password: creds.XPassword,
		Email:    creds.XEmail,
	})
	if err != nil {
		return nil, fmt.Errorf("X login failed: %w", err)
	}

	completer := llm.NewClient(creds.OpenAIKey, cfg.LLM.BaseURL, timeout)

	return pipeline.New(
		pipeline.Config{Concurrent: parallel},
		pipeline.NewQueryGenerator(completer, cfg.LLM, logger),
		pipeline.NewRetriever(session, logger),
		pipeline.NewSynthesizer(completer, cfg.LLM, logger),
		logger,
	), nil
}

func printResult(res *pipeline.Result) {
	labelStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	postStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	fmt.Printf("\n%s %s\n", labelStyle.Render("QUERIES:"), dimStyle.Render(stageTime(res.Timing.Generate)))
	for i, query := range res.Queries {
		fmt.Printf("  %d. %s\n", i+1, query)
	}
	if res.GenerateErr != nil {
		fmt.Printf("  %s\n", warnStyle.Render("! query generation failed, searched with the question itself"))
	}

	fmt.Printf("\n%s %s\n", labelStyle.Render(fmt.Sprintf("POSTS (%d):", len(res.Posts))), dimStyle.Render(stageTime(res.Timing.Retrieve)))
	for _, p := range res.Posts {
		fmt.Printf("  %s\n", postStyle.Render(pipeline.FormatPost(p)))
	}
	if len(res.Posts) == 0 {
		fmt.Printf("  %s\n", dimStyle.Render("(none)"))
	}
	for _, se := range res.SearchErrs {
		fmt.Printf("  %s\n", warnStyle.Render(fmt.Sprintf("! search failed for '%s': %v", se.Query, se.Err)))
	}

	fmt.Printf("\n%s %s\n", labelStyle.Render("ANSWER:"), dimStyle.Render(stageTime(res.Timing.Synthesize)))
	fmt.Println(res.Answer)

	fmt.Printf("\n%s\n", dimStyle.Render(fmt.Sprintf("Total: %.1fs", res.Timing.Total.Seconds())))
}

func stageTime(d time.Duration) string {
	return fmt.Sprintf("(%.1fs)", d.Seconds())
}
