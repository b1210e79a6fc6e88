package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chirplab/chirp/internal/config"
	"github.com/chirplab/chirp/internal/llm"
	"github.com/chirplab/chirp/internal/xapi"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify X and LLM credentials",
	Long:  `Logs in to X and runs a tiny LLM completion to confirm both services are reachable.`,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	okStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("40"))
	failStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	ctx := context.Background()
	timeout := time.Duration(cfg.Search.TimeoutSeconds) * time.Second
	failed := 0

	fmt.Print("X login ........ ")
	_, err = xapi.NewClient(cfg.Search.BaseURL, timeout).Login(ctx, xapi.Credentials{
		Username: creds.XUsername,
		Password: creds.XPassword,
		Email:    creds.XEmail,
	})
	if err != nil {
		fmt.Println(failStyle.Render("failed"))
		fmt.Printf("  %v\n", err)
		failed++
	} else {
		fmt.Println(okStyle.Render("ok"))
	}

	fmt.Print("LLM completion . ")
	completer := llm.NewClient(creds.OpenAIKey, cfg.LLM.BaseURL, timeout)
	_, err = completer.Complete(ctx, llm.Request{
		Model:     cfg.LLM.QueryModel,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "Reply with the word ok."}},
		MaxTokens: 5,
	})
	if err != nil {
		fmt.Println(failStyle.Render("failed"))
		fmt.Printf("  %v\n", err)
		failed++
	} else {
		fmt.Println(okStyle.Render("ok"))
	}

	if failed > 0 {
		return fmt.Errorf("%d of 2 checks failed", failed)
	}
	fmt.Println("\nAll good. Try: chirp ask \"what is everyone talking about today?\"")
	return nil
}
