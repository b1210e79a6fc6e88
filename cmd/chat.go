// cmd/chat.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chirplab/chirp/internal/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long:  `Prompts for questions in a loop, one login for the whole session. Type "exit" to leave.`,
	RunE:  runChat,
}

var chatParallel bool

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatParallel, "parallel", false, "Search all queries concurrently")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, creds, chatParallel)
	if err != nil {
		return err
	}

	// Ctrl+C ends the whole session, not just the current question.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nGoodbye!")
		os.Exit(0)
	}()

	promptStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	fmt.Println("Ask anything. Type \"exit\" to leave.")

	start := time.Now()
	questions := 0
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("\n%s ", promptStyle.Render("chirp>"))
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") {
			break
		}

		questions++
		res := p.Run(ctx, question)
		printResult(res)
	}

	fmt.Printf("\nAnswered %d questions in %.1f minutes. See you!\n", questions, time.Since(start).Minutes())
	return scanner.Err()
}
