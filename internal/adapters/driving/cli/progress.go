package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var progressJSON bool

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show your quiz performance per topic",
	Long: `Shows attempts, correct answers, and accuracy for every topic you
have taken quizzes on. Answers are recorded when quiz answers are
submitted, e.g. through the MCP submit_answer tool.`,
	RunE: runProgress,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Get a study recommendation based on your quiz history",
	Long: `Asks the configured LLM what to study next, based on your recorded
quiz performance. Topics with low accuracy get priority.`,
	RunE: runRecommend,
}

func init() {
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "output progress as JSON")
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(recommendCmd)
}

func runProgress(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if progressService == nil {
		return errors.New("progress service not configured")
	}

	progress, err := progressService.Progress(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading progress: %w", err)
	}

	if progressJSON {
		data, err := json.MarshalIndent(progress, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling progress: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(progress) == 0 {
		cmd.Println("No quiz history yet. Run 'retriva quiz <topic>' to start.")
		return nil
	}

	topics := make([]string, 0, len(progress))
	for topic := range progress {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		p := progress[topic]
		cmd.Printf("  %s\n", topic)
		cmd.Printf("    Attempts: %d  Correct: %d  Accuracy: %.0f%%\n",
			p.Attempts, p.Correct, p.Accuracy()*100)
	}
	return nil
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if progressService == nil {
		return errors.New("progress service not configured")
	}

	advice, err := progressService.Recommend(cmd.Context())
	if err != nil {
		return fmt.Errorf("recommendation failed: %w", err)
	}

	cmd.Println(advice)
	return nil
}
