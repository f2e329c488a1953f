package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	quizQuestions int
	quizJSON      bool
	quizAnswers   bool
)

var quizCmd = &cobra.Command{
	Use:   "quiz [topic]",
	Short: "Generate a quiz from your documents",
	Long: `Retrieves material about the topic and generates a multiple-choice
quiz grounded in it. Requires both an embedding provider and an LLM
provider.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuiz,
}

func init() {
	quizCmd.Flags().IntVarP(&quizQuestions, "questions", "n", 5, "number of questions")
	quizCmd.Flags().BoolVar(&quizJSON, "json", false, "output the quiz as JSON")
	quizCmd.Flags().BoolVar(&quizAnswers, "answers", false, "print the answer key")
	rootCmd.AddCommand(quizCmd)
}

func runQuiz(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	quiz, err := queryService.Quiz(cmd.Context(), args[0], quizQuestions)
	if err != nil {
		return fmt.Errorf("quiz generation failed: %w", err)
	}

	if quizJSON {
		data, err := json.MarshalIndent(quiz, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling quiz: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Quiz: %s\n\n", quiz.Topic)
	for i, q := range quiz.Questions {
		cmd.Printf("%d. %s\n", i+1, q.Question)
		for j, option := range q.Options {
			cmd.Printf("   %c) %s\n", 'a'+rune(j), option)
		}
		cmd.Println()
	}

	if quizAnswers {
		cmd.Println("Answer key:")
		for i, q := range quiz.Questions {
			cmd.Printf("  %d: %c", i+1, 'a'+rune(q.CorrectIndex))
			if q.Explanation != "" {
				cmd.Printf(" (%s)", q.Explanation)
			}
			cmd.Println()
		}
	}
	return nil
}
