package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

const maxAttempts = 3

// NewPlayCmd runs the quiz flow interactively on the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Take a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			sessions, closer := sessionRepository(cfg, logger)
			if closer != nil {
				defer closer.Close()
			}
			return Play(cmd.Context(), newService(cfg, st, sessions, logger), os.Stdin, cmd.OutOrStdout())
		},
	}
}

// Play drives one user through login, any number of quiz rounds and their
// results. End of input ends the session without error.
func Play(ctx context.Context, service *app.QuizService, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	sc := service.NewSessionContext()

	sc, intro, err := authenticate(ctx, service, sc, reader, out)
	if err != nil {
		return ignoreEOF(err)
	}
	fmt.Fprintf(out, "\nWelcome, %s!\n", intro.Username)

	size, err := choosePackage(reader, out, intro)
	if err != nil {
		return ignoreEOF(err)
	}
	sc, view, err := service.Start(ctx, sc, size)
	for {
		if err != nil {
			return err
		}
		sc, err = askQuestions(ctx, service, sc, view, reader, out)
		if err != nil {
			return ignoreEOF(err)
		}

		var results app.ResultsView
		sc, results, err = service.Submit(ctx, sc)
		if err != nil {
			return err
		}
		printResults(out, results)

		var again string
		again, err = prompt(reader, out, "Play again? (y/n): ")
		if err != nil || !strings.EqualFold(again, "y") {
			service.Logout(ctx, sc)
			fmt.Fprintln(out, "Goodbye.")
			return ignoreEOF(err)
		}
		size, err = choosePackage(reader, out, intro)
		if err != nil {
			return ignoreEOF(err)
		}
		sc, view, err = service.Retry(ctx, sc, size)
	}
}

func authenticate(ctx context.Context, service *app.QuizService, sc domain.SessionContext, reader *bufio.Reader, out io.Writer) (domain.SessionContext, app.IntroView, error) {
	for {
		action, err := prompt(reader, out, "Register (r) or log in (l)? ")
		if err != nil {
			return sc, app.IntroView{}, err
		}
		action = strings.ToLower(action)
		if action != "r" && action != "l" {
			fmt.Fprintln(out, "Please enter r or l.")
			continue
		}
		username, err := prompt(reader, out, "Username: ")
		if err != nil {
			return sc, app.IntroView{}, err
		}
		password, err := prompt(reader, out, "Password: ")
		if err != nil {
			return sc, app.IntroView{}, err
		}

		if action == "r" {
			var notice app.Notice
			sc, notice, err = service.Register(ctx, sc, username, password)
			if err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
				continue
			}
			fmt.Fprintln(out, notice.Message)
			continue
		}

		next, intro, err := service.Login(ctx, sc, username, password)
		if err != nil {
			fmt.Fprintf(out, "Warning: %v\n", err)
			continue
		}
		return next, intro, nil
	}
}

func choosePackage(reader *bufio.Reader, out io.Writer, intro app.IntroView) (int, error) {
	sizes := make([]string, len(intro.PackageSizes))
	for i, s := range intro.PackageSizes {
		sizes[i] = strconv.Itoa(s)
	}
	for {
		raw, err := prompt(reader, out, fmt.Sprintf("Questions per quiz [%s] (default %d): ", strings.Join(sizes, ", "), intro.DefaultSize))
		if err != nil {
			return 0, err
		}
		if raw == "" {
			return intro.DefaultSize, nil
		}
		n, err := strconv.Atoi(raw)
		if err == nil {
			for _, s := range intro.PackageSizes {
				if s == n {
					return n, nil
				}
			}
		}
		fmt.Fprintln(out, "Please pick one of the listed sizes.")
	}
}

func askQuestions(ctx context.Context, service *app.QuizService, sc domain.SessionContext, view app.QuizView, reader *bufio.Reader, out io.Writer) (domain.SessionContext, error) {
	if len(view.Questions) == 0 {
		fmt.Fprintln(out, "The question bank has no usable questions.")
		return sc, nil
	}
	for _, q := range view.Questions {
		fmt.Fprintf(out, "\nQ%d: %s\n\n", q.Index+1, q.Prompt)
		if q.Warning != "" {
			fmt.Fprintf(out, "Warning: %s\n", q.Warning)
			continue
		}
		for i, choice := range q.Choices {
			fmt.Fprintf(out, "%c. %s\n", 'A'+i, choice)
		}
		fmt.Fprintln(out)

		idx, ok, err := readChoice(reader, out, len(q.Choices))
		if err != nil {
			return sc, err
		}
		if !ok {
			fmt.Fprintln(out, "Skipped.")
			continue
		}
		sc, err = service.Answer(ctx, sc, q.Index, q.Choices[idx])
		if err != nil {
			return sc, err
		}
	}
	return sc, nil
}

func readChoice(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool, error) {
	maxLetter := byte('A' + optionCount - 1)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		answer, err := prompt(reader, out, "Answer: ")
		if err != nil {
			return -1, false, err
		}
		answer = strings.ToUpper(answer)
		if len(answer) == 1 && answer[0] >= 'A' && answer[0] <= maxLetter {
			return int(answer[0] - 'A'), true, nil
		}
		if answer == "" {
			return -1, false, nil
		}
		if attempt < maxAttempts {
			fmt.Fprintf(out, "Invalid input. Please enter %s.\n", letterRange(maxLetter))
		}
	}
	return -1, false, nil
}

func letterRange(maxLetter byte) string {
	if maxLetter == 'A' {
		return "A"
	}
	return fmt.Sprintf("a letter A-%c", maxLetter)
}

func printResults(out io.Writer, results app.ResultsView) {
	score := results.Score
	fmt.Fprintf(out, "\nScore: %d/%d (%.1f%%)\n", score.CorrectCount, score.Total, score.Percentage)
	for i, q := range score.PerQuestion {
		mark := "correct"
		if !q.Correct {
			mark = fmt.Sprintf("wrong, answer: %s", q.CorrectText)
		}
		fmt.Fprintf(out, "  %d. %s (%s)\n", i+1, q.Prompt, mark)
	}
	if !results.Saved {
		fmt.Fprintln(out, "The quiz had no questions; this attempt was not recorded.")
	}
	if results.Stats.Attempts > 0 {
		fmt.Fprintf(out, "Your mean over %d attempts: %.1f%%\n", results.Stats.Attempts, results.Stats.MeanPercentage)
	}
	printLeaderboard(out, results.Leaderboard)
}

func prompt(reader *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := reader.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
