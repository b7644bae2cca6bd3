package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/digest"
	"github.com/pdiddy/paper-digest/internal/mail"
	"github.com/pdiddy/paper-digest/internal/store"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the full pipeline and deliver the digest",
	Long: `Digest runs the whole pipeline: fetch today's papers, score them against
your interests, render the survivors as an HTML page, archive the run, and
mail the digest. Delivery is skipped when no mail credential is configured;
the HTML file is always written.`,
	RunE: runDigest,
}

func init() {
	digestCmd.Flags().String("output", "", "digest output path (default \"digest.html\")")
	digestCmd.Flags().Bool("no-mail", false, "skip mail delivery even if a credential is configured")
	digestCmd.Flags().Bool("no-archive", false, "skip archiving the run")

	rootCmd.AddCommand(digestCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Digest.OutputPath = output
	}

	ctx := cmd.Context()
	date := time.Now()

	papers, result, err := fetchAndScore(ctx, cfg)
	if err != nil {
		return err
	}
	if result.Hallucination {
		fmt.Fprintln(os.Stderr, "warning: the model returned mismatched record counts; some annotations may be misattributed")
	}

	path, err := digest.Write(cfg.Digest, result, date)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "digest written to %s (%d of %d papers)\n", path, len(result.Papers), len(papers))

	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		s, err := store.Open(cfg.Archive)
		if err != nil {
			return err
		}
		defer s.Close()
		runID, err := s.SaveRun(ctx, date, cfg.Topics, len(papers), result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "archived as run %d\n", runID)
	}

	if noMail, _ := cmd.Flags().GetBool("no-mail"); noMail {
		return nil
	}
	sender, err := mail.NewSender(cfg.Mail)
	if errors.Is(err, mail.ErrNoBackend) {
		fmt.Fprintln(os.Stderr, "no mail credential configured, skipping delivery")
		return nil
	}
	if err != nil {
		return err
	}

	subject := cfg.Mail.Subject
	if subject == "" {
		subject = fmt.Sprintf("Personalized arXiv digest, %s", date.Format("2 January 2006"))
	}
	html, err := digest.Render(cfg.Digest, result, date)
	if err != nil {
		return err
	}
	if err := sender.Send(ctx, subject, html); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "digest mailed to %s via %s\n", cfg.Mail.To, sender.Name())
	return nil
}
