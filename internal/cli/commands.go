package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inkwell/internal/analysis"
	"inkwell/internal/llm"
	"inkwell/internal/notify"
	"inkwell/internal/themes"
)

// --- add command ---

var addCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Append a journal entry",
	Long:  "Append a timestamped entry to today's journal file. With no arguments, reads the entry from stdin.",
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	journalStore, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if err := journalStore.Append(text); err != nil {
		return err
	}
	fmt.Println("recorded")
	return nil
}

// --- analyze command ---

var analyzeForce bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [daily|weekly|discovery]",
	Short: "Run an analysis now",
	Long:  "Run one analysis kind against the local model. Without --force, skips kinds that are not due.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "Run even if the kind is not due")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	journalStore, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}

	transport := llm.NewOllama(cfg.Model.BaseURL, cfg.Model.Model, cfg.Model.Temperature, cfg.Model.TopP)
	gateway := llm.NewGateway(transport, cfg.Model.MaxRetries)
	index := themes.NewIndex(db)
	orch := analysis.New(journalStore, gateway, index, db, notify.LogReporter{}, cfg.Analysis)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	kind := analysis.Kind(args[0])
	switch kind {
	case analysis.KindDaily:
		if !analyzeForce && !orch.DailyDue() {
			fmt.Println("daily analysis already ran today (use --force to rerun)")
			return nil
		}
		result, err := orch.RunDaily(ctx)
		if err != nil {
			return analyzeErr(err)
		}
		printList("Themes today", result.ThemesToday)
		printList("Key insights", result.KeyInsights)
		printList("Focus areas", result.FocusAreas)

	case analysis.KindWeekly:
		if !analyzeForce && !orch.WeeklyDue() {
			fmt.Println("weekly analysis not due (use --force to run anyway)")
			return nil
		}
		result, err := orch.RunWeekly(ctx)
		if err != nil {
			return analyzeErr(err)
		}
		printList("Patterns", result.PatternsDiscovered)
		printList("Breakthroughs", result.Breakthroughs)
		printList("Obstacles", result.Obstacles)
		printList("Actions", result.PersonalizedActions)

	case analysis.KindDiscovery:
		if !analyzeForce && !orch.DiscoveryDue() {
			fmt.Println("theme discovery not due (use --force to run anyway)")
			return nil
		}
		if err := orch.RunDiscovery(ctx); err != nil {
			return analyzeErr(err)
		}
		fmt.Printf("discovery complete, %d active themes\n", len(index.Active()))

	default:
		return fmt.Errorf("unknown analysis kind %q", args[0])
	}
	return nil
}

func analyzeErr(err error) error {
	if errors.Is(err, analysis.ErrNoEntries) {
		fmt.Println("nothing to analyze: journal is empty for this window")
		return nil
	}
	return err
}

func printList(header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s:\n", header)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

// --- themes command ---

var themesArchived bool

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List tracked themes",
	RunE:  runThemes,
}

func init() {
	themesCmd.Flags().BoolVar(&themesArchived, "archived", false, "Show archived themes instead of active ones")
}

func runThemes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	index := themes.NewIndex(db)

	var list []themes.Theme
	if themesArchived {
		list, err = index.Archived()
		if err != nil {
			return fmt.Errorf("load archive: %w", err)
		}
	} else {
		list = index.Active()
	}

	if len(list) == 0 {
		fmt.Println("No themes tracked yet.")
		return nil
	}

	for i, t := range list {
		fmt.Printf("%d. %s (x%d, last %s)\n", i+1, t.Name, t.Frequency, t.LastMentioned.Format("2006-01-02"))
		fmt.Printf("   %s\n", t.Summary)
		if t.Evolution != "" {
			fmt.Printf("   %s\n", t.Evolution)
		}
	}
	return nil
}
