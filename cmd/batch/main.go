// Command batch generates a batch of videos synchronously, without the API,
// worker or database. It is the one-shot CLI counterpart of the service
// trio: run it, read generation_results.json, exit.
//
// Exit codes: 0 every video succeeded, 1 some degraded or failed, 2 nothing
// succeeded, 3 configuration error.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"storyforge/config"
	"storyforge/internal/platform"
	"storyforge/output"
	"storyforge/pipeline"
	"storyforge/usage"
)

const (
	exitOK = iota
	exitPartial
	exitAllFailed
	exitConfig
)

var (
	flagVideos   int
	flagCampaign string
	flagConfig   string
	flagOutput   string
	flagAPIKey   string
	flagIdentity string
)

func main() {
	root := &cobra.Command{
		Use:   "batch",
		Short: "Generate advocacy videos in one synchronous run",
		Long: `Generates stories, scene images, narration and composited videos for the
configured campaigns, writing everything under the output directory with a
generation_results.json run report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.Flags().IntVarP(&flagVideos, "videos", "n", 0, "number of videos to generate (default: daily_videos from config)")
	root.Flags().StringVarP(&flagCampaign, "campaign", "c", "", "generate only for this campaign id")
	root.Flags().StringVar(&flagConfig, "config", "", "path to the campaign config JSON")
	root.Flags().StringVarP(&flagOutput, "output", "o", "", "output directory root")
	root.Flags().StringVar(&flagAPIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY)")
	root.Flags().StringVar(&flagIdentity, "identity", "cli", "identity charged against the daily story limit")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitConfig)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log := platform.NewLogger("batch")

	if flagAPIKey != "" {
		os.Setenv("OPENAI_API_KEY", flagAPIKey)
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagOutput != "" {
		cfg.OutputDir = flagOutput
	}

	p := pipeline.New(cfg, log)
	org := output.NewOrganizer(cfg.OutputDir, time.Now())
	limiter := usage.NewLimiter(usage.NewMemoryStore(), cfg.DailyStoryLimit, cfg.AdminUsers, log)

	report, err := p.GenerateBatch(cmd.Context(), org, pipeline.BatchOptions{
		Count:      flagVideos,
		CampaignID: flagCampaign,
		Identity:   flagIdentity,
		Limiter:    limiter,
	})
	if err != nil {
		return err
	}

	printReport(report)
	os.Exit(exitCode(report))
	return nil
}

func printReport(report *output.RunReport) {
	fmt.Printf("\nRun %s: %d requested, %d succeeded, %d partial, %d failed\n",
		report.RunDate, report.Requested, report.Succeeded, report.Partial, report.Failed)
	for _, v := range report.Videos {
		line := fmt.Sprintf("  [%s] video %d (%s)", v.Outcome, v.Index, v.CampaignID)
		if v.VideoSkipped {
			line += " video skipped, materials saved"
		} else if v.VideoPath != "" {
			line += " " + v.VideoPath
		}
		fmt.Println(line)
		for _, issue := range v.Issues {
			fmt.Println("      -", issue)
		}
	}
}

func exitCode(report *output.RunReport) int {
	switch {
	case report.Succeeded == report.Requested:
		return exitOK
	case report.Succeeded > 0 || report.Partial > 0:
		return exitPartial
	default:
		return exitAllFailed
	}
}
