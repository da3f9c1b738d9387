package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"harmwatch/internal/cache"
	"harmwatch/internal/classify"
	"harmwatch/internal/cli"
	"harmwatch/internal/config"
	"harmwatch/internal/exclusion"
	"harmwatch/internal/fetch"
	"harmwatch/internal/filter"
	"harmwatch/internal/model"
	"harmwatch/internal/pipeline"
	"harmwatch/internal/window"
)

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Fetch recent complaints and break them down by harm mechanism",
		Long: `Analyze resolves a complaint corpus for the configured time window
(remote cache, local cache, Search API, then bulk CSV download), filters it,
and classifies every narrative against the harm-mechanism taxonomy.`,
		RunE: runAnalyze,
	}

	cmd.Flags().Int("months", config.DefaultMonthsWindow, "window size in months (clamped to [1,12])")
	cmd.Flags().Int("max-records", config.DefaultMaxRecords, "record budget for the API fetch")
	cmd.Flags().Bool("lite", false, "skip the narrative requirement and drop narratives from output")
	cmd.Flags().String("format", "text", "output format (text, json)")
	cmd.Flags().Int("top", 5, "entries per trend list")

	_ = viper.BindPFlag("months_window", cmd.Flags().Lookup("months"))
	_ = viper.BindPFlag("max_records", cmd.Flags().Lookup("max-records"))
	_ = viper.BindPFlag("lite_mode", cmd.Flags().Lookup("lite"))

	return cmd
}

// analyzeReport is the JSON output shape of the analyze command.
type analyzeReport struct {
	Stats      model.CorpusStats       `json:"stats"`
	Summaries  []model.CategorySummary `json:"summaries"`
	Trends     classify.Trends         `json:"trends"`
	Companies  []classify.CompanyTrend `json:"companies"`
	Complaints []reportComplaint       `json:"complaints"`
}

type reportComplaint struct {
	ID           string   `json:"id"`
	DateReceived string   `json:"date_received"`
	Product      string   `json:"product"`
	Issue        string   `json:"issue,omitempty"`
	Company      string   `json:"company"`
	State        string   `json:"state,omitempty"`
	Narrative    string   `json:"narrative,omitempty"`
	DetailURL    string   `json:"detail_url"`
	HarmLabels   []string `json:"harm_labels,omitempty"`
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s", format)
	}
	topN, _ := cmd.Flags().GetInt("top")

	w := window.Compute(cfg.MonthsWindow, nil)

	local, err := cache.NewLocalStore(
		filepath.Join(cfg.CacheDir, "complaints.db"),
		cfg.CacheFreshness(), cfg.CoverageTolerance())
	if err != nil {
		return fmt.Errorf("failed to open local cache: %w", err)
	}
	defer func() { _ = local.Close() }()

	var remote pipeline.CacheStore
	if rs := cache.NewRemoteStore(cache.RemoteConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.CacheFreshness(), cfg.CoverageTolerance()); rs != nil {
		remote = rs
		defer func() { _ = rs.Close() }()
	}

	api, err := fetch.NewSearchClient(fetch.APIConfig{
		BaseURL:    cfg.APIBase,
		PageSize:   cfg.PageSize,
		MaxRecords: cfg.MaxRecords,
		LiteMode:   cfg.LiteMode,
	})
	if err != nil {
		return err
	}

	bulk, err := fetch.NewBulkClient(fetch.BulkConfig{
		URL:      cfg.BulkURL,
		DataDir:  cfg.CacheDir,
		Progress: progressWriter(format),
	})
	if err != nil {
		return err
	}

	policy := exclusion.DefaultPolicy()
	orchestrator, err := pipeline.New(pipeline.Options{
		Remote: remote,
		Local:  local,
		API:    api,
		Bulk:   bulk,
		Months: cfg.MonthsWindow,
		Lite:   cfg.LiteMode,
		Filter: filter.Options{
			Policy:           policy,
			Window:           w,
			RequireNarrative: !cfg.LiteMode,
		},
	})
	if err != nil {
		return err
	}

	result, err := orchestrator.Run(ctx)
	if err != nil {
		return err
	}

	classifier, err := classify.NewClassifier(classify.DefaultTaxonomy())
	if err != nil {
		return err
	}
	classified := classifier.Run(result.Complaints)

	companies, products, states := classify.CorpusStats(result.Complaints)
	stats := model.CorpusStats{
		WindowStart:     w.Start.Format("2006-01-02"),
		WindowEnd:       w.End.Format("2006-01-02"),
		Source:          string(result.Source),
		TotalComplaints: len(result.Complaints),
		UniqueCompanies: companies,
		UniqueProducts:  products,
		UniqueStates:    states,
		Truncated:       result.Truncated,
	}
	trends := classify.TopTrends(result.Complaints, topN)
	topCompanies := classify.TopCompanies(result.Complaints, policy, topN)

	if format == "json" {
		report := analyzeReport{
			Stats:      stats,
			Summaries:  classified.Summaries,
			Trends:     trends,
			Companies:  topCompanies,
			Complaints: reportComplaints(classified.Labeled, cfg.LiteMode),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println(cli.FormatTitle("Consumer Harm Analysis"))
	fmt.Println(cli.SubtitleStyle.Render(fmt.Sprintf("%s to %s via %s", stats.WindowStart, stats.WindowEnd, stats.Source)))
	if len(result.Complaints) == 0 {
		fmt.Println(cli.FormatWarning("No complaints matched the window and filters."))
		return nil
	}
	fmt.Println(cli.RenderCorpusStats(stats))
	fmt.Println(cli.RenderSummaryTable(classified.Summaries))
	fmt.Println(cli.RenderTrends(trends))
	fmt.Println(cli.RenderCompanies(topCompanies))
	return nil
}

// reportComplaints flattens the labeled corpus for JSON output. Lite mode
// drops narratives so the output stays small enough to pipe around.
func reportComplaints(labeled []classify.LabeledComplaint, lite bool) []reportComplaint {
	out := make([]reportComplaint, 0, len(labeled))
	for i := range labeled {
		lc := &labeled[i]
		rc := reportComplaint{
			ID:         lc.ID,
			Product:    lc.Product,
			Issue:      lc.Issue,
			Company:    lc.Company,
			State:      lc.State,
			DetailURL:  lc.DetailURL(),
			HarmLabels: lc.HarmLabels,
		}
		if !lc.DateReceived.IsZero() {
			rc.DateReceived = lc.DateReceived.Format(time.DateOnly)
		}
		if !lite {
			rc.Narrative = lc.Narrative
		}
		out = append(out, rc)
	}
	return out
}

// progressWriter keeps the download bar off stdout so JSON output stays
// machine-readable.
func progressWriter(format string) io.Writer {
	if format == "json" {
		return nil
	}
	return os.Stderr
}
