package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ilexum-group/amcache/internal/amcache"
	"github.com/ilexum-group/amcache/internal/config"
	"github.com/ilexum-group/amcache/internal/export"
	"github.com/ilexum-group/amcache/internal/hive"
	"github.com/ilexum-group/amcache/internal/sender"
	"github.com/ilexum-group/amcache/internal/utils"
	"github.com/ilexum-group/amcache/internal/version"
	"github.com/ilexum-group/amcache/pkg/models"
)

// openHive returns the opener for a hive path. Tests replace it.
var openHive = func(path string) hive.Opener {
	return hive.NewOfflineOpener(path)
}

// CustodySuffix is appended to the export path to name the custody manifest.
const CustodySuffix = ".custody.json"

// NewExtractCmd runs one extraction and exports the result.
func NewExtractCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract, order and export the entries of an Amcache hive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runExtract(cmd, cfg)
		},
	}

	cfg.BindFlags(cmd.Flags())
	return cmd
}

func runExtract(cmd *cobra.Command, cfg *config.Config) error {
	if err := utils.DefaultLogger.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.CaseID == "" {
		cfg.CaseID = uuid.NewString()
	}
	utils.ClearLogs()

	list, err := config.LoadDenyList(cfg.DenyListFile)
	if err != nil {
		return err
	}

	custody := models.NewCustodyRecord("amcache", version.Version, cfg.CaseID)
	opener := openHive(cfg.HivePath)
	if err := custody.RecordSourceFile(opener.Path()); err != nil {
		custody.LogWarning("source", "hive could not be hashed before extraction: "+err.Error())
	}

	extractor := amcache.NewExtractor(
		amcache.WithClassifier(amcache.NewClassifier(list)),
		amcache.WithProgressInterval(cfg.ProgressInterval),
	)
	analyzer, err := amcache.NewAnalyzer(opener, extractor, cfg.Roots)
	if err != nil {
		return err
	}

	rs, err := runWithProgress(cmd, analyzer, !cfg.NoProgress)
	if err != nil {
		custody.LogError("extract", "extraction failed", err)
		return err
	}
	custody.AttachResult(rs)
	custody.LogInfo("extract", fmt.Sprintf("%d entries retained, %d discarded", rs.Stats.Retained, rs.Stats.Discarded))
	for _, root := range rs.Stats.RootsMissing {
		custody.LogWarning("extract", "record root not present: "+root)
	}
	if rs.Stats.ChildrenSkipped > 0 {
		custody.LogWarning("extract", strconv.Itoa(rs.Stats.ChildrenSkipped)+" unreadable records skipped")
	}

	format := cfg.Format()
	if cfg.OutputPath == "" {
		if err := export.Write(cmd.OutOrStdout(), format, rs.Entries()); err != nil {
			custody.LogError("export", "export failed", err)
			return err
		}
		custody.Finalize()
		custody.Syslog = utils.GetLogs()
	} else {
		if err := exportFile(cfg.OutputPath, format, rs, custody); err != nil {
			custody.LogError("export", "export failed", err)
			return err
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "run=%s entries=%d suspicious=%d output=%s\n",
		rs.ID, rs.Len(), countSuspicious(rs.Entries()), outputName(cfg.OutputPath))

	if cfg.ServerURL != "" {
		if err := sender.SendReport(cfg, models.NewReport(custody, rs)); err != nil {
			utils.LogError("Failed to send report", map[string]string{"error": err.Error()})
			return err
		}
	}
	return nil
}

// runWithProgress starts the analyzer and renders progress until the run
// completes. Progress updates cross from the extraction goroutine through a
// buffered channel; updates are dropped when the renderer falls behind.
func runWithProgress(cmd *cobra.Command, analyzer *amcache.Analyzer, visible bool) (*models.ResultSet, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Extracting entries"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionClearOnFinish(),
	)

	progressCh := make(chan int, 64)
	var progressWG sync.WaitGroup
	progressWG.Add(1)
	go func() {
		defer progressWG.Done()
		for n := range progressCh {
			_ = bar.Set(n)
		}
	}()

	done, err := analyzer.Start(func(count int) {
		select {
		case progressCh <- count:
		default:
		}
	})
	if err != nil {
		close(progressCh)
		progressWG.Wait()
		return nil, err
	}

	res := <-done
	close(progressCh)
	progressWG.Wait()
	if res.Err != nil {
		return nil, res.Err
	}
	_ = bar.Set(res.Snapshot.Len())
	_ = bar.Finish()
	return res.Snapshot, nil
}

// exportFile writes the export, hashes it into the custody record and writes
// the custody manifest next to it.
func exportFile(path string, format export.Format, rs *models.ResultSet, custody *models.CustodyRecord) error {
	if err := export.WriteFile(path, format, rs); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to reopen export: %w", err)
	}
	defer f.Close()
	if err := custody.FinalizeFromReader(path, string(format), f); err != nil {
		return err
	}

	// Logged before the capture so the manifest records its own write.
	utils.LogInfo("Writing custody record", map[string]string{"path": path + CustodySuffix, "sha256": custody.Export.SHA256Hash})
	custody.Syslog = utils.GetLogs()

	manifest, err := json.MarshalIndent(custody, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal custody record: %w", err)
	}
	if err := os.WriteFile(path+CustodySuffix, manifest, 0o644); err != nil {
		return fmt.Errorf("%w: %w", export.ErrExportSink, err)
	}
	return nil
}

func countSuspicious(entries []models.Entry) int {
	n := 0
	for _, e := range entries {
		if len(e.Notes) > 0 {
			n++
		}
	}
	return n
}

func outputName(path string) string {
	if strings.TrimSpace(path) == "" {
		return "stdout"
	}
	return path
}
