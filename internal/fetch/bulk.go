package fetch

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"harmwatch/internal/common"
	"harmwatch/internal/filter"
	"harmwatch/internal/model"
)

const (
	// defaultBulkTimeout bounds the full archive download.
	defaultBulkTimeout = 300 * time.Second

	// defaultChunkSize is how many CSV rows are materialized before the
	// filter runs, capping peak memory on the multi-gigabyte archive.
	defaultChunkSize = 50000
)

// BulkConfig holds bulk archive client configuration.
type BulkConfig struct {
	URL       string
	DataDir   string
	Timeout   time.Duration
	ChunkSize int
	// Progress receives the download progress bar; nil disables it.
	Progress io.Writer
}

// Validate ensures all required fields are present.
func (c *BulkConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("bulk archive URL is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	return nil
}

// BulkClient downloads the full compressed complaint archive and
// stream-parses it in bounded-size chunks.
type BulkClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	progress   io.Writer
	url        string
	dataDir    string
	chunkSize  int
}

// NewBulkClient creates a bulk archive client with the given configuration.
func NewBulkClient(cfg BulkConfig) (*BulkClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultBulkTimeout
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &BulkClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "bulk_download"),
		progress:   cfg.Progress,
		url:        cfg.URL,
		dataDir:    cfg.DataDir,
		chunkSize:  chunkSize,
	}, nil
}

// Fetch downloads the archive and returns the records that survive the
// filter. Filtering happens per chunk so the full corpus is never
// materialized.
func (c *BulkClient) Fetch(ctx context.Context, opts filter.Options) ([]model.Complaint, error) {
	archivePath, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(archivePath) }()

	return c.parseArchive(archivePath, opts)
}

func (c *BulkClient) download(ctx context.Context) (string, error) {
	c.logger.Info("Downloading complaint archive", "url", c.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: archive download failed: %v", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: archive download returned status %d", common.ErrSourceUnavailable, resp.StatusCode)
	}

	if err := os.MkdirAll(c.dataDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	archivePath := filepath.Join(c.dataDir, "complaints.csv.zip")
	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	defer func() { _ = out.Close() }()

	var dest io.Writer = out
	if c.progress != nil {
		bar := progressbar.NewOptions64(resp.ContentLength,
			progressbar.OptionSetWriter(c.progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("downloading complaint archive"),
		)
		dest = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dest, resp.Body); err != nil {
		return "", fmt.Errorf("%w: archive download interrupted: %v", common.ErrSourceUnavailable, err)
	}

	c.logger.Info("Archive downloaded", "path", archivePath)
	return archivePath, nil
}

func (c *BulkClient) parseArchive(archivePath string, opts filter.Options) ([]model.Complaint, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open archive: %v", common.ErrMalformedResponse, err)
	}
	defer func() { _ = zr.Close() }()

	var csvFile *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".csv") {
			csvFile = f
			break
		}
	}
	if csvFile == nil {
		return nil, fmt.Errorf("%w: archive contains no CSV file", common.ErrMalformedResponse)
	}

	rc, err := csvFile.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open archive entry: %v", common.ErrMalformedResponse, err)
	}
	defer func() { _ = rc.Close() }()

	return c.parseCSV(rc, opts)
}

// parseCSV streams complaint rows, filtering every chunk as it fills.
func (c *BulkClient) parseCSV(r io.Reader, opts filter.Options) ([]model.Complaint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", common.ErrMalformedResponse, err)
	}

	columns, missing := resolveHeader(header)
	if len(missing) > 0 {
		c.logger.Warn("Archive is missing semantic columns", "missing", missing)
	}

	var filtered []model.Complaint
	chunk := make([]model.Complaint, 0, c.chunkSize)
	rows := 0

	flush := func() {
		batch := filter.Batch{Records: chunk, Missing: missing}
		filtered = append(filtered, filter.Apply(batch, opts, c.logger)...)
		chunk = chunk[:0]
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A single mangled row should not discard the archive.
			c.logger.Debug("Skipping malformed CSV row", "row", rows, "error", err)
			continue
		}
		rows++
		chunk = append(chunk, rowToComplaint(record, columns))
		if len(chunk) >= c.chunkSize {
			flush()
		}
	}
	if len(chunk) > 0 {
		flush()
	}

	c.logger.Info("Archive parsed", "rows", rows, "after_filter", len(filtered))
	return filtered, nil
}

// resolveHeader maps semantic fields to column indexes via the alias table
// and reports which predicate-relevant fields the source lacks entirely.
func resolveHeader(header []string) (map[filter.Field]int, []filter.Field) {
	columns := make(map[filter.Field]int, len(header))
	for i, name := range header {
		if f, ok := filter.ResolveColumn(strings.TrimSpace(name)); ok {
			if _, dup := columns[f]; !dup {
				columns[f] = i
			}
		}
	}

	var missing []filter.Field
	for _, f := range []filter.Field{filter.FieldDateReceived, filter.FieldNarrative, filter.FieldProduct} {
		if _, ok := columns[f]; !ok {
			missing = append(missing, f)
		}
	}
	return columns, missing
}

func rowToComplaint(record []string, columns map[filter.Field]int) model.Complaint {
	get := func(f filter.Field) string {
		idx, ok := columns[f]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	return model.Complaint{
		ID:                get(filter.FieldID),
		DateReceived:      parseDate(get(filter.FieldDateReceived)),
		DateSentToCompany: parseDate(get(filter.FieldDateSentToCompany)),
		Product:           get(filter.FieldProduct),
		Issue:             get(filter.FieldIssue),
		Company:           get(filter.FieldCompany),
		State:             get(filter.FieldState),
		Narrative:         get(filter.FieldNarrative),
		CompanyResponse:   get(filter.FieldCompanyResponse),
		TimelyResponse:    get(filter.FieldTimelyResponse),
	}
}
