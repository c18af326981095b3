package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/askdb/askdb/internal/storage"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Target is a data store that can replace a table with a local file.
type Target interface {
	Load(ctx context.Context, table, path string, format Format) error
}

type Request struct {
	// Source is a local path or an s3://bucket/key URL.
	Source string
	Table  string
	// Format overrides extension based detection when set.
	Format Format
}

type Summary struct {
	Table    string        `json:"table"`
	Source   string        `json:"source"`
	Format   Format        `json:"format"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

type Loader struct {
	Target  Target
	Objects storage.ObjectStore
	Logger  *slog.Logger
}

func (l *Loader) Load(ctx context.Context, request Request) (Summary, error) {
	if l.Target == nil {
		return Summary{}, fmt.Errorf("load target is required")
	}
	if !tableNamePattern.MatchString(request.Table) {
		return Summary{}, fmt.Errorf("invalid table name: %q", request.Table)
	}
	format := request.Format
	if format == "" {
		detected, err := DetectFormat(request.Source)
		if err != nil {
			return Summary{}, err
		}
		format = detected
	}

	start := time.Now()
	localPath := request.Source
	var size int64
	if storage.IsObjectURL(request.Source) {
		workDir, err := os.MkdirTemp("", "askdb-load-")
		if err != nil {
			return Summary{}, fmt.Errorf("create load temp dir: %w", err)
		}
		defer func() { _ = os.RemoveAll(workDir) }()

		localPath, size, err = l.download(ctx, request.Source, workDir, format)
		if err != nil {
			return Summary{}, err
		}
	} else {
		info, err := os.Stat(localPath)
		if err != nil {
			return Summary{}, fmt.Errorf("stat dataset: %w", err)
		}
		size = info.Size()
	}

	if err := l.Target.Load(ctx, request.Table, localPath, format); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Table:    request.Table,
		Source:   request.Source,
		Format:   format,
		Bytes:    size,
		Duration: time.Since(start),
	}
	l.logger().Info("dataset_loaded",
		slog.String("table", summary.Table),
		slog.String("source", summary.Source),
		slog.String("format", string(summary.Format)),
		slog.Int64("bytes", summary.Bytes),
		slog.Int64("duration_ms", summary.Duration.Milliseconds()),
	)
	return summary, nil
}

func (l *Loader) download(ctx context.Context, source, workDir string, format Format) (string, int64, error) {
	if l.Objects == nil {
		return "", 0, fmt.Errorf("object store is not configured for %q", source)
	}
	location, err := storage.ParseLocation(source)
	if err != nil {
		return "", 0, err
	}
	reader, err := l.Objects.Get(ctx, location)
	if err != nil {
		return "", 0, fmt.Errorf("get object %s: %w", location, err)
	}
	defer func() { _ = reader.Close() }()

	localPath := filepath.Join(workDir, "dataset."+string(format))
	size, err := writeFile(localPath, reader)
	if err != nil {
		return "", 0, fmt.Errorf("write local dataset %q: %w", localPath, err)
	}
	return localPath, size, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}

// Read materializes a local file in the given format.
func Read(path string, format Format) (Table, error) {
	switch format {
	case FormatCSV:
		file, err := os.Open(path)
		if err != nil {
			return Table{}, fmt.Errorf("open csv file: %w", err)
		}
		defer func() { _ = file.Close() }()
		return ReadCSV(file)
	case FormatParquet:
		return ReadParquetFile(path)
	default:
		return Table{}, fmt.Errorf("unsupported dataset format: %q", format)
	}
}

func writeFile(path string, reader io.Reader) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = file.Close() }()

	return io.Copy(file, reader)
}
