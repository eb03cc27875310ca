// =============================================================================
// Billing Note Emitter - File Manager Utility
// =============================================================================
//
// This module provides the file system side of the command line front-end:
//   - Directory management
//   - Dataset discovery
//   - Archive naming and writing
//   - Processing summary logs
//
// The HTTP front-end never touches the file system through this package;
// archives are streamed back to the client instead.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// datasetExtensions are the file extensions accepted as datasets.
var datasetExtensions = map[string]struct{}{
	".csv":  {},
	".txt":  {},
	".xlsx": {},
	".xlsm": {},
}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the emitter.
type FileManager struct {
	// OutputDir is where archives and summary logs are written.
	OutputDir string

	// TemplatesDir is where note templates are kept.
	TemplatesDir string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(outputDir, templatesDir string) *FileManager {
	return &FileManager{
		OutputDir:    outputDir,
		TemplatesDir: templatesDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.TemplatesDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// DATASET DISCOVERY
// =============================================================================

// DiscoverDatasets returns the datasets at path: path itself when it is a
// file, or every CSV and XLSX file directly inside it when it is a
// directory, sorted by name.
//
// RETURNS:
//   - A slice of file paths.
//   - An error if path cannot be read.
func DiscoverDatasets(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if IsDataset(entry.Name()) {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

// IsDataset reports whether name has a dataset extension.
func IsDataset(name string) bool {
	_, ok := datasetExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// =============================================================================
// ARCHIVE OUTPUT
// =============================================================================

// GenerateOutputFileName expands an archive name format.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {short}     - Day, month, hour and minute (DDMM_HHMM)
//     {timestamp} - YYYYMMDD_HHMMSS
//     {date}      - YYYYMMDD
//     {time}      - HHMMSS
//     {uuid}      - A random UUID
//     {source}    - Extra parameter, usually the dataset name
//   - now: The time to stamp.
//   - params: Extra placeholder values, keyed without braces.
//
// RETURNS:
//   - The generated file name, always ending in ".zip".
//
// EXAMPLE:
//
//	format: "Notas_{short}.zip"
//	output: "Notas_0703_0930.zip"
func GenerateOutputFileName(format string, now time.Time, params map[string]string) string {
	if format == "" {
		format = "Notas_{short}.zip"
	}

	pairs := []string{
		"{short}", now.Format("0201_1504"),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		pairs = append(pairs, "{uuid}", uuid.New().String())
	}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", value)
	}

	result := strings.NewReplacer(pairs...).Replace(format)

	if !strings.HasSuffix(strings.ToLower(result), ".zip") {
		result += ".zip"
	}

	return result
}

// WriteArchive writes an archive into the output directory. The file is
// written under a temporary name and renamed, so a partial archive is never
// visible under its final name.
//
// RETURNS:
//   - The path to the archive.
//   - An error if writing fails.
func (fm *FileManager) WriteArchive(name string, data []byte) (string, error) {
	if err := os.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(fm.OutputDir, filepath.Base(name))

	tmp, err := os.CreateTemp(fm.OutputDir, ".notas-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write archive: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}

	return path, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID     string
	Source    string
	Template  string
	Archive   string
	StartTime time.Time
	EndTime   time.Time
	Total     int
	Successes int
	Failures  int
	Outcome   string

	// Errors holds one line per failed row.
	Errors []string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryFileName := fmt.Sprintf("processing_summary_%s.txt", summary.StartTime.Format("20060102_150405"))
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Billing Note Emitter - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Dataset:        %s\n"+
		"  Template:       %s\n"+
		"  Archive:        %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Rows:           %d\n"+
		"  Notes:          %d\n"+
		"  Failed:         %d\n"+
		"  Outcome:        %s\n\n",
		summary.RunID,
		summary.Source,
		summary.Template,
		summary.Archive,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.Total,
		summary.Successes,
		summary.Failures,
		summary.Outcome)

	if len(summary.Errors) > 0 {
		writer.WriteString("Failed Rows:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, e := range summary.Errors {
			fmt.Fprintf(writer, "  %s\n", e)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
