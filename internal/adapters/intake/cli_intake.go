package intake

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/ports"
	"go.uber.org/zap"
)

const (
	defaultResultFile = "output/result.json"
	defaultOutputDir  = "output"
	batchSummaryFile  = "batch_summary.json"
	interactiveTo     = "support@company.com"
	reportRule        = "======================================================================"
)

// DemoEmail is processed when the CLI is started without any input
var DemoEmail = core.EmailRecord{
	From:    "sarah@example.com",
	To:      "support@company.com",
	Subject: "Payment not going through",
	Body:    "Hi, I tried paying for my subscription twice but it keeps failing. This is really frustrating! Can you please fix this ASAP?",
	History: []core.HistoryEntry{},
}

// CLIOptions selects what a CLI run does
type CLIOptions struct {
	InputFile   string
	BatchDir    string
	Output      string
	OutputDir   string
	Interactive bool
	// ClearMemory is a sender address, or "all"
	ClearMemory string
	Tone        string
	NoMemory    bool
	Verbose     bool
}

// BatchItem is the outcome for one file of a batch run
type BatchItem struct {
	File   string                 `json:"file"`
	Result *core.ProcessingResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// BatchSummary is written next to the per-file results of a batch run
type BatchSummary struct {
	ProcessedCount int         `json:"processed_count"`
	FailedCount    int         `json:"failed_count"`
	Timestamp      string      `json:"timestamp"`
	Results        []BatchItem `json:"results"`
}

// CLIIntake drives the assistant from the command line
type CLIIntake struct {
	assistant ports.Assistant
	logger    *zap.Logger
	opts      CLIOptions
	in        io.Reader
	out       io.Writer
	now       func() time.Time
}

// NewCLIIntake creates a new CLI intake
func NewCLIIntake(assistant ports.Assistant, logger *zap.Logger, opts CLIOptions) (*CLIIntake, error) {
	if opts.Tone != "" {
		if _, err := core.ParseTone(opts.Tone); err != nil {
			return nil, err
		}
	}
	if opts.Output == "" {
		opts.Output = defaultResultFile
	}
	if opts.OutputDir == "" {
		opts.OutputDir = defaultOutputDir
	}
	return &CLIIntake{
		assistant: assistant,
		logger:    logger,
		opts:      opts,
		in:        os.Stdin,
		out:       os.Stdout,
		now:       time.Now,
	}, nil
}

// SetIO replaces the terminal streams
func (c *CLIIntake) SetIO(in io.Reader, out io.Writer) {
	c.in = in
	c.out = out
}

// Start runs the selected mode to completion
func (c *CLIIntake) Start() error {
	return c.Run(context.Background())
}

// Stop is a no-op for the CLI intake
func (c *CLIIntake) Stop() error {
	return nil
}

// Run dispatches on the configured mode
func (c *CLIIntake) Run(ctx context.Context) error {
	switch {
	case c.opts.ClearMemory != "":
		return c.clearMemory(ctx)
	case c.opts.Interactive:
		return c.RunInteractive(ctx)
	case c.opts.BatchDir != "":
		_, err := c.ProcessBatch(ctx, c.opts.BatchDir)
		return err
	default:
		_, err := c.ProcessFile(ctx, c.opts.InputFile)
		return err
	}
}

func (c *CLIIntake) processOptions(tone core.Tone) core.ProcessOptions {
	if tone == "" && c.opts.Tone != "" {
		// Validated in NewCLIIntake
		tone, _ = core.ParseTone(c.opts.Tone)
	}
	return core.ProcessOptions{Tone: tone, SkipMemory: c.opts.NoMemory}
}

func (c *CLIIntake) clearMemory(ctx context.Context) error {
	address := c.opts.ClearMemory
	if strings.EqualFold(address, "all") {
		address = ""
	}
	if err := c.assistant.ClearMemory(ctx, address); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "✓ Memory cleared for: %s\n", c.opts.ClearMemory)
	return nil
}

// ProcessFile processes one email file, or the demo email when path is empty,
// prints the report and writes the result document
func (c *CLIIntake) ProcessFile(ctx context.Context, path string) (*core.ProcessingResult, error) {
	record := DemoEmail
	if path != "" {
		loaded, err := LoadRecord(path)
		if err != nil {
			return nil, err
		}
		record = *loaded
	} else {
		c.logger.Info("No input file given, processing the demo email")
	}

	result, err := c.assistant.Process(ctx, &record, c.processOptions(""))
	if err != nil {
		c.logger.Error("Failed to process email", zap.Error(err))
		return nil, err
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, FormatResult(result, c.opts.Verbose))

	if err := writeJSON(c.opts.Output, result); err != nil {
		return nil, err
	}
	c.logger.Info("Result saved", zap.String("file", c.opts.Output))

	return result, nil
}

// ProcessBatch processes every *.json file of dir in lexical order. A failing
// file is recorded in the summary and the batch continues.
func (c *CLIIntake) ProcessBatch(ctx context.Context, dir string) (*BatchSummary, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("input directory not found: %w", err)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list batch directory: %w", err)
	}
	sort.Strings(files)

	if err := os.MkdirAll(c.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	summary := &BatchSummary{Results: []BatchItem{}}
	if len(files) == 0 {
		c.logger.Warn("No JSON files found", zap.String("dir", dir))
	} else {
		c.logger.Info("Batch processing", zap.Int("files", len(files)))
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(file)
		logger := c.logger.With(zap.String("file", name))
		item := BatchItem{File: name}

		result, err := c.processBatchItem(ctx, file)
		if err != nil {
			logger.Error("Failed to process email", zap.Error(err))
			item.Error = err.Error()
			summary.FailedCount++
		} else {
			logger.Info("Processed email", zap.Bool("escalate", result.Escalation.Escalate))
			item.Result = result
			summary.ProcessedCount++
		}
		summary.Results = append(summary.Results, item)
	}

	summary.Timestamp = core.FormatTimestamp(c.now())
	if err := writeJSON(filepath.Join(c.opts.OutputDir, batchSummaryFile), summary); err != nil {
		return nil, err
	}

	c.logger.Info("Batch processing complete",
		zap.Int("processed", summary.ProcessedCount),
		zap.Int("failed", summary.FailedCount),
		zap.String("output_dir", c.opts.OutputDir))

	return summary, nil
}

func (c *CLIIntake) processBatchItem(ctx context.Context, file string) (*core.ProcessingResult, error) {
	record, err := LoadRecord(file)
	if err != nil {
		return nil, err
	}
	result, err := c.assistant.Process(ctx, record, c.processOptions(""))
	if err != nil {
		return nil, err
	}
	stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	if err := writeJSON(filepath.Join(c.opts.OutputDir, "result_"+stem+".json"), result); err != nil {
		return nil, err
	}
	return result, nil
}

// RunInteractive prompts for an email and a tone and prints the report
func (c *CLIIntake) RunInteractive(ctx context.Context) error {
	scanner := bufio.NewScanner(c.in)
	ask := func(prompt, fallback string) string {
		fmt.Fprint(c.out, prompt)
		if !scanner.Scan() {
			return fallback
		}
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			return answer
		}
		return fallback
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, reportRule)
	fmt.Fprintln(c.out, "EMAIL ASSISTANT - INTERACTIVE MODE")
	fmt.Fprintln(c.out, reportRule)

	fmt.Fprintln(c.out, "\nEnter email details:")
	record := core.EmailRecord{
		From:    ask("From: ", "customer@example.com"),
		To:      interactiveTo,
		Subject: ask("Subject: ", "Test email"),
		Body:    ask("Body: ", "This is a test email"),
		History: []core.HistoryEntry{},
	}

	fmt.Fprintln(c.out, "\nSelect tone style:")
	fmt.Fprintln(c.out, "1. Professional (default)")
	fmt.Fprintln(c.out, "2. Friendly")
	fmt.Fprintln(c.out, "3. Formal")
	fmt.Fprintln(c.out, "4. Casual")
	tone := toneChoice(ask("Choice (1-4): ", "1"))

	result, err := c.assistant.Process(ctx, &record, c.processOptions(tone))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, FormatResult(result, c.opts.Verbose))
	return nil
}

// toneChoice maps the interactive menu to a tone, defaulting to professional
func toneChoice(choice string) core.Tone {
	switch choice {
	case "2":
		return core.ToneFriendly
	case "3":
		return core.ToneFormal
	case "4":
		return core.ToneCasual
	default:
		return core.ToneProfessional
	}
}

// LoadRecord reads an email from a JSON document or, for anything that does
// not look like JSON, from a raw RFC 5322 message
func LoadRecord(path string) (*core.EmailRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read email file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var record core.EmailRecord
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return nil, fmt.Errorf("failed to parse email file %s: %w", path, err)
		}
		if record.History == nil {
			record.History = []core.HistoryEntry{}
		}
		return &record, nil
	}

	record, _, err := parseRecord(data, "", nil)
	if err != nil {
		return nil, err
	}
	record.History = []core.HistoryEntry{}
	return record, nil
}

// FormatResult renders a result for the console
func FormatResult(result *core.ProcessingResult, verbose bool) string {
	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("EMAIL PROCESSING RESULT\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "To: %s\n", result.Reply.To)
	fmt.Fprintf(&b, "From: %s\n", result.Reply.From)
	fmt.Fprintf(&b, "Subject: %s\n", result.Reply.Subject)
	fmt.Fprintf(&b, "Intent: %s\n", strings.ToUpper(string(result.Classification.Intent)))
	fmt.Fprintf(&b, "Sentiment: %s\n", strings.ToUpper(string(result.Classification.Sentiment)))
	if result.Escalation.Escalate {
		b.WriteString("Escalate: YES\n")
		fmt.Fprintf(&b, "   Reason: %s\n", result.Escalation.Reason)
	} else {
		b.WriteString("Escalate: NO\n")
	}
	if verbose {
		fmt.Fprintf(&b, "Tone: %s\n", result.Reply.Tone)
		fmt.Fprintf(&b, "Summary: %s\n", result.Summary)
	}
	fmt.Fprintf(&b, "Reply Body:\n%s\n", result.Reply.Body)
	fmt.Fprintf(&b, "Processing Time: %.2fs\n", result.ProcessingTimeSeconds)
	b.WriteString(reportRule)
	return b.String()
}

// writeJSON writes v as indented JSON, creating parent directories
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
