package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/drivelog/pkg/config"
	"github.com/ccollicutt/drivelog/pkg/detector"
	"github.com/ccollicutt/drivelog/pkg/store"
)

// maxDetectFiles caps how many matched inputs are sampled for their kind.
const maxDetectFiles = 10

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and structure
- Input file existence and accessibility
- Input kinds, so tagged logs and sheets go to the right command
- Session archive location
- Webhook configuration

Example:
  drivelog diagnose config.yaml
  drivelog diagnose -v config.yaml  # verbose output, tests webhook reachability`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDiagnose(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check inputs exist
	inputResults, files := checkInputs(cfg)
	results = append(results, inputResults...)

	// 4. Check what kind of inputs they are
	results = append(results, checkInputKinds(ctx, files)...)

	// 5. Check the archive location
	results = append(results, checkStore(ctx, cfg, opts)...)

	// 6. Check webhooks configuration
	results = append(results, checkWebhooks(ctx, cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'drivelog detect <file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}
	if info.Size() == 0 {
		result.Status = "error"
		result.Message = "Config file is empty"
		result.Suggests = []string{
			"Use 'drivelog detect <file> --write-config config.yaml' to generate a starter config",
		}
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		switch {
		case strings.Contains(err.Error(), "yaml"):
			result.Suggests = []string{
				"Check YAML syntax - ensure proper indentation (use spaces, not tabs)",
			}
		case strings.Contains(err.Error(), "inputs"):
			result.Suggests = []string{
				"Add an inputs section to your config",
				"Example: inputs:\n  - /data/drives/*.nmf",
				fmt.Sprintf("Or set %s", config.EnvInputs),
			}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Inputs: %d", len(cfg.Inputs)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

// checkInputs checks each input pattern and returns the files found.
func checkInputs(cfg *config.Config) ([]DiagnosticResult, []string) {
	results := []DiagnosticResult{}
	var files []string

	for _, source := range cfg.Inputs {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Input: %s", source),
		}

		if strings.ContainsAny(source, "*?[") {
			matches, err := filepath.Glob(source)
			if err != nil {
				result.Status = "error"
				result.Message = fmt.Sprintf("Invalid glob pattern: %v", err)
			} else if len(matches) == 0 {
				result.Status = "warning"
				result.Message = "Glob pattern matches no files"
				result.Suggests = []string{
					"Check if the input files exist at this path",
					"Verify the glob pattern syntax",
				}
			} else {
				result.Status = "ok"
				result.Message = fmt.Sprintf("Matches %d file(s)", len(matches))
				result.Details = append(result.Details, matches...)
				files = append(files, matches...)
			}
		} else {
			info, err := os.Stat(source)
			if os.IsNotExist(err) {
				result.Status = "error"
				result.Message = "File does not exist"
				result.Suggests = []string{"Check if the input file path is correct"}
			} else if err != nil {
				result.Status = "error"
				result.Message = fmt.Sprintf("Cannot access file: %v", err)
				result.Suggests = []string{"Check file permissions"}
			} else if info.IsDir() {
				result.Status = "error"
				result.Message = "Path is a directory, not a file"
				result.Suggests = []string{
					"Use a glob pattern to match files in directory",
					"Example: /data/drives/*.nmf",
				}
			} else if info.Size() == 0 {
				result.Status = "warning"
				result.Message = "File is empty (0 bytes)"
			} else {
				result.Status = "ok"
				result.Message = fmt.Sprintf("File exists (%d bytes)", info.Size())
				files = append(files, source)
			}
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Inputs Summary",
			Status:  "error",
			Message: "No accessible input files found",
			Suggests: []string{
				"Ensure at least one input file exists and is readable",
			},
		})
	}

	return results, files
}

// checkInputKinds samples inputs and warns when they need different commands
// or are not recognised at all.
func checkInputKinds(ctx context.Context, files []string) []DiagnosticResult {
	if len(files) == 0 {
		return nil
	}

	result := DiagnosticResult{
		Check: "Input Kinds",
	}

	d := detector.New(detector.WithSampleSize(20))
	commands := map[string][]string{}
	var unknown []string

	sampled := files
	if len(sampled) > maxDetectFiles {
		sampled = sampled[:maxDetectFiles]
	}
	for _, f := range sampled {
		det, err := d.DetectFromFile(ctx, f)
		if err != nil || !det.HasMatch() {
			unknown = append(unknown, filepath.Base(f))
			continue
		}
		cmd := det.BestMatch().Format.Command
		commands[cmd] = append(commands[cmd], filepath.Base(f))
	}

	for cmd, names := range commands {
		result.Details = append(result.Details, fmt.Sprintf("%s: %s", cmd, strings.Join(names, ", ")))
	}
	if len(unknown) > 0 {
		result.Details = append(result.Details, fmt.Sprintf("unrecognised: %s", strings.Join(unknown, ", ")))
	}

	switch {
	case len(commands) == 0:
		result.Status = "error"
		result.Message = "No input is a tagged log or a sheet with coordinates"
		result.Suggests = []string{"Use 'drivelog detect <file>' to inspect an input"}
	case len(commands) > 1:
		result.Status = "warning"
		result.Message = "Inputs mix tagged logs and sheets"
		result.Suggests = []string{"Split them into separate configs for 'decode' and 'import'"}
	case len(unknown) > 0:
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d input(s) not recognised", len(unknown))
	default:
		for cmd := range commands {
			result.Status = "ok"
			result.Message = fmt.Sprintf("Read with 'drivelog %s'", cmd)
		}
	}
	if len(files) > len(sampled) {
		result.Details = append(result.Details, fmt.Sprintf("sampled %d of %d files", len(sampled), len(files)))
	}

	return []DiagnosticResult{result}
}

func checkStore(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	path := cfg.Store.Path
	if path == "" {
		if opts.Verbose {
			return []DiagnosticResult{{
				Check:   "Session Archive",
				Status:  "ok",
				Message: "No archive configured (optional)",
			}}
		}
		return nil
	}

	result := DiagnosticResult{
		Check: "Session Archive",
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		dir := filepath.Dir(path)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			result.Status = "error"
			result.Message = fmt.Sprintf("Directory does not exist: %s", dir)
			return []DiagnosticResult{result}
		}
		result.Status = "ok"
		result.Message = "Archive will be created on first run"
		return []DiagnosticResult{result}
	}

	s, err := store.Open(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot open archive: %v", err)
		result.Suggests = []string{"Check the file is a sqlite database and is writable"}
		return []DiagnosticResult{result}
	}
	defer s.Close()

	sessions, err := s.Sessions(ctx)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot read archive: %v", err)
		return []DiagnosticResult{result}
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d session(s) archived", len(sessions))
	return []DiagnosticResult{result}
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== drivelog Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before decoding.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}

// checkWebhooks reports each webhook. URLs and triggers were already
// validated by config.Load, so only unresolved tokens are flagged here.
func checkWebhooks(ctx context.Context, cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  "ok",
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  "ok",
			Message: fmt.Sprintf("Trigger: %s, timeout %s", wh.Trigger, wh.Timeout),
			Details: []string{fmt.Sprintf("URL: %s", wh.URL)},
		}

		// An unset env var leaves the literal reference behind.
		if strings.HasPrefix(wh.Token, "$") {
			result.Status = "warning"
			result.Message = fmt.Sprintf("Token appears to be an unresolved env var: %s", wh.Token)
			result.Suggests = []string{"Export the variable before running drivelog"}
		} else if wh.Token != "" {
			result.Details = append(result.Details, "Token: configured")
		}

		if wh.Trigger == config.WebhookTriggerNever {
			result.Details = append(result.Details, "Disabled by trigger")
		}
		results = append(results, result)

		if opts.Verbose && wh.Trigger != config.WebhookTriggerNever {
			conn := checkWebhookConnectivity(ctx, wh)
			conn.Check = fmt.Sprintf("Webhook Connectivity: %s", name)
			results = append(results, conn)
		}
	}

	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}

	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{
			"Check if the webhook URL is correct",
			"Verify network connectivity",
		}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = "ok"
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = "warning"
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{
			"The endpoint may require POST method (will work during actual webhook send)",
			"Check authentication if using a token",
		}
	}

	return result
}
