// Package cli implements the scripted (non-interactive) commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ferrum-editor/ferrum/internal/filter"
	"github.com/ferrum-editor/ferrum/internal/journal"
	"github.com/ferrum-editor/ferrum/internal/language"
	"github.com/ferrum-editor/ferrum/internal/session"
	"github.com/ferrum-editor/ferrum/internal/telemetry"
	"github.com/ferrum-editor/ferrum/internal/types"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Backend is the part of the store client the commands use
type Backend interface {
	FetchFile(ctx context.Context, path string) (*types.FileContent, error)
	SaveFile(ctx context.Context, path, content string) error
	GetConfig(ctx context.Context) (*types.Config, error)
	GetSysInfo(ctx context.Context) (*types.SysInfo, error)
}

// Options controls command output
type Options struct {
	Volume string
	Output string // text, json, yaml
	Query  string // JMESPath expression or $(shell command)
	Style  string // chroma style for highlighted output
	Color  bool
	Out    io.Writer
}

func (o Options) writer() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Cat prints a remote document, highlighted when writing to a terminal
func Cat(ctx context.Context, backend Backend, route string, opts Options) error {
	path, err := session.ResolveRoutePath(route, opts.Volume)
	if err != nil {
		return err
	}

	fc, err := backend.FetchFile(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	content := fc.Content
	if opts.Color {
		content = language.Highlight(content, language.Normalize(fc.Format, path), opts.Style)
	}
	_, err = io.WriteString(opts.writer(), content)
	return err
}

// Save uploads the contents of r as the document at route
func Save(ctx context.Context, backend Backend, route string, r io.Reader, opts Options) error {
	path, err := session.ResolveRoutePath(route, opts.Volume)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := backend.SaveFile(ctx, path, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	fmt.Fprintf(opts.writer(), "%sSaved%s %s (%d bytes)\n", colorOn(opts, colorGreen), colorOn(opts, colorReset), path, len(data))
	return nil
}

// ShowConfig prints the server configuration
func ShowConfig(ctx context.Context, backend Backend, opts Options) error {
	cfg, err := backend.GetConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	return printValue(cfg, opts)
}

// SysInfo prints one telemetry sample
func SysInfo(ctx context.Context, backend Backend, opts Options) error {
	info, err := backend.GetSysInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get system info: %w", err)
	}
	if (opts.Output != "" && opts.Output != "text") || opts.Query != "" {
		return printValue(info, opts)
	}

	w := tabwriter.NewWriter(opts.writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "System\t%s %s\n", info.System, info.Version)
	fmt.Fprintf(w, "Platform\t%s/%s\n", info.Platform, info.Arch)
	fmt.Fprintf(w, "User\t%s (%s)\n", info.UserInfo.Username, info.UserInfo.Homedir)
	fmt.Fprintf(w, "Memory\t%s%d%%%s of %s GiB\n",
		colorOn(opts, percentColor(telemetry.UsedMemoryPercent(*info))),
		telemetry.UsedMemoryPercent(*info),
		colorOn(opts, colorReset),
		telemetry.FormatGiB(info.Memory.Total))
	fmt.Fprintf(w, "CPU\t%s%d%%%s\n",
		colorOn(opts, percentColor(telemetry.CPUPercent(*info))),
		telemetry.CPUPercent(*info),
		colorOn(opts, colorReset))
	fmt.Fprintf(w, "Uptime\t%s\n", telemetry.FormatUptime(info.UpTime))
	return w.Flush()
}

// Recent prints the most recently opened documents
func Recent(j *journal.Journal, limit int, opts Options) error {
	docs, err := j.Recent(limit)
	if err != nil {
		return err
	}
	if opts.Output == "json" || opts.Output == "yaml" || opts.Query != "" {
		return printValue(docs, opts)
	}
	if len(docs) == 0 {
		fmt.Fprintln(opts.writer(), "No recent documents")
		return nil
	}

	w := tabwriter.NewWriter(opts.writer(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tLAST OPENED\tOPENS\tSAVES")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", d.Path, formatTime(d.LastOpened), d.OpenCount, d.SaveCount)
	}
	return w.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// printValue renders v in the requested format, after an optional query
func printValue(v interface{}, opts Options) error {
	if opts.Query != "" {
		out, err := filter.Value(v, opts.Query)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		fmt.Fprintln(opts.writer(), strings.TrimRight(out, "\n"))
		return nil
	}

	out, err := formatOutput(v, opts.Output)
	if err != nil {
		return err
	}
	fmt.Fprintln(opts.writer(), strings.TrimRight(out, "\n"))
	return nil
}

// formatOutput formats v as json (the default) or yaml
func formatOutput(v interface{}, format string) (string, error) {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil

	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// ANSI color codes
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
)

func colorOn(opts Options, code string) string {
	if !opts.Color {
		return ""
	}
	return code
}

func percentColor(p int) string {
	if p >= 90 {
		return colorRed
	} else if p >= 70 {
		return colorYellow
	}
	return colorGreen
}
