package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trackstack/internal/version"
)

type versionInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

type versionOptions struct {
	format   string
	showHash bool
	showDate bool
	color    bool
}

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show trackstack build information",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	showHash, err := cmd.Flags().GetBool("hash")
	if err != nil {
		return fmt.Errorf("failed to get hash flag: %w", err)
	}
	showDate, err := cmd.Flags().GetBool("date")
	if err != nil {
		return fmt.Errorf("failed to get date flag: %w", err)
	}
	showFull, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	colored, err := useColor(cmd, os.Stdout)
	if err != nil {
		return err
	}

	opts := versionOptions{
		format:   strings.ToLower(format),
		showHash: showHash || showFull,
		showDate: showDate || showFull,
		color:    colored,
	}

	info := collectVersionInfo()
	switch opts.format {
	case "json":
		return renderVersionJSON(cmd.OutOrStdout(), info, opts)
	case "pretty":
		return renderVersionPretty(cmd.OutOrStdout(), info, opts)
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:   v,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions) error {
	if _, err := fmt.Fprintf(out, "trackstack %s\n", version.Pretty(info.Version, opts.color)); err != nil {
		return err
	}
	if opts.showHash {
		if _, err := fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit)); err != nil {
			return err
		}
	}
	if opts.showDate {
		if _, err := fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate)); err != nil {
			return err
		}
	}
	return nil
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := versionPayload{
		Tool:    "trackstack",
		Version: info.Version,
	}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.showDate {
		payload.BuildDate = valueOrUnknown(info.BuildDate)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
