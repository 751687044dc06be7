package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"hasheq/internal/version"
)

type versionInfo struct {
	Version    string
	GitCommit  string
	GitMessage string
	BuildDate  string
}

type versionOptions struct {
	format      string
	showHash    bool
	showMessage bool
	showDate    bool
	color       bool
}

type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Tagline    string `json:"tagline"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

const versionTagline = "equality you can hash on"

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show hasheq build fingerprints",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("message", false, "include git commit message")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return versionCmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	showHash, err := cmd.Flags().GetBool("hash")
	if err != nil {
		return fmt.Errorf("failed to get hash flag: %w", err)
	}
	showMessage, err := cmd.Flags().GetBool("message")
	if err != nil {
		return fmt.Errorf("failed to get message flag: %w", err)
	}
	showDate, err := cmd.Flags().GetBool("date")
	if err != nil {
		return fmt.Errorf("failed to get date flag: %w", err)
	}

	opts := versionOptions{
		format:      strings.ToLower(format),
		showHash:    showHash || full,
		showMessage: showMessage || full,
		showDate:    showDate || full,
	}
	switch opts.format {
	case "pretty", "json":
		// supported
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	info := collectVersionInfo()
	if opts.format == "json" {
		return renderVersionJSON(cmd.OutOrStdout(), info, opts)
	}
	if opts.color, err = useColor(cmd, cmd.OutOrStdout()); err != nil {
		return err
	}
	renderVersionPretty(cmd.OutOrStdout(), info, opts)
	return nil
}

func collectVersionInfo() versionInfo {
	v := strings.TrimSpace(version.Version)
	if v == "" {
		v = "dev"
	}
	return versionInfo{
		Version:    v,
		GitCommit:  strings.TrimSpace(version.GitCommit),
		GitMessage: strings.TrimSpace(version.GitMessage),
		BuildDate:  strings.TrimSpace(version.BuildDate),
	}
}

func renderVersionPretty(out io.Writer, info versionInfo, opts versionOptions) {
	v := info.Version
	if opts.color {
		v = version.Colored(v)
	}
	fmt.Fprintf(out, "hasheq %s (%s)\n", v, versionTagline)
	if opts.showHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit))
	}
	if opts.showMessage {
		fmt.Fprintf(out, "message: %s\n", valueOrUnknown(info.GitMessage))
	}
	if opts.showDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, info versionInfo, opts versionOptions) error {
	payload := versionPayload{
		Tool:    "hasheq",
		Version: info.Version,
		Tagline: versionTagline,
	}
	if opts.showHash {
		payload.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if opts.showMessage {
		payload.GitMessage = valueOrUnknown(info.GitMessage)
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
