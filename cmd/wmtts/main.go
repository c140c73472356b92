// Command wmtts exposes the synthesis bridge operations on the command line
// and prints their results as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/plugin-tts-windows-media/internal/backend"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/host"
	"github.com/nupi-ai/plugin-tts-windows-media/internal/synth"
)

// app holds the state shared by subcommands. The bridge is built in the
// root command's PersistentPreRunE.
type app struct {
	engine     string
	voicesFile string
	logLevel   string

	bridge *synth.Bridge
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "wmtts",
		Short:        "Query voices and synthesize speech with timing metadata",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&a.engine, "engine", "stub", "speech engine (stub or edge)")
	root.PersistentFlags().StringVar(&a.voicesFile, "voices-file", "", "YAML voice catalog for the edge engine")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "loaded",
			Short: "Report whether the bridge is usable",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printJSON(cmd.OutOrStdout(), a.bridge.IsLoaded())
			},
		},
		&cobra.Command{
			Use:   "voices",
			Short: "List all voices in engine order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printJSON(cmd.OutOrStdout(), a.bridge.VoiceList())
			},
		},
		&cobra.Command{
			Use:   "voice NAME",
			Short: "Look up a voice by id, display name or description (prints null when absent)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, ok := a.bridge.VoiceInfo(args[0])
				if !ok {
					return printJSON(cmd.OutOrStdout(), nil)
				}
				return printJSON(cmd.OutOrStdout(), v)
			},
		},
		&cobra.Command{
			Use:   "default-voice",
			Short: "Show the engine default voice",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return printJSON(cmd.OutOrStdout(), a.bridge.DefaultVoiceInfo())
			},
		},
		newSynthesizeCmd(a),
	)
	return root
}

func (a *app) open(stderr io.Writer) error {
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLevel(a.logLevel)}))
	eng, err := backend.New(a.engine, a.voicesFile, logger)
	if err != nil {
		return err
	}
	a.bridge = synth.NewBridge(eng, logger, nil)
	// Trace lines would corrupt the JSON on stdout.
	a.bridge.SetTraceOutput(stderr)
	return nil
}

// synthesisOutput is the printed form of a synthesis result. Audio is
// inlined as base64 unless written to a file.
type synthesisOutput struct {
	AudioContentType    string             `json:"audioContentType"`
	AudioBytes          int                `json:"audioBytes"`
	AudioFile           string             `json:"audioFile,omitempty"`
	AudioData           []byte             `json:"audioData,omitempty"`
	Markers             []synth.Marker     `json:"markers"`
	TimedMetadataTracks []synth.TimedTrack `json:"timedMetadataTracks"`
}

func newSynthesizeCmd(a *app) *cobra.Command {
	var (
		voice string
		rate  float64
		pitch float64
		ssml  bool
		trace bool
		out   string
	)
	cmd := &cobra.Command{
		Use:   "synthesize TEXT",
		Short: "Synthesize TEXT and print audio with markers and timed tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var partial host.Options
			flags := cmd.Flags()
			if flags.Changed("voice") {
				partial.VoiceName = host.String(voice)
			}
			if flags.Changed("rate") {
				partial.SpeakingRate = host.Float(rate)
			}
			if flags.Changed("pitch") {
				partial.AudioPitch = host.Float(pitch)
			}
			if flags.Changed("ssml") {
				partial.EnableSSML = host.Bool(ssml)
			}
			if flags.Changed("trace") {
				partial.EnableTrace = host.Bool(trace)
			}

			opts := partial.Resolve(host.Defaults)
			if err := host.Validate(opts); err != nil {
				return err
			}

			result, err := a.bridge.Synthesize(host.PrepareText(a.bridge, args[0], opts), opts)
			if err != nil {
				return err
			}

			output := synthesisOutput{
				AudioContentType:    result.AudioContentType,
				AudioBytes:          len(result.AudioData),
				Markers:             result.Markers,
				TimedMetadataTracks: result.TimedMetadataTracks,
			}
			if out != "" {
				if err := os.WriteFile(out, result.AudioData, 0o644); err != nil {
					return fmt.Errorf("write audio: %w", err)
				}
				output.AudioFile = out
			} else {
				output.AudioData = result.AudioData
			}
			return printJSON(cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().StringVar(&voice, "voice", host.Defaults.VoiceName, "voice id, display name or description")
	cmd.Flags().Float64Var(&rate, "rate", host.Defaults.SpeakingRate, "speaking rate")
	cmd.Flags().Float64Var(&pitch, "pitch", host.Defaults.AudioPitch, "audio pitch")
	cmd.Flags().BoolVar(&ssml, "ssml", host.Defaults.EnableSSML, "treat TEXT as an SSML fragment")
	cmd.Flags().BoolVar(&trace, "trace", host.Defaults.EnableTrace, "print progress lines to stderr")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write audio to this file instead of inlining it")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning", "":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
