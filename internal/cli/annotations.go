package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/synapsetools/synrel/internal/config"
	"github.com/synapsetools/synrel/internal/synapse"
)

// Annotation flags
var (
	flagSet        []string
	flagEtag       string
	flagTraceToken string
	flagMerge      bool
	flagSynapseURL string
)

var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "Read and replace Synapse entity annotations",
}

var annotationsGetCmd = &cobra.Command{
	Use:   "get <entity-id>",
	Short: "Print the annotations of an entity as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(map[string]string{"synapseURL": flagSynapseURL})
		if err != nil {
			return err
		}
		client, err := synapse.NewClient(cfg.Synapse, synapse.WithTimeout(timeout(cfg)))
		if err != nil {
			fail(cmd, err)
			return nil
		}
		defer client.Close()

		got, err := client.GetAnnotations(cmd.Context(), args[0], synapse.TraceToken(flagTraceToken))
		if err != nil {
			fail(cmd, errors.Wrapf(err, "getting annotations of %s", args[0]))
			return nil
		}
		if err := writeJSON(cmd.OutOrStdout(), got); err != nil {
			fail(cmd, err)
		}
		return nil
	},
}

var annotationsSetCmd = &cobra.Command{
	Use:   "set <entity-id>",
	Short: "Replace the annotations of an entity",
	Long: "Replace the annotations of an entity with the --set values. Values are typed " +
		"from their text: true/false, integers, decimals and RFC 3339 timestamps; anything " +
		"else is a string. Numbers written with a leading zero or plus sign stay strings. Repeat a key to build a list. When --etag is not given the " +
		"current etag is fetched first.",
	Example: `  synrel annotations set syn123 --set species=human --set age=42
  synrel annotations set syn123 --merge --set tag=a --set tag=b`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAnnotationFlags(flagSet)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(map[string]string{"synapseURL": flagSynapseURL})
		if err != nil {
			return err
		}
		runAnnotationsSet(cmd, cfg, args[0], values)
		return nil
	},
}

func runAnnotationsSet(cmd *cobra.Command, cfg config.Config, entityID string, values map[string]any) {
	client, err := synapse.NewClient(cfg.Synapse, synapse.WithTimeout(timeout(cfg)))
	if err != nil {
		fail(cmd, err)
		return
	}
	defer client.Close()

	trace := synapse.TraceToken(flagTraceToken)
	rec := synapse.Record{ID: entityID, Etag: flagEtag, Annotations: values}

	if rec.Etag == "" || flagMerge {
		current, err := client.GetAnnotations(cmd.Context(), entityID, trace)
		if err != nil {
			fail(cmd, errors.Wrapf(err, "getting annotations of %s", entityID))
			return
		}
		if rec.Etag == "" {
			rec.Etag = current.Etag
		}
		if flagMerge {
			merged, err := synapse.FromWire(current.Annotations)
			if err != nil {
				fail(cmd, err)
				return
			}
			for k, v := range values {
				merged[k] = v
			}
			rec.Annotations = merged
		}
	}

	stored, err := client.SetAnnotations(cmd.Context(), rec, trace)
	if err != nil {
		fail(cmd, errors.Wrapf(err, "setting annotations of %s", entityID))
		return
	}
	if err := writeJSON(cmd.OutOrStdout(), stored); err != nil {
		fail(cmd, err)
	}
}

// parseAnnotationFlags turns repeated key=value pairs into annotation values.
// A key given more than once becomes a list in flag order.
func parseAnnotationFlags(pairs []string) (map[string]any, error) {
	lists := map[string][]any{}
	var order []string
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.WithHint(
				errors.Newf("invalid annotation %q", p),
				"use --set key=value",
			)
		}
		if _, seen := lists[key]; !seen {
			order = append(order, key)
		}
		lists[key] = append(lists[key], parseAnnotationValue(raw))
	}

	out := make(map[string]any, len(order))
	for _, key := range order {
		if vals := lists[key]; len(vals) == 1 {
			out[key] = vals[0]
		} else {
			out[key] = vals
		}
	}
	return out, nil
}

func parseAnnotationValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if plainNumber(s) {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return s
}

// plainNumber reports whether s may be typed as a number. A leading "+" or a
// zero followed by another digit marks an identifier such as a zip code.
func plainNumber(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || digits[0] == '+' {
		return false
	}
	return !(len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9')
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling output")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	annotationsCmd.AddCommand(annotationsGetCmd)
	annotationsCmd.AddCommand(annotationsSetCmd)

	annotationsCmd.PersistentFlags().StringVar(&flagTraceToken, "trace-token", "", "Opaque trace context forwarded with each request")
	annotationsCmd.PersistentFlags().StringVar(&flagSynapseURL, "synapse-url", "", "Synapse repository endpoint")

	annotationsSetCmd.Flags().StringArrayVar(&flagSet, "set", nil, "Annotation as key=value (repeatable)")
	annotationsSetCmd.Flags().StringVar(&flagEtag, "etag", "", "Current etag of the entity (fetched when empty)")
	annotationsSetCmd.Flags().BoolVar(&flagMerge, "merge", false, "Keep existing annotations not named by --set")
}
