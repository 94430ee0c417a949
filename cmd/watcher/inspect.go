package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"burnwatch/internal/config"
	"burnwatch/internal/evmlog"
	"burnwatch/internal/model"
)

func runTopic(cmd *cobra.Command, args []string) error {
	sig, err := evmlog.EventSignature(args[0])
	if err != nil {
		return err
	}
	topic, err := evmlog.EventTopic(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", sig, topic.Hex())
	return nil
}

func runCheckpoints(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	format, _ := cmd.Flags().GetString("output")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open checkpoint store: %w", err)
	}
	defer store.Close()

	checkpoints, err := store.List(ctx)
	if err != nil {
		return err
	}
	return writeCheckpoints(cmd.OutOrStdout(), format, checkpoints)
}

func writeCheckpoints(out io.Writer, format string, checkpoints []model.Checkpoint) error {
	if checkpoints == nil {
		checkpoints = []model.Checkpoint{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(checkpoints)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(checkpoints)
	case "table", "":
		if len(checkpoints) == 0 {
			_, err := fmt.Fprintln(out, "no checkpoints")
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NETWORK ID\tCONTRACT\tBLOCK HEIGHT")
		for _, cp := range checkpoints {
			fmt.Fprintf(tw, "%d\t%s\t%d\n", cp.NetworkID, cp.ContractAddress, cp.BlockHeight)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
