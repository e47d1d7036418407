package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autodiag/candiag/pkg/bar"
	"github.com/autodiag/candiag/pkg/candb"
)

func init() {
	replayCmd.Flags().Bool("quiet", false, "only show the summary")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <ref-file> <log-file>",
	Short: "run a recorded frame log through a signal catalog",
	Long: `Replays a recorded frame log against a catalog. Each log line holds a
hex arbitration id followed by hex data bytes, e.g. "280 00 00 00 0F A0".
Lines with unknown ids are counted and skipped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := candb.LoadREFFile(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		quiet, _ := cmd.Flags().GetBool("quiet")

		lines, err := readLines(f)
		if err != nil {
			return err
		}

		pb := bar.New(len(lines), "replaying")
		var decoded, unknown, malformed int
		for _, line := range lines {
			pb.Add(1)
			id, data, err := parseLogLine(line)
			if err != nil {
				malformed++
				continue
			}
			values, ok := catalog.DecodeFrame(id, data)
			if !ok {
				unknown++
				continue
			}
			decoded++
			if quiet {
				continue
			}
			for _, v := range values {
				fmt.Printf("\n0x%03X %s", id, v.String())
			}
		}
		fmt.Printf("\n%d frames decoded, %d unknown ids, %d malformed lines\n", decoded, unknown, malformed)
		return nil
	},
}

func readLines(f *os.File) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}

func parseLogLine(line string) (uint32, []byte, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, nil, fmt.Errorf("short line %q", line)
	}
	id, err := strconv.ParseUint(fields[0], 16, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid id %q: %w", fields[0], err)
	}
	data, err := parseHex(strings.Join(fields[1:], ""))
	if err != nil {
		return 0, nil, err
	}
	return uint32(id), data, nil
}
