package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"snakedraw/internal/draw"
)

func newParseCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Show how participant text is split into names",
		Long:  `Read participant text from a file or stdin and print the names a draw would use: split on commas and newlines, trimmed, duplicates removed.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read participants: %w", err)
			}

			text := string(data)
			names := draw.ParseNames(text)
			out := cmd.OutOrStdout()
			if raw {
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			for i, name := range names {
				fmt.Fprintln(out, "  "+StyleNumber.Render(fmt.Sprintf("%3d", i+1))+" "+StyleValue.Render(name))
			}
			printKeyValue(out, "names", strconv.Itoa(len(names)))
			printKeyValue(out, "characters", strconv.Itoa(draw.CountChars(text)))
			if len(names) == 0 {
				printError(out, "no names found")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print one name per line without styling")
	return cmd
}
