// epollctl 是 epollserver 的配套工具：向服务端发送消息，或查看 --capture 生成的归档。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/legamerdc/epollserver/capture"
	"github.com/legamerdc/epollserver/client"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "epollctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "epollctl",
		Short:         "Client tooling for epollserver",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newSendCommand(), newDumpCommand())
	return root
}

func newSendCommand() *cobra.Command {
	var (
		raw    bool
		repeat int
	)
	cmd := &cobra.Command{
		Use:   "send <socket name> <message>...",
		Short: "Send each message as one length-prefixed frame",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
			}
			c, err := client.DialContext(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer c.Close()
			var sent int
			for i := 0; i < repeat; i++ {
				for _, msg := range args[1:] {
					if raw {
						err = c.Send([]byte(msg))
					} else {
						err = c.SendLine(msg)
					}
					if err != nil {
						return fmt.Errorf("send #%d: %w", sent+1, err)
					}
					sent++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d message(s)\n", sent)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "send the bytes as given, without the \"\\n\\x00\" terminator")
	cmd.Flags().IntVar(&repeat, "repeat", 1, "send the message list this many times")
	return cmd
}

func newDumpCommand() *cobra.Command {
	var maxPayload int
	cmd := &cobra.Command{
		Use:   "dump <capture file>",
		Short: "Print the records of a capture archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return dump(cmd.OutOrStdout(), f, maxPayload)
		},
	}
	cmd.Flags().IntVar(&maxPayload, "max-payload", 0, "reject records larger than this (0 for unlimited)")
	return cmd
}

func dump(out io.Writer, r io.Reader, maxPayload int) error {
	cr, err := capture.NewReader(r, maxPayload)
	if err != nil {
		return err
	}
	defer cr.Close()
	var n int
	for {
		rec, err := cr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		n++
		fmt.Fprintf(out, "conn=%d len=%d %q\n", rec.ConnID, len(rec.Payload), rec.Payload)
	}
	fmt.Fprintf(out, "%d record(s)\n", n)
	return nil
}
