package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"tarun-kavipurapu/native-messaging/pkg/nativemsg"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive frame inspector",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		codec := nativemsg.NewCodec(cfg.Limits())
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "Native Messaging Frame Shell")
		fmt.Fprintln(out, "Type 'help' for commands.")

		prompt.New(
			func(in string) { shellExecutor(in, codec, out) },
			shellCompleter,
			prompt.OptionPrefix("nmhost> "),
			prompt.OptionTitle("Native Messaging Frame Shell"),
		).Run()
	},
}

func shellExecutor(in string, codec *nativemsg.Codec, out io.Writer) {
	in = strings.TrimSpace(in)
	blocks := strings.Fields(in)
	if len(blocks) == 0 {
		return
	}
	rest := strings.TrimSpace(strings.TrimPrefix(in, blocks[0]))

	switch blocks[0] {
	case "exit", "quit":
		fmt.Fprintln(out, "Bye.")
		os.Exit(0)
	case "encode":
		if rest == "" {
			fmt.Fprintln(out, "Usage: encode <json>")
			return
		}
		frame, err := codec.Encode(json.RawMessage(rest))
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "len=%d\n% x\n", len(frame)-nativemsg.HeaderSize, frame)
	case "decode":
		if rest == "" {
			fmt.Fprintln(out, "Usage: decode <hex bytes>")
			return
		}
		frame, err := hex.DecodeString(strings.Join(strings.Fields(rest), ""))
		if err != nil {
			fmt.Fprintf(out, "Invalid hex: %v\n", err)
			return
		}
		r := bytes.NewReader(frame)
		msg, err := codec.ReadRaw(r)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "%s\n", msg)
		if r.Len() > 0 {
			fmt.Fprintf(out, "(%d trailing bytes not consumed)\n", r.Len())
		}
	case "limits":
		l := codec.Limits()
		fmt.Fprintf(out, "max incoming: %s\nmax outgoing: %s\n", sizeString(l.MaxIncoming), sizeString(l.MaxOutgoing))
	case "help":
		fmt.Fprintln(out, "Available commands:")
		fmt.Fprintln(out, "  encode <json>          - Show the frame for a JSON value")
		fmt.Fprintln(out, "  decode <hex>           - Decode a frame given as hex bytes")
		fmt.Fprintln(out, "  limits                 - Show message size limits")
		fmt.Fprintln(out, "  exit                   - Leave the shell")
	default:
		fmt.Fprintln(out, "Unknown command: "+blocks[0])
	}
}

func sizeString(n uint32) string {
	if n == 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d bytes", n)
}

func shellCompleter(d prompt.Document) []prompt.Suggest {
	s := []prompt.Suggest{
		{Text: "encode", Description: "Frame a JSON value"},
		{Text: "decode", Description: "Decode a hex frame"},
		{Text: "limits", Description: "Show size limits"},
		{Text: "exit", Description: "Exit the shell"},
		{Text: "help", Description: "Show help"},
	}
	return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
