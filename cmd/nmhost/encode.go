package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"tarun-kavipurapu/native-messaging/pkg/nativemsg"

	"github.com/spf13/cobra"
)

var (
	encodeOut string
	decodeIn  string
	decodeRaw bool
)

var encodeCmd = &cobra.Command{
	Use:   "encode [json]...",
	Short: "Frame JSON values",
	Long: `Writes one native messaging frame per JSON value. Values come from the
arguments, or from stdin when there are none.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var src io.Reader = cmd.InOrStdin()
		if len(args) > 0 {
			src = strings.NewReader(strings.Join(args, "\n"))
		}

		var dst io.Writer = cmd.OutOrStdout()
		if encodeOut != "" {
			f, err := os.Create(encodeOut)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer f.Close()
			dst = f
		}

		bw := bufio.NewWriter(dst)
		n, err := encodeStream(src, bw, nativemsg.NewCodec(cfg.Limits()))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "encoded %d message(s)\n", n)
		return nil
	},
}

// encodeStream frames every JSON value read from src.
func encodeStream(src io.Reader, dst io.Writer, codec *nativemsg.Codec) (int, error) {
	dec := json.NewDecoder(src)
	dec.UseNumber()
	count := 0
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			return count, fmt.Errorf("parse input value %d: %w", count+1, err)
		}
		if err := codec.Write(dst, raw); err != nil {
			return count, fmt.Errorf("encode value %d: %w", count+1, err)
		}
		count++
	}
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Print the JSON inside native messaging frames",
	Long: `Reads frames from stdin (or --in) until the stream ends and prints each
message on its own line, compacted unless --raw is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var src io.Reader = cmd.InOrStdin()
		if decodeIn != "" {
			f, err := os.Open(decodeIn)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			src = f
		}
		_, err := decodeStream(bufio.NewReader(src), cmd.OutOrStdout(), nativemsg.NewCodec(cfg.Limits()), decodeRaw)
		return err
	},
}

// decodeStream prints every message in src, one per line.
func decodeStream(src io.Reader, dst io.Writer, codec *nativemsg.Codec, raw bool) (int, error) {
	count := 0
	for {
		msg, err := codec.ReadRaw(src)
		if err != nil {
			if nativemsg.IsEndOfInput(err) {
				return count, nil
			}
			return count, fmt.Errorf("frame %d: %w", count+1, err)
		}
		line := []byte(msg)
		if !raw {
			var buf bytes.Buffer
			if err := json.Compact(&buf, msg); err == nil {
				line = buf.Bytes()
			}
		}
		if _, err := fmt.Fprintf(dst, "%s\n", line); err != nil {
			return count, err
		}
		count++
	}
}

func init() {
	rootCmd.AddCommand(encodeCmd, decodeCmd)
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "", "Write frames to this file instead of stdout")
	decodeCmd.Flags().StringVarP(&decodeIn, "in", "i", "", "Read frames from this file instead of stdin")
	decodeCmd.Flags().BoolVar(&decodeRaw, "raw", false, "Print payloads exactly as received")
}
