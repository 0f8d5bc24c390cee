package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/decstore/internal/codec"
	"github.com/roach88/decstore/internal/decimal"
)

// EncodedDecimal is one decimal with both of its stored representations.
type EncodedDecimal struct {
	Input string `json:"input"`
	Value string `json:"value"`
	Order string `json:"order"`
	Raw   string `json:"raw"`
}

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Key bool // input is an order key rather than raw text
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "encode <decimal>...",
		Short: "Encode decimals into order keys and raw text",
		Long: `Encode decimal text into the stored representation.

Each value is printed with its order key, which sorts bytewise in numeric
order, and its canonical raw text. The codec limits come from the config.

Examples:
  decstore encode 1.234 -98.993 0
  decstore encode 1e400 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, args, cmd)
		},
	}
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <text>...",
		Short: "Decode raw text or order keys",
		Long: `Decode stored representations back into decimals.

By default each argument is canonical raw text (1.234e+0). With --key each
argument is an order key (250000011234.).

Examples:
  decstore decode 9.8993e+1
  decstore decode --key 250000011234.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Key, "key", false, "arguments are order keys")

	return cmd
}

func runEncode(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	c, err := newCodec(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to create codec", err)
	}

	results := make([]EncodedDecimal, 0, len(args))
	for _, arg := range args {
		v, err := c.Parse(arg)
		if err != nil {
			return formatter.Fail(ExitCommandError, fmt.Sprintf("cannot encode %q", arg), err)
		}
		enc, err := encodeValue(c, arg, v)
		if err != nil {
			return formatter.Fail(ExitCommandError, fmt.Sprintf("cannot encode %q", arg), err)
		}
		results = append(results, enc)
	}

	return outputEncoded(formatter, results)
}

func runDecode(opts *DecodeOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	c, err := newCodec(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, "failed to create codec", err)
	}

	results := make([]EncodedDecimal, 0, len(args))
	for _, arg := range args {
		var v decimal.Value
		if opts.Key {
			v, err = c.DecodeKey(codec.OrderKey(arg))
		} else {
			v, err = c.Decode(codec.RawText(arg))
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, fmt.Sprintf("cannot decode %q", arg), err)
		}
		enc, err := encodeValue(c, arg, v)
		if err != nil {
			return formatter.Fail(ExitCommandError, fmt.Sprintf("cannot decode %q", arg), err)
		}
		results = append(results, enc)
	}

	return outputEncoded(formatter, results)
}

func encodeValue(c *codec.Codec, input string, v decimal.Value) (EncodedDecimal, error) {
	sf, err := c.Store(v)
	if err != nil {
		return EncodedDecimal{}, err
	}
	return EncodedDecimal{
		Input: input,
		Value: v.String(),
		Order: string(sf.Order),
		Raw:   string(sf.Raw),
	}, nil
}

func outputEncoded(formatter *OutputFormatter, results []EncodedDecimal) error {
	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "%s\torder=%s\traw=%s\n", r.Value, r.Order, r.Raw)
	}
	return nil
}
