package cli

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quorumgate/internal/message"
)

// ReceiveOptions holds flags for the receive command.
type ReceiveOptions struct {
	*RootOptions
	Database string
	Adapter  string
	Message  string
}

// messageInput is the JSON wire form of a message.
type messageInput struct {
	SourceChain      uint64 `json:"source_chain"`
	DestinationChain uint64 `json:"destination_chain"`
	Target           string `json:"target"`
	CallData         string `json:"call_data"` // 0x-prefixed hex
	Value            string `json:"value"`     // decimal string
	Nonce            uint64 `json:"nonce"`
	Expiration       int64  `json:"expiration"` // unix seconds
}

// NewReceiveCommand creates the receive command.
func NewReceiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReceiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Record an adapter's delivery of a message",
		Long: `Record a bridge adapter's delivery of a cross-chain message.

The message is read from a JSON file (or stdin with --message -):

  {
    "source_chain": 1,
    "destination_chain": 100,
    "target": "0x1111111111111111111111111111111111111111",
    "call_data": "0x1234",
    "value": "0",
    "nonce": 7,
    "expiration": 2000
  }

Example:
  quorumgate receive --db gate.db --adapter 0xaaaa... --message msg.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceive(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Adapter, "adapter", "", "delivering adapter identity (required)")
	_ = cmd.MarkFlagRequired("adapter")
	cmd.Flags().StringVar(&opts.Message, "message", "", "path to message JSON, or - for stdin (required)")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func runReceive(opts *ReceiveOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	origin, err := message.ParseAddress(opts.Adapter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --adapter", err)
	}
	msg, err := readMessage(opts.Message, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid message", err)
	}

	g, l, err := openGate(ctx, opts.RootOptions, opts.Database)
	if err != nil {
		return err
	}
	defer l.Close()

	if err := g.Receive(ctx, msg, origin); err != nil {
		return reportProtocolError(cmd, opts.RootOptions, err)
	}

	id, err := msg.ID()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to derive message id", err)
	}
	if opts.Format == "json" {
		return outputJSON(cmd, map[string]any{
			"message_id": string(id),
			"adapter":    string(origin),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Delivered %s by %s\n", id, origin)
	return nil
}

// readMessage loads and decodes the message JSON from a file or stdin.
func readMessage(path string, stdin io.Reader) (message.Message, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return message.Message{}, err
	}

	var input messageInput
	if err := json.Unmarshal(data, &input); err != nil {
		return message.Message{}, fmt.Errorf("parsing message JSON: %w", err)
	}
	return input.toMessage()
}

func (in messageInput) toMessage() (message.Message, error) {
	target, err := message.ParseAddress(in.Target)
	if err != nil {
		return message.Message{}, fmt.Errorf("target: %w", err)
	}
	value, err := message.ParseAmount(in.Value)
	if err != nil {
		return message.Message{}, fmt.Errorf("value: %w", err)
	}
	callData, err := decodeHex(in.CallData)
	if err != nil {
		return message.Message{}, fmt.Errorf("call_data: %w", err)
	}
	return message.Message{
		SourceChain:      message.ChainID(in.SourceChain),
		DestinationChain: message.ChainID(in.DestinationChain),
		Target:           target,
		CallData:         callData,
		Value:            value,
		Nonce:            in.Nonce,
		Expiration:       in.Expiration,
	}, nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("missing 0x prefix")
	}
	return hex.DecodeString(s[2:])
}
