package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rl1809/serial-registry/internal/adapter/export"
	"github.com/rl1809/serial-registry/internal/core/domain"
)

type recordOutput struct {
	ID           string    `json:"id"`
	ProductName  string    `json:"product_name"`
	BatchID      string    `json:"batch_id"`
	SerialNumber string    `json:"serial_number"`
	CreatedAt    time.Time `json:"created_at"`
	CodePayload  string    `json:"code_payload"`
}

func toOutput(records []domain.SerialRecord) []recordOutput {
	out := make([]recordOutput, 0, len(records))
	for _, r := range records {
		out = append(out, recordOutput{
			ID:           r.ID,
			ProductName:  r.ProductName,
			BatchID:      r.BatchID,
			SerialNumber: r.SerialNumber,
			CreatedAt:    r.CreatedAt.UTC(),
			CodePayload:  r.CodePayload,
		})
	}
	return out
}

type batchOutput struct {
	BatchID string         `json:"batch_id"`
	Count   int            `json:"count"`
	Records []recordOutput `json:"records"`
}

func writeBatchText(w io.Writer, batchID string, records []domain.SerialRecord) error {
	fmt.Fprintf(w, "batch %s: %d serial(s)\n", batchID, len(records))
	for _, r := range records {
		if _, err := fmt.Fprintln(w, r.SerialNumber); err != nil {
			return err
		}
	}
	return nil
}

type generateOptions struct {
	product        string
	serialFormat   string
	prefix         string
	suffix         string
	length         int
	includeSymbols bool
	quantity       int
}

func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of serial numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.product, "product", "p", "", "product name (required)")
	cmd.Flags().StringVar(&opts.serialFormat, "serial-format", "uuid", "serial format (uuid|alphanumeric|numeric)")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "literal prefix")
	cmd.Flags().StringVar(&opts.suffix, "suffix", "", "literal suffix")
	cmd.Flags().IntVarP(&opts.length, "length", "l", 12, "random body length for alphanumeric and numeric formats")
	cmd.Flags().BoolVar(&opts.includeSymbols, "symbols", false, "add symbols to the alphanumeric alphabet")
	cmd.Flags().IntVarP(&opts.quantity, "quantity", "n", 1, "number of serials")
	_ = cmd.MarkFlagRequired("product")

	return cmd
}

func runGenerate(cmd *cobra.Command, rootOpts *RootOptions, opts *generateOptions) error {
	format, err := domain.ParseFormat(opts.serialFormat)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Serials.GenerateBatch(cmd.Context(), opts.product, domain.GenerationConfig{
		Format:         format,
		Prefix:         opts.prefix,
		Suffix:         opts.suffix,
		Length:         opts.length,
		IncludeSymbols: opts.includeSymbols,
		Quantity:       opts.quantity,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "generate batch", err)
	}

	batchID := records[0].BatchID
	f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(batchOutput{BatchID: batchID, Count: len(records), Records: toOutput(records)}, func(w io.Writer) error {
		return writeBatchText(w, batchID, records)
	})
}

type verifyOutput struct {
	Valid  bool          `json:"valid"`
	Record *recordOutput `json:"record,omitempty"`
}

func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <serial>",
		Short: "Check whether a serial number was issued",
		Long:  "Looks the serial up byte for byte. Exits 1 when it is not registered.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, rootOpts, args[0])
		},
	}
}

func runVerify(cmd *cobra.Command, rootOpts *RootOptions, serial string) error {
	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.Serials.Verify(cmd.Context(), serial)
	if err != nil {
		return WrapExitError(ExitCommandError, "verify", err)
	}

	out := verifyOutput{Valid: v.Valid()}
	if v.Record != nil {
		out.Record = &toOutput([]domain.SerialRecord{*v.Record})[0]
	}

	f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	err = f.Emit(out, func(w io.Writer) error {
		if !v.Valid() {
			_, err := fmt.Fprintf(w, "%s: invalid\n", serial)
			return err
		}
		r := v.Record
		_, err := fmt.Fprintf(w, "%s: valid\nproduct:  %s\nbatch:    %s\ncreated:  %s\npayload:  %s\n",
			serial, r.ProductName, r.BatchID, r.CreatedAt.UTC().Format(time.RFC3339), r.CodePayload)
		return err
	})
	if err != nil {
		return err
	}
	if !v.Valid() {
		return NewExitError(ExitFailure, "serial not registered")
	}
	return nil
}

func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var rangeFlag string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print issuance statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, rootOpts, rangeFlag)
		},
	}
	cmd.Flags().StringVarP(&rangeFlag, "range", "r", "week", "time range (week|month|year)")
	return cmd
}

type bucketOutput struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type productOutput struct {
	ProductName string `json:"product_name"`
	Count       int    `json:"count"`
}

type statsOutput struct {
	Range         string          `json:"range"`
	TotalSerials  int             `json:"total_serials"`
	TotalProducts int             `json:"total_products"`
	TotalBatches  int             `json:"total_batches"`
	TimeSeries    []bucketOutput  `json:"time_series"`
	TopProducts   []productOutput `json:"top_products"`
}

func runStats(cmd *cobra.Command, rootOpts *RootOptions, rangeFlag string) error {
	r, err := domain.ParseRange(rangeFlag)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.Stats.Aggregate(cmd.Context(), r)
	if err != nil {
		return WrapExitError(ExitCommandError, "statistics", err)
	}

	out := statsOutput{
		Range:         string(snap.Range),
		TotalSerials:  snap.TotalSerials,
		TotalProducts: snap.TotalProducts,
		TotalBatches:  snap.TotalBatches,
		TimeSeries:    make([]bucketOutput, 0, len(snap.TimeSeries)),
		TopProducts:   make([]productOutput, 0, len(snap.TopProducts)),
	}
	for _, b := range snap.TimeSeries {
		out.TimeSeries = append(out.TimeSeries, bucketOutput{Label: b.Label, Count: b.Count})
	}
	for _, p := range snap.TopProducts {
		out.TopProducts = append(out.TopProducts, productOutput{ProductName: p.ProductName, Count: p.Count})
	}

	f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(out, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "serials\t%d\nproducts\t%d\nbatches\t%d\n\n", out.TotalSerials, out.TotalProducts, out.TotalBatches)
		fmt.Fprintf(tw, "%s\tcount\n", out.Range)
		for _, b := range out.TimeSeries {
			fmt.Fprintf(tw, "%s\t%d\n", b.Label, b.Count)
		}
		fmt.Fprintln(tw, "\nproduct\tcount")
		for _, p := range out.TopProducts {
			fmt.Fprintf(tw, "%s\t%d\n", p.ProductName, p.Count)
		}
		return tw.Flush()
	})
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <batch-id>",
		Short: "Export a batch as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, rootOpts, args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runExport(cmd *cobra.Command, rootOpts *RootOptions, batchID, output string) error {
	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Serials.BatchRecords(cmd.Context(), batchID)
	if err != nil {
		return WrapExitError(ExitCommandError, "read batch", err)
	}
	if len(records) == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("batch %s not found", batchID))
	}

	if output == "" {
		return export.WriteCSV(cmd.OutOrStdout(), records)
	}

	file, err := os.Create(output)
	if err != nil {
		return WrapExitError(ExitCommandError, "create output", err)
	}
	if err := export.WriteCSV(file, records); err != nil {
		file.Close()
		return WrapExitError(ExitCommandError, "write csv", err)
	}
	return file.Close()
}

func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <batch-id>",
		Short: "List the serials committed under a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, rootOpts, args[0])
		},
	}
}

func runBatch(cmd *cobra.Command, rootOpts *RootOptions, batchID string) error {
	a, err := openApp(cmd.Context(), rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Serials.BatchRecords(cmd.Context(), batchID)
	if err != nil {
		return WrapExitError(ExitCommandError, "read batch", err)
	}
	if len(records) == 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("batch %s not found", batchID))
	}

	f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(batchOutput{BatchID: batchID, Count: len(records), Records: toOutput(records)}, func(w io.Writer) error {
		return writeBatchText(w, batchID, records)
	})
}
