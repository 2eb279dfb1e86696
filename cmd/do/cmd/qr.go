package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/templui/promoproof/internal/model"
	"github.com/templui/promoproof/internal/qr"
	"github.com/templui/promoproof/internal/storage"
)

func QRCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "qr <material-id> <timestamp>",
		Short: "Render the reward QR code for a material and timestamp (YYYYMMDD_HHMMSS)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			materialID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid material id %q", args[0])
			}
			_, err = time.Parse(model.TimestampLayout, args[1])
			if err != nil {
				return fmt.Errorf("invalid timestamp %q: want YYYYMMDD_HHMMSS", args[1])
			}

			cfg := loadConfig(false)
			s, err := storage.New(cfg)
			if err != nil {
				return err
			}

			filename, err := qr.NewGenerator(s).Generate(cmd.Context(), materialID, args[1])
			if err != nil {
				return err
			}

			fmt.Println(qr.Key(filename))
			return nil
		},
	}
}
